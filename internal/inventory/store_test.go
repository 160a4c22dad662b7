package inventory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-og-audit/internal/model"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "out", "og-inventory.json"))
}

func TestSaveLoad(t *testing.T) {
	s := newStore(t)
	inv := &model.OGInventory{
		BaseURL:   "https://x.com",
		AuditedAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		Pages: []model.AuditResult{
			{URL: "https://x.com/", Path: "/", Score: 100, Issues: []string{}},
			{URL: "https://x.com/a", Path: "/a", Score: 50, Issues: []string{"Image"}},
		},
	}
	inv.Recompute()
	require.NoError(t, s.Save(inv))

	raw, err := os.ReadFile(s.Path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"baseUrl\": \"https://x.com\"")
	assert.Contains(t, string(raw), `"auditedAt": "2024-05-01T08:00:00Z"`)
	assert.Contains(t, string(raw), `"totalPages": 2`)
	assert.Contains(t, string(raw), `"averageScore": 75`)

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, inv, got)

	entries, err := os.ReadDir(filepath.Dir(s.Path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestLoad_AbsentOrMalformed(t *testing.T) {
	s := newStore(t)
	got, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path), 0o755))
	require.NoError(t, os.WriteFile(s.Path, []byte("{not json"), 0o644))
	got, err = s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRegister(t *testing.T) {
	s := newStore(t)
	inv, added, err := s.Register([]string{"/", "/about"}, "https://x.com")
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 2, inv.TotalPages)
	assert.Equal(t, 0, inv.AverageScore)
	assert.Equal(t, "https://x.com/about", inv.Pages[1].URL)
	assert.Equal(t, []string{NotAuditedIssue}, inv.Pages[1].Issues)

	// 已存在的路径不会重复登记
	inv, added, err = s.Register([]string{"/about", "/blog", "/blog"}, "https://ignored.example")
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 3, inv.TotalPages)
	assert.Equal(t, "https://x.com", inv.BaseURL)

	loaded, err := s.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	paths := make([]string, 0, len(loaded.Pages))
	for _, p := range loaded.Pages {
		paths = append(paths, p.Path)
	}
	assert.Equal(t, []string{"/", "/about", "/blog"}, paths)
}

func TestRegister_KeepsAuditedPages(t *testing.T) {
	s := newStore(t)
	inv := &model.OGInventory{BaseURL: "https://x.com", Pages: []model.AuditResult{
		{URL: "https://x.com/", Path: "/", Score: 90, Issues: []string{}},
	}}
	inv.Recompute()
	require.NoError(t, s.Save(inv))

	got, _, err := s.Register([]string{"/new"}, "")
	require.NoError(t, err)
	assert.Equal(t, 45, got.AverageScore)
	assert.Equal(t, 90, got.Pages[0].Score)

	var decoded map[string]any
	raw, err := os.ReadFile(s.Path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.EqualValues(t, 2, decoded["totalPages"])
	assert.True(t, strings.HasSuffix(string(raw), "}\n"))
}

func TestRegister_NormalizesPaths(t *testing.T) {
	s := newStore(t)
	inv, added, err := s.Register([]string{"/about", "about", " https://x.com/blog ", "HTTPS://x.com/blog", "https://x.com", "/q?p=1"}, "https://x.com")
	require.NoError(t, err)
	assert.Equal(t, 4, added)
	paths := make([]string, 0, len(inv.Pages))
	urls := make([]string, 0, len(inv.Pages))
	for _, p := range inv.Pages {
		paths = append(paths, p.Path)
		urls = append(urls, p.URL)
	}
	assert.Equal(t, []string{"/about", "/blog", "/", "/q?p=1"}, paths)
	assert.Equal(t, []string{"https://x.com/about", "https://x.com/blog", "https://x.com/", "https://x.com/q?p=1"}, urls)
}

func TestRegister_BaseFromAbsoluteURL(t *testing.T) {
	s := newStore(t)
	inv, _, err := s.Register([]string{"https://Y.com/a", "b"}, "")
	require.NoError(t, err)
	assert.Equal(t, "https://y.com", inv.BaseURL)
	assert.Equal(t, "https://y.com/b", inv.Pages[1].URL)
}
