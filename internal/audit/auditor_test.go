package audit

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-og-audit/internal/inventory"
	"go-og-audit/internal/model"
	"go-og-audit/internal/sitemap"
)

// fakeValidator 按 URL 返回预设得分；errs 中的 URL 返回错误。
type fakeValidator struct {
	mu     sync.Mutex
	scores map[string]int
	errs   map[string]bool
	delay  map[string]time.Duration
	calls  []string
}

func (f *fakeValidator) Validate(ctx context.Context, u string) (model.ValidationResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, u)
	f.mu.Unlock()
	if d := f.delay[u]; d > 0 {
		time.Sleep(d)
	}
	if f.errs[u] {
		return model.ValidationResult{}, errors.New("boom")
	}
	res := model.ValidationResult{URL: u, Score: f.scores[u], MaxScore: model.MaxScore, Tags: model.OGTagSet{Title: model.Ptr("T " + u)}}
	if res.Score < 100 {
		res.Checks = []model.ValidationCheck{
			{Name: "Title", Status: model.StatusPass},
			{Name: "Image", Status: model.StatusFail},
			{Name: "Canonical URL", Status: model.StatusWarn},
		}
	}
	return res, nil
}

type fakeSitemap struct{ urls []string }

func (f fakeSitemap) Discover(context.Context, string) (sitemap.Result, error) {
	return sitemap.Result{URLs: f.urls}, nil
}

type fakeFeeds struct{ paths []string }

func (f fakeFeeds) Pages(context.Context, string) ([]string, error) { return f.paths, nil }

type fakeHistory struct{ runs []*model.OGInventory }

func (f *fakeHistory) RecordRun(_ context.Context, inv *model.OGInventory) (string, error) {
	f.runs = append(f.runs, inv)
	return "run-1", nil
}

func newStore(t *testing.T) *inventory.Store {
	t.Helper()
	return inventory.New(filepath.Join(t.TempDir(), "og-inventory.json"))
}

func TestAudit_AverageAndPersist(t *testing.T) {
	v := &fakeValidator{scores: map[string]int{
		"https://x.com/":  100,
		"https://x.com/a": 50,
		"https://x.com/b": 0,
	}}
	st := newStore(t)
	hist := &fakeHistory{}
	a := New(Deps{
		Validator: v,
		Sitemap:   fakeSitemap{urls: []string{"https://x.com/", "https://x.com/a", "https://x.com/b"}},
		Inventory: st,
		History:   hist,
	}, Options{})

	inv, err := a.Audit(context.Background(), "x.com")
	require.NoError(t, err)
	assert.Equal(t, "https://x.com", inv.BaseURL)
	assert.Equal(t, 3, inv.TotalPages)
	assert.Equal(t, 50, inv.AverageScore)
	assert.Equal(t, []string{}, inv.Pages[0].Issues)
	assert.Equal(t, []string{"Image", "Canonical URL"}, inv.Pages[1].Issues)
	assert.Equal(t, "/a", inv.Pages[1].Path)
	assert.Equal(t, "T https://x.com/a", inv.Pages[1].Title)

	loaded, err := st.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 50, loaded.AverageScore)
	assert.Len(t, loaded.Pages, 3)
	require.Len(t, hist.runs, 1)
	assert.Equal(t, inv, hist.runs[0])
}

func TestAudit_FailedPageDoesNotAbort(t *testing.T) {
	v := &fakeValidator{
		scores: map[string]int{"https://x.com/ok": 80},
		errs:   map[string]bool{"https://x.com/bad": true},
	}
	a := New(Deps{
		Validator: v,
		Sitemap:   fakeSitemap{urls: []string{"https://x.com/bad", "https://x.com/ok"}},
		Inventory: newStore(t),
	}, Options{})

	inv, err := a.Audit(context.Background(), "https://x.com/some/page")
	require.NoError(t, err)
	require.Len(t, inv.Pages, 2)
	assert.Equal(t, model.AuditResult{URL: "https://x.com/bad", Path: "/bad", Score: 0, Issues: []string{FailedIssue}}, inv.Pages[0])
	assert.Equal(t, 80, inv.Pages[1].Score)
	assert.Equal(t, 40, inv.AverageScore)
}

func TestAudit_ConcurrentPreservesOrder(t *testing.T) {
	urls := []string{"https://x.com/1", "https://x.com/2", "https://x.com/3", "https://x.com/4"}
	v := &fakeValidator{
		scores: map[string]int{urls[0]: 10, urls[1]: 20, urls[2]: 30, urls[3]: 40},
		delay:  map[string]time.Duration{urls[0]: 60 * time.Millisecond, urls[1]: 30 * time.Millisecond},
	}
	a := New(Deps{Validator: v, Sitemap: fakeSitemap{urls: urls}, Inventory: newStore(t)}, Options{Concurrency: 4})

	inv, err := a.Audit(context.Background(), "x.com")
	require.NoError(t, err)
	got := make([]int, 0, len(inv.Pages))
	for _, p := range inv.Pages {
		got = append(got, p.Score)
	}
	assert.Equal(t, []int{10, 20, 30, 40}, got)
}

func TestAudit_SequentialByDefault(t *testing.T) {
	urls := []string{"https://x.com/1", "https://x.com/2", "https://x.com/3"}
	v := &fakeValidator{delay: map[string]time.Duration{urls[0]: 20 * time.Millisecond}}
	a := New(Deps{Validator: v, Sitemap: fakeSitemap{urls: urls}, Inventory: newStore(t)}, Options{})
	_, err := a.Audit(context.Background(), "x.com")
	require.NoError(t, err)
	assert.Equal(t, urls, v.calls)
}

func TestAudit_FallbackChain(t *testing.T) {
	t.Run("feeds", func(t *testing.T) {
		v := &fakeValidator{}
		a := New(Deps{
			Validator: v, Sitemap: fakeSitemap{}, Inventory: newStore(t),
			Feeds:    fakeFeeds{paths: []string{"/posts/a"}},
			Prompter: LinePrompter{In: strings.NewReader("/never\n")},
		}, Options{Paths: []string{"/preset"}})
		_, err := a.Audit(context.Background(), "x.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"https://x.com/posts/a"}, v.calls)
	})
	t.Run("preset paths", func(t *testing.T) {
		v := &fakeValidator{}
		a := New(Deps{
			Validator: v, Sitemap: fakeSitemap{}, Inventory: newStore(t),
			Feeds:    fakeFeeds{},
			Prompter: LinePrompter{In: strings.NewReader("/never\n")},
		}, Options{Paths: []string{"/preset", "about"}})
		_, err := a.Audit(context.Background(), "x.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"https://x.com/preset", "https://x.com/about"}, v.calls)
	})
	t.Run("prompt", func(t *testing.T) {
		v := &fakeValidator{}
		var out strings.Builder
		a := New(Deps{
			Validator: v, Sitemap: fakeSitemap{}, Inventory: newStore(t),
			Prompter: LinePrompter{In: strings.NewReader(" /a , /b,,\n"), Out: &out},
		}, Options{})
		_, err := a.Audit(context.Background(), "x.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"https://x.com/a", "https://x.com/b"}, v.calls)
		assert.Contains(t, out.String(), "comma-separated")
	})
	t.Run("prompt empty defaults to root", func(t *testing.T) {
		v := &fakeValidator{}
		a := New(Deps{
			Validator: v, Sitemap: fakeSitemap{}, Inventory: newStore(t),
			Prompter: LinePrompter{In: strings.NewReader("")},
		}, Options{})
		_, err := a.Audit(context.Background(), "x.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"https://x.com/"}, v.calls)
	})
}

func TestAudit_CancelledDoesNotSave(t *testing.T) {
	st := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := New(Deps{Validator: &fakeValidator{}, Sitemap: fakeSitemap{urls: []string{"https://x.com/"}}, Inventory: st}, Options{})
	_, err := a.Audit(ctx, "x.com")
	assert.ErrorIs(t, err, context.Canceled)
	inv, err := st.Load()
	require.NoError(t, err)
	assert.Nil(t, inv)
}

func TestNormalizeOrigin(t *testing.T) {
	for in, want := range map[string]string{
		"x.com":                    "https://x.com",
		" x.com/blog ":             "https://x.com",
		"http://x.com:8080/a?b=c":  "http://x.com:8080",
		"https://x.com/":           "https://x.com",
		"HTTPS://Example.com/a":    "https://example.com",
		"Http://x.com":             "http://x.com",
		"x.com/go?to=http://y.com": "https://x.com",
	} {
		got, err := NormalizeOrigin(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := NormalizeOrigin("")
	assert.ErrorIs(t, err, ErrInvalidSite)
	for _, in := range []string{"https://", "https://:8080/a", "ftp://x.com", "HTTPS://"} {
		_, err = NormalizeOrigin(in)
		assert.ErrorIs(t, err, ErrInvalidSite, in)
	}
}

func TestJoinPathAndParsePaths(t *testing.T) {
	assert.Equal(t, "https://x.com/a", JoinPath("https://x.com/", "a"))
	assert.Equal(t, "https://x.com/a", JoinPath("https://x.com", "/a"))
	assert.Equal(t, "https://y.com/z", JoinPath("https://x.com", "https://y.com/z"))
	assert.Equal(t, "HTTPS://x.com/z", JoinPath("https://x.com", "HTTPS://x.com/z"))
	assert.Equal(t, []string{"/"}, ParsePaths("  ,  "))
	assert.Equal(t, []string{"/a", "b"}, ParsePaths("/a, b"))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]model.AuditResult{{Score: 100}, {Score: 90}, {Score: 89}, {Score: 70}, {Score: 69}, {Score: 0}})
	assert.Equal(t, Summary{Perfect: 2, Good: 2, NeedsWork: 2}, s)
}

// countingReader 记录 Read 被调用的次数。
type countingReader struct {
	reads int
}

func (r *countingReader) Read(p []byte) (int, error) {
	r.reads++
	return copy(p, "/late\n"), nil
}

func TestLinePrompter_CancelledSkipsRead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := &countingReader{}
	var out strings.Builder
	paths, err := LinePrompter{In: in, Out: &out}.PromptPaths(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, paths)
	assert.Zero(t, in.reads)
	assert.Empty(t, out.String())
}

func TestLinePrompter_ReadsOneLine(t *testing.T) {
	in := &countingReader{}
	paths, err := LinePrompter{In: in}.PromptPaths(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/late"}, paths)
	assert.Equal(t, 1, in.reads)
}
