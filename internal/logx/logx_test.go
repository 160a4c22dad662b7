package logx

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogx_PrettyZH_Info(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "debug", Format: "pretty", Locale: "zh-CN", Color: "never", Writer: &buf})
	Infof("hello %s", "world")
	assert.Contains(t, buf.String(), "[信息] hello world")
}

func TestLogx_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "warn", Format: "pretty", Locale: "zh-CN", Color: "never", Writer: &buf})
	Infof("should not print")
	Warnf("warn on")
	assert.NotContains(t, buf.String(), "should not print")
	assert.Contains(t, buf.String(), "[警告]")
}

func TestLogx_EnglishLabelsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Format: "pretty", Locale: "en", Color: "never", Writer: &buf})
	slog.Default().WithGroup("page").With("score", 90).Info("ok", "url", "https://x.com")
	out := buf.String()
	assert.Contains(t, out, "[INFO] ok")
	assert.Contains(t, out, "score=90")
	assert.Contains(t, out, "page.url=https://x.com")
}

func TestLogx_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Format: "json", Writer: &buf})
	Errorf("boom")
	assert.True(t, strings.HasPrefix(buf.String(), "{"))
	assert.Contains(t, buf.String(), `"msg":"boom"`)
}

func TestLogx_Silent(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "off", Format: "pretty", Color: "never", Writer: &buf})
	Errorf("hidden")
	assert.Empty(t, buf.String())
}

func TestLogx_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "og-audit.log")
	var buf bytes.Buffer
	Init(Options{Level: "info", Format: "pretty", Locale: "en", Color: "always", File: path, Writer: &buf})
	Infof("to file")
	require.NoError(t, Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "to file")
	assert.Contains(t, buf.String(), "to file")
}
