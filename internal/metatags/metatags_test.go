package metatags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"go-og-audit/internal/model"
)

func TestExtract_AttributeOrders(t *testing.T) {
	cases := []struct {
		name string
		html string
	}{
		{"property first", `<meta property="og:title" content="Hello">`},
		{"content first", `<meta content="Hello" property="og:title">`},
		{"name first", `<meta name="og:title" content="Hello">`},
		{"content before name", `<meta content="Hello" name="og:title" />`},
		{"upper case", `<META PROPERTY="OG:TITLE" CONTENT="Hello">`},
		{"single quotes", `<meta property='og:title' content='Hello'>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Extract(tc.html)
			require.NotNil(t, got.Title)
			assert.Equal(t, "Hello", *got.Title)
		})
	}
}

func TestExtract_AbsentVersusEmpty(t *testing.T) {
	got := Extract(`<head><meta property="og:description" content=""></head>`)
	assert.Nil(t, got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "", *got.Description)
}

func TestExtract_AllKnownTags(t *testing.T) {
	doc := `<!doctype html><html><head>
<meta property="og:title" content="T">
<meta property="og:description" content="D">
<meta property="og:image" content="https://x.com/a.png">
<meta property="og:image:width" content="1200">
<meta property="og:url" content="https://x.com/">
<meta property="og:type" content="website">
<meta property="og:site_name" content="X">
<meta name="twitter:card" content="summary_large_image">
<meta name="twitter:title" content="TT">
<meta name="twitter:description" content="TD">
<meta name="twitter:image" content="https://x.com/t.png">
</head></html>`

	for _, sc := range []Scanner{NewPatternScanner(), NewDOMScanner()} {
		got := sc.ScanMetaTags(doc)
		assert.Equal(t, "T", model.Deref(got.Title))
		assert.Equal(t, "D", model.Deref(got.Description))
		assert.Equal(t, "https://x.com/a.png", model.Deref(got.Image))
		assert.Equal(t, "https://x.com/", model.Deref(got.URL))
		assert.Equal(t, "website", model.Deref(got.Type))
		assert.Equal(t, "X", model.Deref(got.SiteName))
		assert.Equal(t, "summary_large_image", model.Deref(got.TwitterCard))
		assert.Equal(t, "TT", model.Deref(got.TwitterTitle))
		assert.Equal(t, "TD", model.Deref(got.TwitterDescription))
		assert.Equal(t, "https://x.com/t.png", model.Deref(got.TwitterImage))
	}
}

func TestExtract_FirstMatchWins(t *testing.T) {
	got := Extract(`<meta property="og:title" content="first"><meta property="og:title" content="second">`)
	assert.Equal(t, "first", model.Deref(got.Title))
}

func TestExtract_UnescapesEntities(t *testing.T) {
	got := Extract(`<meta property="og:title" content="Tom &amp; Jerry">`)
	assert.Equal(t, "Tom & Jerry", model.Deref(got.Title))
}

func TestScanners_IgnorePrefixedAttributes(t *testing.T) {
	cases := []struct {
		name string
		html string
		want *string
	}{
		{"data-content before content", `<meta property="og:title" data-content="wrong" content="Real Title">`, model.Ptr("Real Title")},
		{"data-content after key", `<meta content="Real Title" data-content="wrong" property="og:title">`, model.Ptr("Real Title")},
		{"data-property is not a key", `<meta data-property="og:title" content="Not OG">`, nil},
		{"data-name is not a key", `<meta data-name="twitter:title" content="Not OG">`, nil},
		{"newline separated", "<meta\n  property=\"og:title\"\n  content=\"Real Title\">", model.Ptr("Real Title")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pattern := NewPatternScanner().ScanMetaTags(tc.html)
			dom := NewDOMScanner().ScanMetaTags(tc.html)
			assert.Equal(t, tc.want, pattern.Title)
			assert.Equal(t, tc.want, dom.Title)
			assert.Nil(t, pattern.TwitterTitle)
		})
	}
}

func TestPatternScanner_MatchesInsideComments(t *testing.T) {
	// 已知限制：正则扫描器会命中注释中的标签，DOM 扫描器不会。
	doc := `<!-- <meta property="og:title" content="commented"> -->`
	assert.Equal(t, "commented", model.Deref(NewPatternScanner().ScanMetaTags(doc).Title))
	assert.Nil(t, NewDOMScanner().ScanMetaTags(doc).Title)
}

func TestNew_SelectsScanner(t *testing.T) {
	assert.IsType(t, &DOMScanner{}, New("DOM"))
	assert.IsType(t, &PatternScanner{}, New(""))
	assert.IsType(t, &PatternScanner{}, New("pattern"))
}

func TestDecode_Latin1(t *testing.T) {
	raw, err := charmap.ISO8859_1.NewEncoder().String(`<meta property="og:title" content="Café">`)
	require.NoError(t, err)
	got := Extract(Decode([]byte(raw), "text/html; charset=iso-8859-1"))
	assert.Equal(t, "Café", model.Deref(got.Title))
}
