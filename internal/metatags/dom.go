package metatags

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"go-og-audit/internal/model"
)

// DOMScanner 使用 goquery 解析文档后读取 <meta> 的 property/name 与 content。
// 与正则实现相比不会命中注释中的文本，但需要完整解析文档。
type DOMScanner struct{}

// NewDOMScanner 创建 DOM 扫描器。
func NewDOMScanner() *DOMScanner { return &DOMScanner{} }

// ScanMetaTags 对每个标签取文档中首次出现的值（标签名不区分大小写）。
func (DOMScanner) ScanMetaTags(doc string) model.OGTagSet {
	var out model.OGTagSet
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return out
	}
	found := map[string]string{}
	d.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		for _, attr := range []string{"property", "name"} {
			key, _ := s.Attr(attr)
			key = strings.ToLower(strings.TrimSpace(key))
			if key == "" {
				continue
			}
			if _, seen := found[key]; !seen {
				found[key] = strings.TrimSpace(content)
			}
		}
	})
	for _, t := range knownTags {
		if v, ok := found[t.name]; ok {
			*t.field(&out) = &v
		}
	}
	return out
}
