// 包 metatags 从原始 HTML 文本中抽取 Open Graph / Twitter Card 标签：
// - PatternScanner：基于正则的容错扫描（默认），不要求 HTML 结构合法
// - DOMScanner：基于 goquery 的 DOM 扫描，可通过配置切换
// 注意：PatternScanner 会误命中注释或脚本中形似标签的文本，这是已知限制。
package metatags

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"go-og-audit/internal/model"
)

// Scanner 为标签扫描策略，便于替换实现而不影响调用方。
type Scanner interface {
	ScanMetaTags(html string) model.OGTagSet
}

// tag 描述一个可识别标签及其在 OGTagSet 中的位置。
type tag struct {
	name  string
	field func(*model.OGTagSet) **string
}

var knownTags = []tag{
	{"og:title", func(s *model.OGTagSet) **string { return &s.Title }},
	{"og:description", func(s *model.OGTagSet) **string { return &s.Description }},
	{"og:image", func(s *model.OGTagSet) **string { return &s.Image }},
	{"og:url", func(s *model.OGTagSet) **string { return &s.URL }},
	{"og:type", func(s *model.OGTagSet) **string { return &s.Type }},
	{"og:site_name", func(s *model.OGTagSet) **string { return &s.SiteName }},
	{"twitter:card", func(s *model.OGTagSet) **string { return &s.TwitterCard }},
	{"twitter:title", func(s *model.OGTagSet) **string { return &s.TwitterTitle }},
	{"twitter:description", func(s *model.OGTagSet) **string { return &s.TwitterDescription }},
	{"twitter:image", func(s *model.OGTagSet) **string { return &s.TwitterImage }},
}

// PatternScanner 为每个标签预编译四种属性顺序的正则。
type PatternScanner struct {
	patterns map[string][]*regexp.Regexp
}

const contentAttr = `content\s*=\s*("[^"]*"|'[^']*')`

// NewPatternScanner 创建正则扫描器。
func NewPatternScanner() *PatternScanner {
	ps := &PatternScanner{patterns: make(map[string][]*regexp.Regexp, len(knownTags))}
	for _, t := range knownTags {
		name := regexp.QuoteMeta(t.name)
		var list []*regexp.Regexp
		for _, attr := range []string{"property", "name"} {
			key := attr + `\s*=\s*["']` + name + `["']`
			// 属性名前必须是空白，避免命中 data-content/data-property 之类的属性
			list = append(list,
				// key 在前 / content 在前
				regexp.MustCompile(`(?i)<meta(?:\s[^>]*?)?\s`+key+`[^>]*?\s`+contentAttr),
				regexp.MustCompile(`(?i)<meta(?:\s[^>]*?)?\s`+contentAttr+`[^>]*?\s`+key),
			)
		}
		ps.patterns[t.name] = list
	}
	return ps
}

// ScanMetaTags 依次尝试四种模式，取首个命中值。
func (p *PatternScanner) ScanMetaTags(doc string) model.OGTagSet {
	var out model.OGTagSet
	for _, t := range knownTags {
		for _, re := range p.patterns[t.name] {
			m := re.FindStringSubmatch(doc)
			if m == nil {
				continue
			}
			v := unquote(m[1])
			*t.field(&out) = &v
			break
		}
	}
	return out
}

// unquote 去掉引号并反转义 HTML 实体。
func unquote(s string) string {
	if len(s) >= 2 {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(html.UnescapeString(s))
}

var defaultScanner = NewPatternScanner()

// Extract 使用默认的正则扫描器抽取标签。
func Extract(doc string) model.OGTagSet { return defaultScanner.ScanMetaTags(doc) }

// New 按名称返回扫描器："dom" 使用 goquery，其余回退到正则实现。
func New(kind string) Scanner {
	if strings.EqualFold(strings.TrimSpace(kind), "dom") {
		return NewDOMScanner()
	}
	return defaultScanner
}

// Decode 依据 Content-Type 与 <meta charset> 将正文转换为 UTF-8。
func Decode(body []byte, contentType string) string {
	enc, _, _ := charset.DetermineEncoding(body, contentType)
	b, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		// 解码失败时若本身已是 UTF-8 则直接使用
		if utf8.Valid(body) {
			return string(body)
		}
		return strings.ToValidUTF8(string(body), "�")
	}
	return string(b)
}
