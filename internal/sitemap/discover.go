// 包 sitemap 负责站点地图发现与解析：
// - Discover：robots.txt 中的 Sitemap 指令优先，其次依次尝试常见路径
// - LocScanner：从站点地图文本中抽取 <url><loc>，默认使用正则实现
// 站点地图索引（<sitemapindex>）只做提示，不递归抓取子地图。
package sitemap

import (
	"bufio"
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"go-og-audit/internal/fetch"
	"go-og-audit/internal/logx"
)

// DefaultCandidates 为默认尝试的站点地图路径（按优先级）。
var DefaultCandidates = []string{"/sitemap.xml", "/sitemap_index.xml", "/sitemap-index.xml"}

// Fetcher 抓取 URL 并返回完整响应；非 2xx 应返回错误。
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Response, error)
}

// LocScanner 从站点地图文本中抽取页面地址。
type LocScanner interface {
	ScanLocEntries(xml string) []string
}

// PatternLocScanner 基于正则抽取每个 <url> 元素内的 <loc>。
type PatternLocScanner struct{}

var (
	urlBlockRe = regexp.MustCompile(`(?is)<url(?:\s[^>]*)?>(.*?)</url>`)
	locRe      = regexp.MustCompile(`(?is)<loc>\s*(.*?)\s*</loc>`)
	cdataRe    = regexp.MustCompile(`(?s)^<!\[CDATA\[(.*)\]\]>$`)
)

// ScanLocEntries 返回按出现顺序排列的 loc 值。
func (PatternLocScanner) ScanLocEntries(doc string) []string {
	var out []string
	for _, block := range urlBlockRe.FindAllStringSubmatch(doc, -1) {
		m := locRe.FindStringSubmatch(block[1])
		if m == nil {
			continue
		}
		loc := m[1]
		if c := cdataRe.FindStringSubmatch(loc); c != nil {
			loc = c[1]
		}
		loc = strings.TrimSpace(html.UnescapeString(loc))
		if loc != "" {
			out = append(out, loc)
		}
	}
	return out
}

// IsIndex 判断文档是否为站点地图索引。
func IsIndex(doc string) bool {
	return strings.Contains(strings.ToLower(doc), "<sitemapindex")
}

// Result 为一次发现的结果。
type Result struct {
	// SitemapURL 为成功解析的站点地图地址；全部失败时为空。
	SitemapURL string
	URLs       []string
	// Attempts 为按顺序尝试过的候选地址。
	Attempts []string
	Index    bool
}

// Discoverer 持有抓取器与 loc 扫描器。
type Discoverer struct {
	fetcher Fetcher
	scanner LocScanner
}

// New 创建 Discoverer；scanner 为 nil 时使用正则实现。
func New(f Fetcher, s LocScanner) *Discoverer {
	if s == nil {
		s = PatternLocScanner{}
	}
	return &Discoverer{fetcher: f, scanner: s}
}

// Candidates 返回候选路径：robots.txt 声明的路径在最前，其余按默认顺序并去重。
func (d *Discoverer) Candidates(ctx context.Context, origin string) []string {
	var out []string
	if p := d.robotsSitemap(ctx, origin); p != "" {
		out = append(out, p)
	}
	for _, c := range DefaultCandidates {
		dup := false
		for _, e := range out {
			if e == c {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

// Discover 依次尝试候选地址，首个成功的站点地图即被解析并返回，不再尝试其余候选。
// 全部失败时返回空结果；仅在 ctx 被取消时返回 error。
func (d *Discoverer) Discover(ctx context.Context, origin string) (Result, error) {
	origin = strings.TrimRight(origin, "/")
	var res Result
	for _, p := range d.Candidates(ctx, origin) {
		u := origin + p
		res.Attempts = append(res.Attempts, u)
		logx.Debugf("探测候选站点地图：%s", u)
		resp, err := d.fetcher.Fetch(ctx, u)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, fmt.Errorf("discover sitemap %s: %w", origin, ctxErr)
			}
			continue
		}
		doc := string(resp.Body)
		res.SitemapURL = u
		res.URLs = d.scanner.ScanLocEntries(doc)
		if IsIndex(doc) {
			res.Index = true
			logx.Warnf("%s 为站点地图索引，不递归抓取子地图；仅使用顶层 <url> 条目（%d 个）", u, len(res.URLs))
		}
		logx.Infof("发现站点地图：%s 页面=%d", u, len(res.URLs))
		return res, nil
	}
	logx.Infof("未发现站点地图：%s", origin)
	return res, nil
}

// robotsSitemap 读取 robots.txt 中首个 Sitemap 指令并返回其路径部分。
func (d *Discoverer) robotsSitemap(ctx context.Context, origin string) string {
	resp, err := d.fetcher.Fetch(ctx, origin+"/robots.txt")
	if err != nil {
		return ""
	}
	return ParseRobots(string(resp.Body))
}

// ParseRobots 返回首个 "Sitemap:" 指令的路径（含查询串），指令名不区分大小写。
func ParseRobots(body string) string {
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "sitemap") {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		u, err := url.Parse(value)
		if err != nil {
			continue
		}
		p := u.EscapedPath()
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		if u.RawQuery != "" {
			p += "?" + u.RawQuery
		}
		return p
	}
	return ""
}
