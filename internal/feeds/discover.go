// 包 feeds 在站点地图缺失时，借助站点的 RSS/Atom/JSON 订阅补全待审计页面：
// - Discover：依次探测常见订阅端点，失败后解析首页 <link rel="alternate">
// - Parse：使用 gofeed 解析订阅条目
// - Paths：筛选与站点同主机的条目链接并转为路径
package feeds

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"go-og-audit/internal/fetch"
	"go-og-audit/internal/logx"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// ErrNoFeed 表示未能发现任何订阅。
var ErrNoFeed = errors.New("no feed discovered")

// Candidates 为按顺序探测的订阅端点。
var Candidates = []string{
	"/feed", "/feed.xml", "/index.xml", "/atom.xml", "/rss.xml",
	"/rss", "/atom", "/feed/atom", "/?feed=rss2",
	"/posts/index.xml", "/blog/index.xml", "/feed.json",
}

// probeTimeout 为单个候选的探测超时。
const probeTimeout = 6 * time.Second

// Finder 发现并解析站点订阅。
type Finder struct {
	cl *fetch.Client
	// Max 为最多采用的条目数，0 表示不限制。
	Max int
}

// NewFinder 创建 Finder。
func NewFinder(cl *fetch.Client, max int) *Finder {
	return &Finder{cl: cl, Max: max}
}

// Discover 尝试常见端点与首页 <link> 以发现订阅地址。
func (f *Finder) Discover(ctx context.Context, origin string) (string, error) {
	origin = strings.TrimRight(origin, "/")
	// 全串行探测，按顺序逐个尝试
	for _, p := range Candidates {
		u := joinURL(origin, p)
		logx.Debugf("探测候选订阅：%s", u)
		if f.probe(ctx, u) {
			return u, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
	// 回退：抓取首页并解析 <link> 标签
	resp, err := f.cl.Fetch(ctx, origin+"/")
	if err != nil {
		return "", fmt.Errorf("GET site %s: %w", origin, err)
	}
	found, err := linkedFeed(origin, resp.Body)
	if err != nil {
		return "", err
	}
	if found != "" && f.probe(ctx, found) {
		logx.Debugf("从 <link> 发现订阅：%s", found)
		return found, nil
	}
	return "", fmt.Errorf("%w for %s", ErrNoFeed, origin)
}

// linkedFeed 返回 HTML 中首个订阅声明的绝对地址。
func linkedFeed(base string, body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	var found string
	doc.Find("link").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		t, _ := s.Attr("type")
		href, _ := s.Attr("href")
		lt := strings.ToLower(t)
		if strings.Contains(strings.ToLower(rel), "alternate") &&
			(strings.Contains(lt, "rss") || strings.Contains(lt, "atom") || strings.Contains(lt, "json")) {
			found = joinURL(base+"/", href)
			return false
		}
		return true
	})
	return found, nil
}

// probe 根据 Content-Type 与内容前缀粗略判断 URL 是否为订阅。
func (f *Finder) probe(ctx context.Context, feedURL string) bool {
	prCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	resp, err := f.cl.Get(prCtx, feedURL)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	head, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	lb := bytes.ToLower(head)
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(ct, "html") {
		return false
	}
	if strings.Contains(ct, "rss") || strings.Contains(ct, "atom") || strings.Contains(ct, "xml") {
		return true
	}
	if bytes.Contains(lb, []byte("<rss")) || bytes.Contains(lb, []byte("<feed")) || bytes.Contains(lb, []byte("<rdf")) {
		return true
	}
	return bytes.Contains(lb, []byte("jsonfeed.org/version"))
}

// Parse 抓取并解析订阅，返回条目链接（按订阅中的顺序）。
func (f *Finder) Parse(ctx context.Context, feedURL string) ([]string, error) {
	resp, err := f.cl.Fetch(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("GET feed %s: %w", feedURL, err)
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}
	links := make([]string, 0, len(feed.Items))
	for _, it := range feed.Items {
		link := strings.TrimSpace(it.Link)
		if link == "" {
			continue
		}
		links = append(links, joinURL(feedURL, link))
		if f.Max > 0 && len(links) >= f.Max {
			break
		}
	}
	return links, nil
}

// Pages 发现订阅并返回与 origin 同主机的条目路径；无订阅时返回 nil, nil。
func (f *Finder) Pages(ctx context.Context, origin string) ([]string, error) {
	feedURL, err := f.Discover(ctx, origin)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logx.Infof("未发现订阅：%s", origin)
		return nil, nil
	}
	links, err := f.Parse(ctx, feedURL)
	if err != nil {
		logx.Warnf("解析订阅失败：%v", err)
		return nil, nil
	}
	paths := Paths(origin, links)
	logx.Infof("从订阅 %s 获得页面 %d 个", feedURL, len(paths))
	return paths, nil
}

// Paths 保留与 origin 同主机的链接并转为路径（含查询串），去重且保持顺序。
func Paths(origin string, links []string) []string {
	base, err := url.Parse(origin)
	if err != nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, l := range links {
		u, err := url.Parse(l)
		if err != nil || !strings.EqualFold(u.Hostname(), base.Hostname()) {
			continue
		}
		p := u.EscapedPath()
		if p == "" {
			p = "/"
		}
		if u.RawQuery != "" {
			p += "?" + u.RawQuery
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// joinURL 将相对路径解析为绝对 URL。
func joinURL(base, ref string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + ref
	}
	ru, err := url.Parse(ref)
	if err != nil {
		return base + ref
	}
	return u.ResolveReference(ru).String()
}
