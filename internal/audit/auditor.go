// 包 audit 负责整站审计编排：
// - 归一化站点地址并发现页面（站点地图 → 订阅 → 预设路径 → 交互输入）
// - 在有界并发下逐页校验，结果顺序与输入路径一致
// - 汇总为清单、持久化并输出摘要
package audit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"go-og-audit/internal/logx"
	"go-og-audit/internal/metrics"
	"go-og-audit/internal/model"
	"go-og-audit/internal/sitemap"
)

// FailedIssue 为单页校验抛错时记录的问题。
const FailedIssue = "Failed to fetch"

// ErrInvalidSite 表示无法从输入中得到站点源地址。
var ErrInvalidSite = errors.New("invalid site")

// PageValidator 校验单个页面。
type PageValidator interface {
	Validate(ctx context.Context, pageURL string) (model.ValidationResult, error)
}

// SitemapSource 发现站点地图中的页面。
type SitemapSource interface {
	Discover(ctx context.Context, origin string) (sitemap.Result, error)
}

// FeedSource 从订阅中补全页面路径。
type FeedSource interface {
	Pages(ctx context.Context, origin string) ([]string, error)
}

// InventorySaver 整体写回清单。
type InventorySaver interface {
	Save(inv *model.OGInventory) error
}

// HistoryRecorder 记录一次审计。
type HistoryRecorder interface {
	RecordRun(ctx context.Context, inv *model.OGInventory) (string, error)
}

// Deps 为审计依赖；Feeds/Prompter/History 可为 nil。
type Deps struct {
	Validator PageValidator
	Sitemap   SitemapSource
	Inventory InventorySaver
	Feeds     FeedSource
	Prompter  Prompter
	History   HistoryRecorder
}

// Options 为审计参数。
type Options struct {
	// Concurrency 为同时校验的页面数，<=1 表示严格串行。
	Concurrency int
	// Paths 为站点地图缺失时的预设路径，非空时不再交互询问。
	Paths []string
}

// Auditor 整站审计器。
type Auditor struct {
	deps Deps
	opts Options
	now  func() time.Time
}

// New 创建 Auditor。
func New(deps Deps, opts Options) *Auditor {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Auditor{deps: deps, opts: opts, now: time.Now}
}

// Audit 审计整个站点并持久化清单。单页失败记为 0 分，不会中断整体；
// 只有站点地址非法、ctx 取消或清单写入失败时返回 error。
func (a *Auditor) Audit(ctx context.Context, site string) (*model.OGInventory, error) {
	start := a.now()
	origin, err := NormalizeOrigin(site)
	if err != nil {
		return nil, err
	}
	logx.Infof("开始审计：%s", origin)

	targets, err := a.resolve(ctx, origin)
	if err != nil {
		return nil, err
	}
	logx.Infof("待审计页面：%d（并发=%d）", len(targets), a.opts.Concurrency)

	pages, err := a.validateAll(ctx, targets)
	if err != nil {
		return nil, err
	}

	inv := &model.OGInventory{BaseURL: origin, AuditedAt: a.now().UTC(), Pages: pages}
	inv.Recompute()
	if err := a.deps.Inventory.Save(inv); err != nil {
		return nil, fmt.Errorf("save inventory: %w", err)
	}
	if a.deps.History != nil {
		if id, err := a.deps.History.RecordRun(ctx, inv); err != nil {
			logx.Warnf("记录审计历史失败：%v", err)
		} else {
			logx.Debugf("审计历史已记录：%s", id)
		}
	}
	metrics.AuditDuration.Observe(a.now().Sub(start).Seconds())
	Summarize(inv.Pages).Log(inv)
	return inv, nil
}

// validateAll 在有界并发下校验全部页面，结果按输入下标写回以保持顺序。
func (a *Auditor) validateAll(ctx context.Context, targets []string) ([]model.AuditResult, error) {
	pages := make([]model.AuditResult, len(targets))
	var g errgroup.Group
	g.SetLimit(a.opts.Concurrency)
	for i, u := range targets {
		i, u := i, u
		if err := ctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			vr, err := a.deps.Validator.Validate(ctx, u)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logx.Warnf("校验失败：%s 错误=%v", u, err)
				pages[i] = FailedResult(u)
				return nil
			}
			pages[i] = ToAuditResult(vr)
			logx.Infof("[%d/%d] %s 得分=%d", i+1, len(targets), u, vr.Score)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("audit aborted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("audit aborted: %w", err)
	}
	return pages, nil
}

// resolve 依次尝试站点地图、订阅、预设路径与交互输入，返回绝对地址列表。
func (a *Auditor) resolve(ctx context.Context, origin string) ([]string, error) {
	res, err := a.deps.Sitemap.Discover(ctx, origin)
	if err != nil {
		return nil, err
	}
	if len(res.URLs) > 0 {
		return joinAll(origin, res.URLs), nil
	}
	if a.deps.Feeds != nil {
		paths, err := a.deps.Feeds.Pages(ctx, origin)
		if err != nil {
			return nil, err
		}
		if len(paths) > 0 {
			return joinAll(origin, paths), nil
		}
	}
	if len(a.opts.Paths) > 0 {
		logx.Infof("使用预设路径：%v", a.opts.Paths)
		return joinAll(origin, a.opts.Paths), nil
	}
	paths := []string{"/"}
	if a.deps.Prompter != nil {
		paths, err = a.deps.Prompter.PromptPaths(ctx)
		if err != nil {
			return nil, fmt.Errorf("prompt paths: %w", err)
		}
	}
	return joinAll(origin, paths), nil
}

// NormalizeOrigin 将站点输入归一化为小写的 scheme://host；未给出 scheme 时补 https://。
// scheme 不区分大小写，仅接受 http/https。
func NormalizeOrigin(site string) (string, error) {
	site = strings.TrimSpace(site)
	if site == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidSite)
	}
	if scheme, _, ok := strings.Cut(site, "://"); ok && !strings.ContainsAny(scheme, "/?#") {
		if !isHTTPScheme(scheme) {
			return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidSite, scheme)
		}
	} else {
		site = "https://" + site
	}
	u, err := url.Parse(site)
	if err != nil || u.Hostname() == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSite, site)
	}
	return u.Scheme + "://" + strings.ToLower(u.Host), nil
}

// JoinPath 将相对路径拼接到 origin；http(s) 绝对地址原样返回。
func JoinPath(origin, p string) string {
	p = strings.TrimSpace(p)
	if scheme, _, ok := strings.Cut(p, "://"); ok && isHTTPScheme(scheme) {
		return p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimRight(origin, "/") + p
}

func isHTTPScheme(s string) bool {
	return strings.EqualFold(s, "http") || strings.EqualFold(s, "https")
}

func joinAll(origin string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, JoinPath(origin, p))
	}
	return out
}

// ToAuditResult 将校验结果投影为清单记录；issues 为全部非 pass 检查项名称。
func ToAuditResult(vr model.ValidationResult) model.AuditResult {
	return model.AuditResult{
		URL:         vr.URL,
		Path:        pathOf(vr.URL),
		Score:       vr.Score,
		Issues:      vr.Issues(),
		Title:       model.Deref(vr.Tags.Title),
		Description: model.Deref(vr.Tags.Description),
		Image:       model.Deref(vr.Tags.Image),
		Checks:      vr.Checks,
	}
}

// FailedResult 为校验抛错的页面构造 0 分记录。
func FailedResult(pageURL string) model.AuditResult {
	return model.AuditResult{
		URL:    pageURL,
		Path:   pathOf(pageURL),
		Score:  0,
		Issues: []string{FailedIssue},
	}
}

func pathOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}
