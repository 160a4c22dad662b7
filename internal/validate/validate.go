// 包 validate 负责单页校验：抓取页面 → 抽取标签 → 探测预览图 → 计分。
// 单页校验与整站审计复用同一个 Validator。
package validate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"go-og-audit/internal/fetch"
	"go-og-audit/internal/logx"
	"go-og-audit/internal/metatags"
	"go-og-audit/internal/metrics"
	"go-og-audit/internal/model"
	"go-og-audit/internal/score"
)

// Fetcher 抓取 URL 并返回完整响应；非 2xx 应返回错误。
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Response, error)
}

// ErrInvalidURL 表示待校验地址不是绝对 http(s) URL。
var ErrInvalidURL = errors.New("invalid url")

// Validator 持有抓取器、标签扫描器与计分器；无可变状态，可并发使用。
type Validator struct {
	fetcher Fetcher
	scanner metatags.Scanner
	calc    score.Calculator
}

// New 创建 Validator；scanner 为 nil 时使用正则扫描器。
func New(f Fetcher, s metatags.Scanner, calc score.Calculator) *Validator {
	if s == nil {
		s = metatags.NewPatternScanner()
	}
	return &Validator{fetcher: f, scanner: s, calc: calc}
}

// Validate 校验单个页面。页面不可达时返回仅含 "URL Accessible" 的 0 分结果；
// 只有地址非法或 ctx 被取消时返回 error。
func (v *Validator) Validate(ctx context.Context, pageURL string) (model.ValidationResult, error) {
	res := model.ValidationResult{URL: pageURL, MaxScore: model.MaxScore}
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		metrics.Validations.WithLabelValues("error").Inc()
		return res, fmt.Errorf("%w: %q", ErrInvalidURL, pageURL)
	}

	page, err := v.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			metrics.Validations.WithLabelValues("error").Inc()
			return res, fmt.Errorf("validate %s: %w", pageURL, ctxErr)
		}
		logx.Debugf("页面不可访问：%s 错误=%v", pageURL, err)
		res.Checks = []model.ValidationCheck{{
			Name:           score.CheckURLAccessible,
			Status:         model.StatusFail,
			Message:        fmt.Sprintf("Could not fetch page: %v", err),
			Recommendation: "Make sure the URL is publicly reachable and returns HTTP 2xx.",
		}}
		res.Score = 0
		metrics.Validations.WithLabelValues("unreachable").Inc()
		observeChecks(res.Checks)
		return res, nil
	}

	tags := v.scanner.ScanMetaTags(metatags.Decode(page.Body, page.ContentType))
	res.Tags = tags

	checks := []model.ValidationCheck{
		lengthCheck(score.CheckTitle, "title", tags.Title, titleLimits),
		lengthCheck(score.CheckDescription, "description", tags.Description, descriptionLimits),
	}
	checks = append(checks, v.imageChecks(ctx, tags.Image, u)...)
	checks = append(checks, canonicalCheck(tags.URL), twitterCardCheck(tags.TwitterCard))
	if ctxErr := ctx.Err(); ctxErr != nil {
		metrics.Validations.WithLabelValues("error").Inc()
		return res, fmt.Errorf("validate %s: %w", pageURL, ctxErr)
	}

	res.Checks = checks
	res.Score = v.calc.Score(checks)
	metrics.Validations.WithLabelValues("scored").Inc()
	metrics.PageScore.Observe(float64(res.Score))
	observeChecks(checks)
	logx.Debugf("校验完成：%s 得分=%d 检查项=%d", pageURL, res.Score, len(checks))
	return res, nil
}

func observeChecks(checks []model.ValidationCheck) {
	for _, c := range checks {
		metrics.CheckStatus.WithLabelValues(c.Name, string(c.Status)).Inc()
	}
}

// limits 为长度阈值：[Min, Max] 之外 warn，[OptMin, OptMax] 之外给出建议。
type limits struct {
	Min, Max       int
	OptMin, OptMax int
}

var (
	titleLimits       = limits{Min: 30, Max: 90, OptMin: 50, OptMax: 60}
	descriptionLimits = limits{Min: 70, Max: 200, OptMin: 110, OptMax: 160}
)

// lengthCheck 实现标题/描述的长度策略（按 Unicode 字符计数）。
func lengthCheck(name, field string, value *string, l limits) model.ValidationCheck {
	if value == nil || *value == "" {
		return model.ValidationCheck{
			Name:           name,
			Status:         model.StatusFail,
			Message:        fmt.Sprintf("Missing og:%s tag", field),
			Recommendation: fmt.Sprintf("Add an og:%s meta tag (%d-%d characters).", field, l.OptMin, l.OptMax),
		}
	}
	n := utf8.RuneCountInString(*value)
	switch {
	case n < l.Min:
		return model.ValidationCheck{
			Name:           name,
			Status:         model.StatusWarn,
			Message:        fmt.Sprintf("og:%s is too short (%d characters)", field, n),
			Value:          n,
			Recommendation: fmt.Sprintf("Expand the %s to at least %d characters, ideally %d-%d.", field, l.Min, l.OptMin, l.OptMax),
		}
	case n > l.Max:
		return model.ValidationCheck{
			Name:           name,
			Status:         model.StatusWarn,
			Message:        fmt.Sprintf("og:%s is too long (%d characters)", field, n),
			Value:          n,
			Recommendation: fmt.Sprintf("Shorten the %s to at most %d characters, ideally %d-%d.", field, l.Max, l.OptMin, l.OptMax),
		}
	}
	c := model.ValidationCheck{
		Name:    name,
		Status:  model.StatusPass,
		Message: fmt.Sprintf("og:%s is present (%d characters)", field, n),
		Value:   n,
	}
	if n < l.OptMin || n > l.OptMax {
		c.Recommendation = fmt.Sprintf("Optimal %s length is %d-%d characters.", field, l.OptMin, l.OptMax)
	}
	return c
}

func canonicalCheck(value *string) model.ValidationCheck {
	if value == nil || *value == "" {
		return model.ValidationCheck{
			Name:           score.CheckCanonicalURL,
			Status:         model.StatusWarn,
			Message:        "Missing og:url tag",
			Recommendation: "Add an og:url tag with the canonical URL of the page.",
		}
	}
	return model.ValidationCheck{
		Name:    score.CheckCanonicalURL,
		Status:  model.StatusPass,
		Message: "og:url is present",
		Value:   *value,
	}
}

var twitterCards = map[string]bool{
	"summary":             true,
	"summary_large_image": true,
	"app":                 true,
	"player":              true,
}

func twitterCardCheck(value *string) model.ValidationCheck {
	if value == nil || *value == "" {
		return model.ValidationCheck{
			Name:           score.CheckTwitterCard,
			Status:         model.StatusWarn,
			Message:        "Missing twitter:card tag",
			Recommendation: `Add <meta name="twitter:card" content="summary_large_image">.`,
		}
	}
	card := strings.ToLower(strings.TrimSpace(*value))
	if !twitterCards[card] {
		return model.ValidationCheck{
			Name:           score.CheckTwitterCard,
			Status:         model.StatusWarn,
			Message:        fmt.Sprintf("Unrecognized twitter:card value %q", *value),
			Value:          *value,
			Recommendation: "Use one of summary, summary_large_image, app or player.",
		}
	}
	c := model.ValidationCheck{
		Name:    score.CheckTwitterCard,
		Status:  model.StatusPass,
		Message: fmt.Sprintf("twitter:card is %s", card),
		Value:   *value,
	}
	if card == "summary" {
		c.Recommendation = "Use summary_large_image to show a large preview image."
	}
	return c
}
