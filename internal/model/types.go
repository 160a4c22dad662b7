// 包 model 定义校验与审计的数据模型（标签集合/检查项/校验结果/清单）。
package model

import (
	"math"
	"time"
)

// OGTagSet 为页面上识别到的社交元数据；nil 表示标签缺失，与空字符串区分。
type OGTagSet struct {
	Title              *string `json:"title,omitempty"`
	Description        *string `json:"description,omitempty"`
	Image              *string `json:"image,omitempty"`
	URL                *string `json:"url,omitempty"`
	Type               *string `json:"type,omitempty"`
	SiteName           *string `json:"siteName,omitempty"`
	TwitterCard        *string `json:"twitterCard,omitempty"`
	TwitterTitle       *string `json:"twitterTitle,omitempty"`
	TwitterDescription *string `json:"twitterDescription,omitempty"`
	TwitterImage       *string `json:"twitterImage,omitempty"`
}

// Status 为检查结论。
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Credit 返回状态对应的得分系数：pass=1、warn=0.5、fail=0。
func (s Status) Credit() float64 {
	switch s {
	case StatusPass:
		return 1
	case StatusWarn:
		return 0.5
	default:
		return 0
	}
}

// ValidationCheck 为单个检查项。Value 可为字符串或数字。
type ValidationCheck struct {
	Name           string `json:"name"`
	Status         Status `json:"status"`
	Message        string `json:"message"`
	Value          any    `json:"value,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

// MaxScore 为满分。
const MaxScore = 100

// ValidationResult 为单页校验结果。
type ValidationResult struct {
	URL      string            `json:"url"`
	Score    int               `json:"score"`
	MaxScore int               `json:"maxScore"`
	Checks   []ValidationCheck `json:"checks"`
	Tags     OGTagSet          `json:"-"`
}

// Issues 返回所有非 pass 检查项的名称（保持原顺序）。
func (r ValidationResult) Issues() []string {
	out := []string{}
	for _, c := range r.Checks {
		if c.Status != StatusPass {
			out = append(out, c.Name)
		}
	}
	return out
}

// AuditResult 为清单中的单页记录，创建后不再修改。
type AuditResult struct {
	URL         string            `json:"url"`
	Path        string            `json:"path"`
	Score       int               `json:"score"`
	Issues      []string          `json:"issues"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Image       string            `json:"image,omitempty"`
	Checks      []ValidationCheck `json:"checks,omitempty"`
}

// OGInventory 为持久化的站点清单；每次变更后整体写回。
type OGInventory struct {
	BaseURL      string        `json:"baseUrl"`
	AuditedAt    time.Time     `json:"auditedAt"`
	TotalPages   int           `json:"totalPages"`
	AverageScore int           `json:"averageScore"`
	Pages        []AuditResult `json:"pages"`
}

// Recompute 依据 Pages 重新计算 TotalPages 与 AverageScore；空清单平均分记为 0。
func (inv *OGInventory) Recompute() {
	inv.TotalPages = len(inv.Pages)
	inv.AverageScore = AverageScore(inv.Pages)
}

// AverageScore 计算四舍五入后的平均分。
func AverageScore(pages []AuditResult) int {
	if len(pages) == 0 {
		return 0
	}
	sum := 0
	for _, p := range pages {
		sum += p.Score
	}
	return int(math.Round(float64(sum) / float64(len(pages))))
}

// Ptr 返回字符串指针，便于构造 OGTagSet。
func Ptr(s string) *string { return &s }

// Deref 取值，nil 返回空串。
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
