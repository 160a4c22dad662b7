// 包 score 将一组检查项按权重折算为 0–100 的整数分。
// 权重表作为不可变值传入 Calculator，计算过程是纯函数。
package score

import (
	"math"

	"go-og-audit/internal/model"
)

// 检查项名称，同时作为权重表的键。
const (
	CheckURLAccessible   = "URL Accessible"
	CheckTitle           = "Title"
	CheckDescription     = "Description"
	CheckImage           = "Image"
	CheckImageURL        = "Image URL"
	CheckImageAccessible = "Image Accessible"
	CheckImageFormat     = "Image Format"
	CheckImageSize       = "Image Size"
	CheckImageDimensions = "Image Dimensions"
	CheckCanonicalURL    = "Canonical URL"
	CheckTwitterCard     = "Twitter Card"
)

// DefaultWeight 为未登记检查项的权重。
const DefaultWeight = 5

// Weights 为检查项名称到权重的映射，只读使用。
type Weights struct {
	table    map[string]int
	fallback int
}

// DefaultWeights 返回内置权重表的副本（合计 105）。
func DefaultWeights() Weights {
	return NewWeights(map[string]int{
		CheckTitle:           15,
		CheckDescription:     15,
		CheckImage:           20,
		CheckImageURL:        5,
		CheckImageAccessible: 15,
		CheckImageFormat:     5,
		CheckImageSize:       10,
		CheckImageDimensions: 10,
		CheckCanonicalURL:    5,
		CheckTwitterCard:     5,
	}, DefaultWeight)
}

// NewWeights 复制传入的表，调用方后续修改不影响结果。
func NewWeights(table map[string]int, fallback int) Weights {
	cp := make(map[string]int, len(table))
	for k, v := range table {
		cp[k] = v
	}
	return Weights{table: cp, fallback: fallback}
}

// Of 返回检查项权重。
func (w Weights) Of(name string) int {
	if v, ok := w.table[name]; ok {
		return v
	}
	return w.fallback
}

// Calculator 按权重计算得分。
type Calculator struct {
	Weights Weights
}

// New 使用给定权重创建 Calculator。
func New(w Weights) Calculator { return Calculator{Weights: w} }

// Score 仅以实际出现的检查项为分母：round(100 * earned / possible)。
func (c Calculator) Score(checks []model.ValidationCheck) int {
	var earned, possible float64
	for _, ch := range checks {
		w := float64(c.Weights.Of(ch.Name))
		possible += w
		earned += w * ch.Status.Credit()
	}
	if possible <= 0 {
		return 0
	}
	s := int(math.Round(100 * earned / possible))
	if s < 0 {
		return 0
	}
	if s > model.MaxScore {
		return model.MaxScore
	}
	return s
}
