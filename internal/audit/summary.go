package audit

import (
	"go-og-audit/internal/logx"
	"go-og-audit/internal/model"
)

// Summary 按得分分档统计页面数。
type Summary struct {
	Perfect   int // >= 90
	Good      int // 70..89
	NeedsWork int // < 70
}

// Summarize 统计各档页面数。
func Summarize(pages []model.AuditResult) Summary {
	var s Summary
	for _, p := range pages {
		switch {
		case p.Score >= 90:
			s.Perfect++
		case p.Score >= 70:
			s.Good++
		default:
			s.NeedsWork++
		}
	}
	return s
}

// Log 输出审计摘要，并列出需要改进的页面。
func (s Summary) Log(inv *model.OGInventory) {
	logx.Infof("审计完成：%s 页面=%d 平均分=%d", inv.BaseURL, inv.TotalPages, inv.AverageScore)
	logx.Infof("优秀(>=90)=%d 良好(70-89)=%d 待改进(<70)=%d", s.Perfect, s.Good, s.NeedsWork)
	for _, p := range inv.Pages {
		if p.Score < 70 {
			logx.Warnf("待改进：%s 得分=%d 问题=%v", p.Path, p.Score, p.Issues)
		}
	}
}
