package report

import (
	"github.com/samber/lo"

	"github.com/nao1215/sitecheck/internal/model"
)

// Summary aggregates a run.
type Summary struct {
	Total   int `json:"total"`
	Online  int `json:"online"`
	Offline int `json:"offline"`

	// Failed counts sites whose pipeline stopped early.
	Failed int `json:"failed"`

	// AverageScore is the mean score of sites that completed, 0 when none did.
	AverageScore float64 `json:"average_score"`
}

// Summarize computes the run summary.
func Summarize(reports []model.SiteReport) Summary {
	online := lo.CountBy(reports, func(r model.SiteReport) bool { return r.Reachability.Online })
	completed := lo.Reject(reports, func(r model.SiteReport, _ int) bool { return r.Failed() })

	s := Summary{
		Total:   len(reports),
		Online:  online,
		Offline: len(reports) - online,
		Failed:  len(reports) - len(completed),
	}
	if len(completed) > 0 {
		scores := lo.Map(completed, func(r model.SiteReport, _ int) int { return r.Score })
		s.AverageScore = float64(lo.Sum(scores)) / float64(len(completed))
	}
	return s
}
