package patient

//go:generate mockgen -source=summary.go -destination=mocks/summary_mock.go -package=mocks SummaryCache

import (
	"context"
)

// Summary is the per-category patient count for one clinician.
type Summary struct {
	ClinicianID int64 `json:"clinician_id"`
	Total       int   `json:"total"`
	High        int   `json:"high"`
	Medium      int   `json:"medium"`
	Low         int   `json:"low"`
}

func newSummary(clinicianID int64, counts map[RiskCategory]int) *Summary {
	s := &Summary{ClinicianID: clinicianID}
	for category, n := range counts {
		s.Total += n
		switch category {
		case RiskHigh:
			s.High = n
		case RiskMedium:
			s.Medium = n
		case RiskLow:
			s.Low = n
		}
	}
	return s
}

// SummaryCache stores summaries between writes. Entries are keyed by a
// per-clinician generation that Invalidate advances, so a summary computed
// before a write can never be served after it.
type SummaryCache interface {
	// Get returns the cached summary, or nil on a miss, together with the
	// current generation to pass to Set.
	Get(ctx context.Context, clinicianID int64) (*Summary, int64, error)
	// Set stores s under gen. Once Invalidate has run, gen is unreachable.
	Set(ctx context.Context, s *Summary, gen int64) error
	Invalidate(ctx context.Context, clinicianID int64) error
}
