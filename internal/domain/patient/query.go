package patient

import (
	"slices"
	"strings"
)

type SortKey string

const (
	SortNewest SortKey = "newest"
	SortByRisk SortKey = "risk"
)

// ParseSortKey maps the sortBy query value. Anything but "risk" sorts newest
// first.
func ParseSortKey(s string) SortKey {
	if strings.TrimSpace(s) == string(SortByRisk) {
		return SortByRisk
	}
	return SortNewest
}

// ListQuery selects one clinician's patients in a deterministic total order.
// It does not paginate.
type ListQuery struct {
	OwnerID   int64
	RiskLevel RiskCategory // empty means every category
	Sort      SortKey
}

// NewListQuery builds a query from raw request values. riskLevel is compared
// exactly after lower-casing, so an unknown level matches nothing.
func NewListQuery(ownerID int64, riskLevel, sortBy string) ListQuery {
	return ListQuery{
		OwnerID:   ownerID,
		RiskLevel: RiskCategory(strings.ToLower(strings.TrimSpace(riskLevel))),
		Sort:      ParseSortKey(sortBy),
	}
}

// OrderBy is the SQL ordering for the query. patient_id DESC is always the
// final key so rows with equal scores keep a stable order.
func (q ListQuery) OrderBy() string {
	if q.Sort == SortByRisk {
		return "risk_score DESC, patient_id DESC"
	}
	return "patient_id DESC"
}

// Less reports whether a sorts before b, matching OrderBy.
func (q ListQuery) Less(a, b *Patient) bool {
	if q.Sort == SortByRisk && a.RiskScore != b.RiskScore {
		return a.RiskScore > b.RiskScore
	}
	return a.ID > b.ID
}

// Matches reports whether p belongs in the result set.
func (q ListQuery) Matches(p *Patient) bool {
	if p.ClinicianID != q.OwnerID {
		return false
	}
	return q.RiskLevel == "" || p.RiskCategory == q.RiskLevel
}

// Apply filters and orders patients in memory.
func (q ListQuery) Apply(patients []*Patient) []*Patient {
	out := make([]*Patient, 0, len(patients))
	for _, p := range patients {
		if q.Matches(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b *Patient) int {
		switch {
		case q.Less(a, b):
			return -1
		case q.Less(b, a):
			return 1
		}
		return 0
	})
	return out
}
