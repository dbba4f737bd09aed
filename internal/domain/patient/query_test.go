package patient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortByRisk, ParseSortKey("risk"))
	assert.Equal(t, SortNewest, ParseSortKey(""))
	assert.Equal(t, SortNewest, ParseSortKey("newest"))
	assert.Equal(t, SortNewest, ParseSortKey("age"))
}

func TestListQuery_OrderBy(t *testing.T) {
	assert.Equal(t, "risk_score DESC, patient_id DESC", ListQuery{Sort: SortByRisk}.OrderBy())
	assert.Equal(t, "patient_id DESC", ListQuery{Sort: SortNewest}.OrderBy())
	assert.Equal(t, "patient_id DESC", ListQuery{}.OrderBy())
}

func TestNewListQuery_NormalizesRiskLevel(t *testing.T) {
	q := NewListQuery(7, "High", "risk")
	assert.Equal(t, int64(7), q.OwnerID)
	assert.Equal(t, RiskHigh, q.RiskLevel)
	assert.Equal(t, SortByRisk, q.Sort)

	assert.Equal(t, RiskCategory(""), NewListQuery(7, "", "").RiskLevel)
}

func fixturePatients() []*Patient {
	return []*Patient{
		{ID: 1, ClinicianID: 7, RiskScore: 40, RiskCategory: RiskMedium},
		{ID: 2, ClinicianID: 7, RiskScore: 82.4, RiskCategory: RiskHigh},
		{ID: 3, ClinicianID: 7, RiskScore: 40, RiskCategory: RiskMedium},
		{ID: 4, ClinicianID: 8, RiskScore: 99, RiskCategory: RiskHigh},
		{ID: 5, ClinicianID: 7, RiskScore: 12, RiskCategory: RiskLow},
		{ID: 6, ClinicianID: 7, RiskScore: 82.4, RiskCategory: RiskHigh},
	}
}

func ids(ps []*Patient) []int64 {
	out := make([]int64, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestApply_NewestFirst(t *testing.T) {
	got := NewListQuery(7, "", "").Apply(fixturePatients())
	assert.Equal(t, []int64{6, 5, 3, 2, 1}, ids(got))
}

func TestApply_RiskDescendingWithIDTieBreak(t *testing.T) {
	got := NewListQuery(7, "", "risk").Apply(fixturePatients())
	assert.Equal(t, []int64{6, 2, 3, 1, 5}, ids(got))

	for i := 1; i < len(got); i++ {
		a, b := got[i-1], got[i]
		assert.GreaterOrEqual(t, a.RiskScore, b.RiskScore)
		if a.RiskScore == b.RiskScore {
			assert.Greater(t, a.ID, b.ID)
		}
	}
}

func TestApply_FilterByRiskLevel(t *testing.T) {
	got := NewListQuery(7, "medium", "").Apply(fixturePatients())
	assert.Equal(t, []int64{3, 1}, ids(got))

	assert.Empty(t, NewListQuery(7, "critical", "").Apply(fixturePatients()))
}

func TestApply_ScopedToOwner(t *testing.T) {
	got := NewListQuery(8, "", "risk").Apply(fixturePatients())
	assert.Equal(t, []int64{4}, ids(got))
	assert.Empty(t, NewListQuery(99, "", "").Apply(fixturePatients()))
}

func TestApply_IndependentOfInputOrder(t *testing.T) {
	q := NewListQuery(7, "", "risk")
	forward := fixturePatients()
	reversed := fixturePatients()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	assert.Equal(t, ids(q.Apply(forward)), ids(q.Apply(reversed)))
}
