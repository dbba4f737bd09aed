package patient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedPatient(clinician int64, score float64, category RiskCategory) *Patient {
	return &Patient{
		ClinicianID:  clinician,
		Age:          40,
		Sex:          "female",
		SocialLife:   "village",
		Measurements: Measurements{BMI: floatPtr(24)},
		RiskScore:    score,
		RiskCategory: category,
	}
}

func TestMemoryRepo_InsertAssignsIncreasingIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()

	id1, err := repo.Insert(ctx, storedPatient(7, 10, RiskLow))
	require.NoError(t, err)
	id2, err := repo.Insert(ctx, storedPatient(7, 20, RiskLow))
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	_, err = repo.DeleteByID(ctx, id2)
	require.NoError(t, err)

	id3, err := repo.Insert(ctx, storedPatient(7, 30, RiskLow))
	require.NoError(t, err)
	assert.Greater(t, id3, id2, "ids are never reused")
}

func TestMemoryRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()

	p := storedPatient(7, 10, RiskLow)
	id, err := repo.Insert(ctx, p)
	require.NoError(t, err)

	*p.BMI = 99
	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 24.0, *got.BMI)

	*got.BMI = 50
	again, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 24.0, *again.BMI)
}

func TestMemoryRepo_UpdateVersioning(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()

	id, err := repo.Insert(ctx, storedPatient(7, 10, RiskLow))
	require.NoError(t, err)

	upd := storedPatient(99, 80, RiskHigh)
	upd.ID = id
	require.NoError(t, repo.UpdateByID(ctx, upd, 1))
	assert.Equal(t, int64(2), upd.Version)
	assert.Equal(t, int64(7), upd.ClinicianID, "owner is never changed")

	stale := storedPatient(7, 50, RiskMedium)
	stale.ID = id
	assert.ErrorIs(t, repo.UpdateByID(ctx, stale, 1), ErrConflict)

	missing := storedPatient(7, 50, RiskMedium)
	missing.ID = 404
	assert.ErrorIs(t, repo.UpdateByID(ctx, missing, 1), ErrNotFound)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, RiskHigh, got.RiskCategory)
	assert.Equal(t, int64(2), got.Version)
}

func TestMemoryRepo_DeleteMissing(t *testing.T) {
	_, err := NewMemoryRepo().DeleteByID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepo_GetFilteredAndCounts(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	for _, p := range []*Patient{
		storedPatient(7, 82.4, RiskHigh),
		storedPatient(7, 15, RiskLow),
		storedPatient(7, 82.4, RiskHigh),
		storedPatient(8, 55, RiskMedium),
	} {
		_, err := repo.Insert(ctx, p)
		require.NoError(t, err)
	}

	got, err := repo.GetFiltered(ctx, NewListQuery(7, "", "risk"))
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, ids(got))

	again, err := repo.GetFiltered(ctx, NewListQuery(7, "", "risk"))
	require.NoError(t, err)
	assert.Equal(t, ids(got), ids(again))

	counts, err := repo.CountByCategory(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, map[RiskCategory]int{RiskHigh: 2, RiskLow: 1}, counts)
}

func TestNewSummary(t *testing.T) {
	s := newSummary(7, map[RiskCategory]int{RiskHigh: 2, RiskLow: 1, "unknown": 1})
	assert.Equal(t, &Summary{ClinicianID: 7, Total: 4, High: 2, Medium: 0, Low: 1}, s)
}
