package patient

//go:generate mockgen -source=repo.go -destination=mocks/repo_mock.go -package=mocks Repository

import (
	"context"
)

// Repository persists patients. Implementations return ErrNotFound when the
// addressed row does not exist and ErrConflict when a versioned update loses
// a race.
type Repository interface {
	// Insert stores p and fills its ID, Version and timestamps.
	Insert(ctx context.Context, p *Patient) (int64, error)
	GetByID(ctx context.Context, id int64) (*Patient, error)
	GetFiltered(ctx context.Context, q ListQuery) ([]*Patient, error)
	// UpdateByID replaces every clinical and derived field of p.ID in one
	// statement, provided the stored version still equals expectedVersion.
	// ClinicianID is never changed.
	UpdateByID(ctx context.Context, p *Patient, expectedVersion int64) error
	// DeleteByID removes the row and returns what was deleted.
	DeleteByID(ctx context.Context, id int64) (*Patient, error)
	CountByCategory(ctx context.Context, ownerID int64) (map[RiskCategory]int, error)
}
