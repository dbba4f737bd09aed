package patient

import (
	"context"
	"sync"
	"time"
)

// memoryRepo keeps patients in process memory. Ids come from a counter and
// are never reused, matching the database sequence.
type memoryRepo struct {
	mu       sync.RWMutex
	patients map[int64]*Patient
	lastID   int64
	now      func() time.Time
}

func NewMemoryRepo() Repository {
	return &memoryRepo{
		patients: make(map[int64]*Patient),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *memoryRepo) Insert(_ context.Context, p *Patient) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	now := r.now()
	p.ID = r.lastID
	p.Version = 1
	p.CreatedAt = now
	p.UpdatedAt = now
	r.patients[p.ID] = clonePatient(p)
	return p.ID, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePatient(p), nil
}

func (r *memoryRepo) GetFiltered(_ context.Context, q ListQuery) ([]*Patient, error) {
	r.mu.RLock()
	all := make([]*Patient, 0, len(r.patients))
	for _, p := range r.patients {
		all = append(all, clonePatient(p))
	}
	r.mu.RUnlock()

	return q.Apply(all), nil
}

func (r *memoryRepo) UpdateByID(_ context.Context, p *Patient, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.patients[p.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != expectedVersion {
		return ErrConflict
	}

	p.ClinicianID = stored.ClinicianID
	p.CreatedAt = stored.CreatedAt
	p.Version = stored.Version + 1
	p.UpdatedAt = r.now()
	r.patients[p.ID] = clonePatient(p)
	return nil
}

func (r *memoryRepo) DeleteByID(_ context.Context, id int64) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.patients, id)
	return p, nil
}

func (r *memoryRepo) CountByCategory(_ context.Context, ownerID int64) (map[RiskCategory]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[RiskCategory]int)
	for _, p := range r.patients {
		if p.ClinicianID == ownerID {
			counts[p.RiskCategory]++
		}
	}
	return counts, nil
}

// clonePatient copies p including its measurement pointers, so callers can
// never mutate stored state.
func clonePatient(p *Patient) *Patient {
	c := *p
	m := &c.Measurements
	m.Cholesterol = cloneFloat(m.Cholesterol)
	m.Triglycerides = cloneFloat(m.Triglycerides)
	m.HDL = cloneFloat(m.HDL)
	m.LDL = cloneFloat(m.LDL)
	m.VLDL = cloneFloat(m.VLDL)
	m.BPSystolic = cloneFloat(m.BPSystolic)
	m.BPDiastolic = cloneFloat(m.BPDiastolic)
	m.HbA1c = cloneFloat(m.HbA1c)
	m.BMI = cloneFloat(m.BMI)
	m.RBS = cloneFloat(m.RBS)
	if m.GeneticFamilyHistory != nil {
		v := *m.GeneticFamilyHistory
		m.GeneticFamilyHistory = &v
	}
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
