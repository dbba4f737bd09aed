package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/riskcare/internal/platform/db"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `patient_id, clinician_id, age, sex, social_life,
	cholesterol, triglycerides, hdl, ldl, vldl,
	bp_systolic, bp_diastolic, hba1c, bmi, rbs, genetic_family_history,
	risk_score, risk_category, version, created_at, updated_at`

func (r *patientRepoPG) Insert(ctx context.Context, p *Patient) (int64, error) {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (
			clinician_id, age, sex, social_life,
			cholesterol, triglycerides, hdl, ldl, vldl,
			bp_systolic, bp_diastolic, hba1c, bmi, rbs, genetic_family_history,
			risk_score, risk_category
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING patient_id, version, created_at, updated_at`,
		p.ClinicianID, p.Age, p.Sex, p.SocialLife,
		p.Cholesterol, p.Triglycerides, p.HDL, p.LDL, p.VLDL,
		p.BPSystolic, p.BPDiastolic, p.HbA1c, p.BMI, p.RBS, p.GeneticFamilyHistory,
		p.RiskScore, string(p.RiskCategory),
	).Scan(&p.ID, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert patient: %w", err)
	}
	return p.ID, nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE patient_id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get patient %d: %w", id, err)
	}
	return p, nil
}

func (r *patientRepoPG) GetFiltered(ctx context.Context, q ListQuery) ([]*Patient, error) {
	sql := `SELECT ` + patientCols + ` FROM patients WHERE clinician_id = $1`
	args := []interface{}{q.OwnerID}
	if q.RiskLevel != "" {
		sql += ` AND risk_category = $2`
		args = append(args, string(q.RiskLevel))
	}
	sql += ` ORDER BY ` + q.OrderBy()

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	patients := make([]*Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}

func (r *patientRepoPG) UpdateByID(ctx context.Context, p *Patient, expectedVersion int64) error {
	q := r.conn(ctx)
	err := q.QueryRow(ctx, `
		UPDATE patients SET
			age = $3, sex = $4, social_life = $5,
			cholesterol = $6, triglycerides = $7, hdl = $8, ldl = $9, vldl = $10,
			bp_systolic = $11, bp_diastolic = $12, hba1c = $13, bmi = $14, rbs = $15,
			genetic_family_history = $16,
			risk_score = $17, risk_category = $18,
			version = version + 1, updated_at = NOW()
		WHERE patient_id = $1 AND version = $2
		RETURNING clinician_id, version, created_at, updated_at`,
		p.ID, expectedVersion,
		p.Age, p.Sex, p.SocialLife,
		p.Cholesterol, p.Triglycerides, p.HDL, p.LDL, p.VLDL,
		p.BPSystolic, p.BPDiastolic, p.HbA1c, p.BMI, p.RBS,
		p.GeneticFamilyHistory,
		p.RiskScore, string(p.RiskCategory),
	).Scan(&p.ClinicianID, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update patient %d: %w", p.ID, err)
	}

	// Zero rows: the row is either gone or at a different version.
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE patient_id = $1)`, p.ID).Scan(&exists); err != nil {
		return fmt.Errorf("update patient %d: %w", p.ID, err)
	}
	if exists {
		return ErrConflict
	}
	return ErrNotFound
}

func (r *patientRepoPG) DeleteByID(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `DELETE FROM patients WHERE patient_id = $1 RETURNING `+patientCols, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete patient %d: %w", id, err)
	}
	return p, nil
}

func (r *patientRepoPG) CountByCategory(ctx context.Context, ownerID int64) (map[RiskCategory]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT risk_category, COUNT(*) FROM patients
		WHERE clinician_id = $1
		GROUP BY risk_category`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}
	defer rows.Close()

	counts := make(map[RiskCategory]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[RiskCategory(category)] = n
	}
	return counts, rows.Err()
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var category string
	err := row.Scan(
		&p.ID, &p.ClinicianID, &p.Age, &p.Sex, &p.SocialLife,
		&p.Cholesterol, &p.Triglycerides, &p.HDL, &p.LDL, &p.VLDL,
		&p.BPSystolic, &p.BPDiastolic, &p.HbA1c, &p.BMI, &p.RBS, &p.GeneticFamilyHistory,
		&p.RiskScore, &category, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.RiskCategory = RiskCategory(category)
	return &p, nil
}
