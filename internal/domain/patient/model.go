package patient

import (
	"strings"
	"time"

	"github.com/ehr/riskcare/internal/scoring"
)

type RiskCategory string

const (
	RiskLow    RiskCategory = "low"
	RiskMedium RiskCategory = "medium"
	RiskHigh   RiskCategory = "high"
)

// RiskCategories lists every category in ascending severity.
var RiskCategories = []RiskCategory{RiskLow, RiskMedium, RiskHigh}

// ParseRiskCategory accepts any casing of low, medium or high.
func ParseRiskCategory(s string) (RiskCategory, bool) {
	c := RiskCategory(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case RiskLow, RiskMedium, RiskHigh:
		return c, true
	}
	return "", false
}

// Measurements are the optional clinical values. Nil means not recorded.
type Measurements struct {
	Cholesterol          *float64 `json:"cholesterol"`
	Triglycerides        *float64 `json:"triglycerides"`
	HDL                  *float64 `json:"hdl"`
	LDL                  *float64 `json:"ldl"`
	VLDL                 *float64 `json:"vldl"`
	BPSystolic           *float64 `json:"bp_systolic"`
	BPDiastolic          *float64 `json:"bp_diastolic"`
	HbA1c                *float64 `json:"hba1c"`
	BMI                  *float64 `json:"bmi"`
	RBS                  *float64 `json:"rbs"`
	GeneticFamilyHistory *int     `json:"genetic_family_history"`
}

// PatientInput is what a client submits on create and update. It carries no
// identity, score or version; those are assigned by the service and store.
type PatientInput struct {
	ClinicianID int64  `json:"clinician_id"`
	Age         *int   `json:"age"`
	Sex         string `json:"sex"`
	SocialLife  string `json:"social_life"`
	Measurements
}

// Normalize trims surrounding whitespace from the enum fields. Casing is
// kept as submitted.
func (in PatientInput) Normalize() PatientInput {
	in.Sex = strings.TrimSpace(in.Sex)
	in.SocialLife = strings.TrimSpace(in.SocialLife)
	return in
}

// Features extracts the scorer payload. Call only on validated input.
func (in PatientInput) Features() scoring.Features {
	var age int
	if in.Age != nil {
		age = *in.Age
	}
	return scoring.Features{
		Age:         age,
		Sex:         in.Sex,
		HbA1c:       in.HbA1c,
		BMI:         in.BMI,
		BPSystolic:  in.BPSystolic,
		BPDiastolic: in.BPDiastolic,
		RBS:         in.RBS,
	}
}

// Patient is the stored record.
type Patient struct {
	ID          int64  `json:"patient_id"`
	ClinicianID int64  `json:"clinician_id"`
	Age         int    `json:"age"`
	Sex         string `json:"sex"`
	SocialLife  string `json:"social_life"`
	Measurements

	RiskScore    float64      `json:"risk_score"`
	RiskCategory RiskCategory `json:"risk_category"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// newPatient merges validated input with one scoring result. It is the only
// place derived fields are attached.
func newPatient(in PatientInput, res scoring.Result) *Patient {
	return &Patient{
		ClinicianID:  in.ClinicianID,
		Age:          *in.Age,
		Sex:          in.Sex,
		SocialLife:   in.SocialLife,
		Measurements: in.Measurements,
		RiskScore:    res.RiskScore,
		RiskCategory: RiskCategory(res.RiskCategory),
	}
}
