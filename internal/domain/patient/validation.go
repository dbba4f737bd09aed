package patient

import (
	"strconv"
	"strings"
)

// RangeRule is a closed-interval check on one optional measurement.
type RangeRule struct {
	Field string
	Label string
	Min   float64
	Max   float64
	Unit  string // appended verbatim, including any leading space
	Value func(m Measurements) *float64
}

func (r RangeRule) message() string {
	return r.Label + " must be between " + formatBound(r.Min) + " and " + formatBound(r.Max) + r.Unit
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RangeRules are applied in order to every create and update. Rows already
// stored are not re-checked when these change.
var RangeRules = []RangeRule{
	{"cholesterol", "Cholesterol", 0, 500, " mg/dL", func(m Measurements) *float64 { return m.Cholesterol }},
	{"triglycerides", "Triglycerides", 0, 1000, " mg/dL", func(m Measurements) *float64 { return m.Triglycerides }},
	{"hdl", "HDL", 0, 100, " mg/dL", func(m Measurements) *float64 { return m.HDL }},
	{"ldl", "LDL", 0, 300, " mg/dL", func(m Measurements) *float64 { return m.LDL }},
	{"vldl", "VLDL", 0, 100, " mg/dL", func(m Measurements) *float64 { return m.VLDL }},
	{"bp_systolic", "Systolic BP", 50, 250, " mmHg", func(m Measurements) *float64 { return m.BPSystolic }},
	{"bp_diastolic", "Diastolic BP", 30, 150, " mmHg", func(m Measurements) *float64 { return m.BPDiastolic }},
	{"hba1c", "HbA1c", 0, 20, "%", func(m Measurements) *float64 { return m.HbA1c }},
	{"bmi", "BMI", 10, 60, "", func(m Measurements) *float64 { return m.BMI }},
	{"rbs", "Random Blood Sugar", 0, 600, " mg/dL", func(m Measurements) *float64 { return m.RBS }},
}

const (
	minAge = 0
	maxAge = 120
)

var (
	allowedSex        = map[string]bool{"male": true, "female": true}
	allowedSocialLife = map[string]bool{"city": true, "village": true}
)

// Validate returns every rule the input violates, in a stable order. An
// empty result means the input is acceptable. Enum values are compared
// without trimming; call Normalize first so padded values pass and are
// stored in the form that was checked.
func Validate(in PatientInput) []string {
	var violations []string

	switch {
	case in.Age == nil:
		violations = append(violations, "Age is required")
	case *in.Age < minAge || *in.Age > maxAge:
		violations = append(violations, "Age must be between 0 and 120 years")
	}

	switch {
	case strings.TrimSpace(in.Sex) == "":
		violations = append(violations, "Sex is required")
	case !allowedSex[strings.ToLower(in.Sex)]:
		violations = append(violations, "Sex must be 'male' or 'female'")
	}

	switch {
	case strings.TrimSpace(in.SocialLife) == "":
		violations = append(violations, "Social life is required")
	case !allowedSocialLife[strings.ToLower(in.SocialLife)]:
		violations = append(violations, "Social life must be 'city' or 'village'")
	}

	if in.ClinicianID <= 0 {
		violations = append(violations, "Clinician ID is required")
	}

	for _, rule := range RangeRules {
		v := rule.Value(in.Measurements)
		if v == nil {
			continue
		}
		if *v < rule.Min || *v > rule.Max {
			violations = append(violations, rule.message())
		}
	}

	return violations
}
