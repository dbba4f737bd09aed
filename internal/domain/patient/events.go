package patient

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventCreated EventType = "patient.created"
	EventUpdated EventType = "patient.updated"
	EventDeleted EventType = "patient.deleted"
)

// RiskEvent is published after a patient write commits.
type RiskEvent struct {
	ID           string       `json:"event_id"`
	Type         EventType    `json:"type"`
	PatientID    int64        `json:"patient_id"`
	ClinicianID  int64        `json:"clinician_id"`
	RiskScore    float64      `json:"risk_score"`
	RiskCategory RiskCategory `json:"risk_category"`
	OccurredAt   time.Time    `json:"occurred_at"`
}

func newRiskEvent(t EventType, p *Patient, at time.Time) RiskEvent {
	return RiskEvent{
		ID:           uuid.New().String(),
		Type:         t,
		PatientID:    p.ID,
		ClinicianID:  p.ClinicianID,
		RiskScore:    p.RiskScore,
		RiskCategory: p.RiskCategory,
		OccurredAt:   at.UTC(),
	}
}
