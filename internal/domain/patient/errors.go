package patient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ehr/riskcare/internal/scoring"
)

var (
	ErrNotFound = errors.New("patient not found")
	// ErrConflict means the record changed between read and write.
	ErrConflict = errors.New("patient was modified concurrently")
)

// ValidationError carries every violated rule.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// ScoringUnavailableError means the workflow stopped before anything was
// written because the scorer failed.
type ScoringUnavailableError struct {
	Err error
}

func (e *ScoringUnavailableError) Error() string {
	return fmt.Sprintf("risk scoring unavailable: %v", e.Err)
}

func (e *ScoringUnavailableError) Unwrap() error { return e.Err }

// Reason exposes the scorer failure category.
func (e *ScoringUnavailableError) Reason() scoring.Reason {
	return scoring.ReasonOf(e.Err)
}

// PersistenceError wraps a store failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s patient: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
