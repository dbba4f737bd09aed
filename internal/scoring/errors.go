package scoring

import (
	"errors"
	"fmt"
)

// ErrUnavailable matches every scoring failure via errors.Is.
var ErrUnavailable = errors.New("risk scoring unavailable")

// Reason categorizes why the scorer could not produce a result.
type Reason string

const (
	// ReasonTransport covers connection failures and timeouts.
	ReasonTransport Reason = "transport"
	// ReasonStatus means the scorer answered with a non-2xx status.
	ReasonStatus Reason = "status"
	// ReasonMalformed means the body did not match the expected shape.
	ReasonMalformed Reason = "malformed"
)

type UnavailableError struct {
	Reason     Reason
	Message    string
	StatusCode int // set for ReasonStatus
	Err        error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("risk scoring unavailable [%s]: %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("risk scoring unavailable [%s]: %s", e.Reason, e.Message)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func unavailable(reason Reason, message string, err error) *UnavailableError {
	return &UnavailableError{Reason: reason, Message: message, Err: err}
}

// ReasonOf returns the failure reason, or "" if err is not a scoring failure.
func ReasonOf(err error) Reason {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return ue.Reason
	}
	return ""
}
