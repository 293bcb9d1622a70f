package companion

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationRequired means no caller identity was presented.
	ErrAuthenticationRequired = errors.New("companion: authentication required")
	// ErrForbidden means the body's userId does not match the caller.
	ErrForbidden = errors.New("companion: user id does not match authenticated user")
	// ErrInvalidMessage means the body is malformed or carries no message text.
	ErrInvalidMessage = errors.New("companion: message is required and must be a non-empty string")
	// ErrInvalidHistoryEntry marks a history turn with an unknown role or no content.
	ErrInvalidHistoryEntry = errors.New("companion: history entry needs role user|assistant and content")
)

// UpstreamServiceError is a non-success response (or transport failure) from
// the completion provider after any permitted retry. StatusCode is 0 when no
// response was received.
type UpstreamServiceError struct {
	StatusCode int
	Body       string
	Model      string
	Retried    bool
	Err        error
}

func (e *UpstreamServiceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("companion: provider unreachable (model %s): %v", e.Model, e.Err)
	}
	return fmt.Sprintf("companion: provider error (%d, model %s): %s", e.StatusCode, e.Model, e.Body)
}

func (e *UpstreamServiceError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed catalog read or audit write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("companion: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Outcome is the typed result of a best-effort step.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeDegraded Outcome = "degraded"
	OutcomeFailed   Outcome = "failed"
	OutcomeSkipped  Outcome = "skipped"
)
