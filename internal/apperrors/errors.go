package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the request collides with concurrent work or the current state of a resource.
var ErrConflict = errors.New("conflict")

// ErrForbidden indicates that the caller lacks the privilege level required for the operation.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthorized indicates that the caller could not be identified.
var ErrUnauthorized = errors.New("unauthorized")

// ErrExternalService indicates that a downstream provider (transfer rail, FX provider) failed.
var ErrExternalService = errors.New("external service error")

// ErrUnknownOutcome indicates that an external side effect may or may not have happened.
// Callers must re-check state before retrying.
var ErrUnknownOutcome = errors.New("outcome unknown")

// ErrPartialFailure indicates that a multi-step operation did not complete.
var ErrPartialFailure = errors.New("partial failure")

// ErrInternal is used for unexpected failures inside the service.
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP-ish status code alongside a message and the underlying cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StepState describes what happened to a single step of a multi-step operation.
type StepState string

const (
	StepApplied    StepState = "applied"
	StepRolledBack StepState = "rolled_back"
	StepFailed     StepState = "failed"
	StepSkipped    StepState = "skipped"
)

// StepStatus is the outcome of one named step.
type StepStatus struct {
	Step   string    `json:"step"`
	State  StepState `json:"state"`
	Reason string    `json:"reason,omitempty"`
}

// PartialFailureError reports an operation that stopped part way, with an itemized status per step.
type PartialFailureError struct {
	Operation string
	Steps     []StepStatus
	Err       error
}

func (e *PartialFailureError) Error() string {
	var b strings.Builder
	b.WriteString(e.Operation)
	b.WriteString(" did not complete")
	for _, s := range e.Steps {
		b.WriteString("; ")
		b.WriteString(s.Step)
		b.WriteString(": ")
		b.WriteString(string(s.State))
		if s.Reason != "" {
			b.WriteString(" (")
			b.WriteString(s.Reason)
			b.WriteString(")")
		}
	}
	return b.String()
}

// Is lets errors.Is(err, ErrPartialFailure) match.
func (e *PartialFailureError) Is(target error) bool {
	return target == ErrPartialFailure
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}
