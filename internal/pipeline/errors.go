package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/lead-personalizer/internal/adaptation"
	"github.com/jonathan/lead-personalizer/internal/validation"
)

// ErrorKind classifies why a job failed
type ErrorKind string

// Error kinds surfaced to callers
const (
	KindGenerationUnavailable ErrorKind = "GenerationUnavailable"
	KindGenerationMalformed   ErrorKind = "GenerationMalformed"
	KindValidationFailed      ErrorKind = "ValidationFailed"
	KindInvalidRequest        ErrorKind = "InvalidRequest"
	KindCancelled             ErrorKind = "Cancelled"
	KindInternal              ErrorKind = "Internal"
)

// Error is a classified, user-safe pipeline failure.
// Message never carries provider text; Cause keeps the full chain for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
	JobID   uuid.UUID
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf extracts the kind from an error chain, or "" if unclassified
func KindOf(err error) ErrorKind {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Kind
	}
	return ""
}

// classify maps a stage error onto a pipeline error kind
func classify(ctx context.Context, err error, jobID uuid.UUID) *Error {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr
	}

	e := &Error{Cause: err, JobID: jobID}
	var (
		unavailable *adaptation.UnavailableError
		malformed   *adaptation.MalformedError
		failed      *validation.ValidationFailedError
	)
	switch {
	// only the caller's own context counts as cancellation; a generator
	// timeout arrives as an UnavailableError while ctx is still live
	case ctx.Err() != nil:
		e.Kind = KindCancelled
		e.Message = "request was cancelled before completion"
	case errors.As(err, &failed):
		e.Kind = KindValidationFailed
		e.Message = fmt.Sprintf("content failed %d validation rule(s)", len(failed.Report.Violations))
	case errors.As(err, &malformed):
		e.Kind = KindGenerationMalformed
		e.Message = "content generator returned malformed output"
	case errors.As(err, &unavailable):
		e.Kind = KindGenerationUnavailable
		e.Message = "content generator is unavailable"
	default:
		e.Kind = KindInternal
		e.Message = "internal error"
	}
	return e
}
