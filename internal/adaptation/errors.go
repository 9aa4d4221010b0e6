package adaptation

import (
	"errors"
	"fmt"
)

// ErrGeneratorTimeout is the cause of an UnavailableError when one generator
// call outlives Config.Timeout. It does not wrap context.DeadlineExceeded, so
// it is never mistaken for the caller giving up.
var ErrGeneratorTimeout = errors.New("generator call timed out")

// UnavailableError means the generator could not be reached, refused the
// request, or the caller gave up. It is never retried.
type UnavailableError struct {
	Message string
	Cause   error
}

func (e *UnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation unavailable: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("generation unavailable: %s", e.Message)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// MalformedError means every attempt produced output that failed to parse
type MalformedError struct {
	Attempts int
	Cause    error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("generation malformed after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *MalformedError) Unwrap() error {
	return e.Cause
}

// ParseError describes why one model response was rejected
type ParseError struct {
	// Stage is "syntax" for JSON decoding failures and "shape" for schema mismatches
	Stage string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
