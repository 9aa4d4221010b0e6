// Package validation checks adapted marketing copy against length and content rules.
package validation

import (
	"fmt"
	"strings"

	"github.com/jonathan/lead-personalizer/internal/types"
)

// ValidationFailedError is returned by Enforce in blocking mode
type ValidationFailedError struct {
	Report types.ValidationReport
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("content validation failed: %s", strings.Join(e.Report.Messages(), "; "))
}

// ModeError represents an unknown validation mode name
type ModeError struct {
	Value string
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("unknown validation mode %q (want advisory or blocking)", e.Value)
}
