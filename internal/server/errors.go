package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/lead-personalizer/internal/pipeline"
)

// ErrValidation indicates a malformed request body or parameter
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var vErr *ErrValidation
	if errors.As(err, &vErr) {
		return http.StatusBadRequest
	}
	if errors.Is(err, pipeline.ErrJobNotFound) {
		return http.StatusNotFound
	}

	switch pipeline.KindOf(err) {
	case pipeline.KindInvalidRequest:
		return http.StatusBadRequest
	case pipeline.KindGenerationUnavailable:
		return http.StatusServiceUnavailable
	case pipeline.KindGenerationMalformed:
		return http.StatusBadGateway
	case pipeline.KindValidationFailed:
		return http.StatusUnprocessableEntity
	case pipeline.KindCancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
