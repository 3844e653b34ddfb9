// Package errors defines the error kinds surfaced by the e-signature
// orchestrator. Callers match kinds with errors.Is and unpack details with
// errors.As.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrSigning       = errors.New("signing error")
	ErrAuth          = errors.New("auth error")
	ErrAPI           = errors.New("provider api error")
	ErrValidation    = errors.New("validation error")
	ErrMerge         = errors.New("merge error")
	ErrFetch         = errors.New("fetch error")
	ErrEnvelope      = errors.New("envelope error")
)

// APIError is returned for any provider response outside [200,300).
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider API error [%d]: %s", e.StatusCode, e.Body)
}

func (e *APIError) Is(target error) bool {
	return target == ErrAPI
}

// ValidationError lists the caller-supplied fields that were missing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required field: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError returns nil when no field is missing.
func NewValidationError(fields ...string) error {
	if len(fields) == 0 {
		return nil
	}

	return &ValidationError{Fields: fields}
}

// HTTPStatus maps an error kind to the status code used at the HTTP boundary.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAPI), errors.Is(err, ErrEnvelope),
		errors.Is(err, ErrMerge), errors.Is(err, ErrFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Kind returns a short label for the most specific kind in err's chain,
// used as a metrics label.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrSigning):
		return "signing"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrEnvelope):
		return "envelope"
	case errors.Is(err, ErrMerge):
		return "merge"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrAPI):
		return "api"
	default:
		return "internal"
	}
}
