package escalations

import (
	"errors"
	"net/http"
)

// Domain errors for escalation operations.
var (
	ErrNotFound        = errors.New("escalation not found")
	ErrDuplicate       = errors.New("escalation already recorded for run")
	ErrInvalidRecord   = errors.New("invalid escalation record")
	ErrAlreadyResolved = errors.New("escalation already resolved")
)

// MapHTTPStatus maps escalation domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrAlreadyResolved):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidRecord):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
