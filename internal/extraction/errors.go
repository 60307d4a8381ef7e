package extraction

import (
	"errors"
	"net/http"
)

// Domain errors for extraction operations.
var (
	ErrNotFound     = errors.New("extraction not found")
	ErrDuplicate    = errors.New("extraction already exists")
	ErrInvalidField = errors.New("unknown field key")

	// ErrNoCandidates signals that no trace link produced a candidate above
	// the confidence floor. Nothing is written; a prior extraction for the
	// field is left untouched.
	ErrNoCandidates = errors.New("no qualifying extraction candidates")
)

// MapHTTPStatus maps extraction domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidField):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoCandidates):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
