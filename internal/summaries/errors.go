package summaries

import (
	"errors"
	"net/http"
)

// Domain errors for summary operations.
var (
	ErrNotFound        = errors.New("summary not found")
	ErrDuplicate       = errors.New("summary block already exists")
	ErrUnknownTemplate = errors.New("unknown summary template")
	ErrInvalidRequest  = errors.New("invalid summary request")

	// ErrRequiredSection signals that a required section could not be
	// rendered. The whole generation fails; nothing is written.
	ErrRequiredSection = errors.New("required summary section failed")
)

// MapHTTPStatus maps summary domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnknownTemplate), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrRequiredSection):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
