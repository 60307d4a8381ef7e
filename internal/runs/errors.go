package runs

import (
	"errors"
	"net/http"
)

// Domain errors for run operations.
var (
	ErrNotFound          = errors.New("run not found")
	ErrDuplicate         = errors.New("run already exists")
	ErrInvalidRun        = errors.New("invalid run")
	ErrInvalidTransition = errors.New("invalid run status transition")
	ErrRunFinal          = errors.New("run is in a terminal status")

	// ErrQueueFull is returned by an Enqueuer when the execution queue
	// cannot accept more work.
	ErrQueueFull = errors.New("run queue is full")
)

// MapHTTPStatus maps run domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidRun):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrRunFinal):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrQueueFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
