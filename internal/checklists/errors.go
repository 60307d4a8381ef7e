package checklists

import (
	"errors"
	"net/http"
)

// Domain errors for checklist operations.
var (
	ErrNotFound        = errors.New("checklist not found")
	ErrDuplicate       = errors.New("checklist item already exists")
	ErrUnknownTemplate = errors.New("unknown checklist template")
	ErrInvalidRequest  = errors.New("invalid checklist request")
)

// MapHTTPStatus maps checklist domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnknownTemplate), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
