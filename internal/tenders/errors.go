package tenders

import (
	"errors"
	"net/http"
)

// Domain errors for tender operations.
var (
	ErrNotFound          = errors.New("tender not found")
	ErrDuplicate         = errors.New("tender reference already exists")
	ErrInvalidTender     = errors.New("invalid tender")
	ErrInvalidTransition = errors.New("tender status transition not permitted")
	ErrTenderFinal       = errors.New("tender is in a terminal status")
)

// MapHTTPStatus maps tender domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidTender) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrTenderFinal) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
