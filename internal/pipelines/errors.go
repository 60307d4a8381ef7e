package pipelines

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Domain errors for pipeline operations.
var (
	ErrNotFound  = errors.New("pipeline not found")
	ErrDuplicate = errors.New("pipeline name already exists")
	ErrInvalid   = errors.New("invalid pipeline")
)

// Issue is one field-level problem found during definition validation.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is a configuration error: the definition is rejected
// before any run exists. It collects every issue found.
type ValidationError struct {
	Issues []Issue `json:"issues"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = fmt.Sprintf("%s: %s", issue.Field, issue.Message)
	}
	return "invalid pipeline definition: " + strings.Join(parts, "; ")
}

// MapHTTPStatus maps pipeline domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalid) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
