package approvals

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gavelworks/gavel/internal/tenders"
)

// Domain errors for approval operations.
var (
	ErrNotFound        = errors.New("approval not found")
	ErrDuplicate       = errors.New("approval already exists")
	ErrInvalidDecision = errors.New("invalid approval decision")
)

// EligibilityError is returned when an APPROVED submission fails
// re-validation. It carries the full structured result so callers can render
// the remediation list.
type EligibilityError struct {
	Eligibility Eligibility `json:"eligibility"`
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("tender not eligible for approval: %d error(s), %d blocking item(s)",
		len(e.Eligibility.Errors), len(e.Eligibility.BlockingItems))
}

// MapHTTPStatus maps approval domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	var eerr *EligibilityError
	if errors.As(err, &eerr) {
		return http.StatusUnprocessableEntity
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidDecision):
		return http.StatusBadRequest
	default:
		// Submission surfaces tender transition errors directly.
		return tenders.MapHTTPStatus(err)
	}
}
