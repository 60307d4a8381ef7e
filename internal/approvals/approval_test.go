package approvals_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/internal/approvals"
	"github.com/gavelworks/gavel/internal/tenders"
	"github.com/gavelworks/gavel/pkg/identity"
)

func TestDecisionValid(t *testing.T) {
	if !approvals.DecisionApproved.Valid() || !approvals.DecisionRejected.Valid() {
		t.Error("recognized decisions reported invalid")
	}
	if approvals.Decision("DEFERRED").Valid() {
		t.Error(`Decision("DEFERRED").Valid() = true, want false`)
	}
}

func TestDecisionTenderStatus(t *testing.T) {
	if got := approvals.DecisionApproved.TenderStatus(); got != tenders.StatusApproved {
		t.Errorf("APPROVED maps to %s, want APPROVED", got)
	}
	if got := approvals.DecisionRejected.TenderStatus(); got != tenders.StatusRejected {
		t.Errorf("REJECTED maps to %s, want REJECTED", got)
	}
}

func TestValidateAnalystShortCircuits(t *testing.T) {
	// The analyst restriction is checked before any lookup; nil
	// dependencies prove no other rule runs.
	sys := approvals.New(nil, nil, nil, nil, nil, slog.Default())

	caller := identity.Identity{UserID: "u-1", Role: identity.RoleAnalyst}
	eligibility, err := sys.Validate(context.Background(), uuid.New(), caller)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	if eligibility.CanApprove {
		t.Error("CanApprove = true for an analyst")
	}
	if len(eligibility.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one", eligibility.Errors)
	}
	if eligibility.Warnings == nil || eligibility.BlockingItems == nil {
		t.Error("finalized eligibility must carry non-nil slices")
	}
}

func TestSubmitRejectsInvalidDecision(t *testing.T) {
	sys := approvals.New(nil, nil, nil, nil, nil, slog.Default())

	caller := identity.Identity{UserID: "u-1", Role: identity.RoleReviewer}
	cmd := approvals.SubmitCommand{Status: approvals.Decision("DEFERRED")}

	_, err := sys.Submit(context.Background(), uuid.New(), caller, cmd)
	if !errors.Is(err, approvals.ErrInvalidDecision) {
		t.Errorf("error = %v, want ErrInvalidDecision", err)
	}
}

func TestSubmitRejectsAnalyst(t *testing.T) {
	sys := approvals.New(nil, nil, nil, nil, nil, slog.Default())

	caller := identity.Identity{UserID: "u-1", Role: identity.RoleAnalyst}
	cmd := approvals.SubmitCommand{Status: approvals.DecisionRejected}

	_, err := sys.Submit(context.Background(), uuid.New(), caller, cmd)

	var eerr *approvals.EligibilityError
	if !errors.As(err, &eerr) {
		t.Fatalf("error type = %T, want *EligibilityError", err)
	}
	if eerr.Eligibility.CanApprove {
		t.Error("CanApprove = true in an analyst rejection")
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"eligibility failure", &approvals.EligibilityError{}, http.StatusUnprocessableEntity},
		{"not found", approvals.ErrNotFound, http.StatusNotFound},
		{"invalid decision", approvals.ErrInvalidDecision, http.StatusBadRequest},
		{"terminal tender", tenders.ErrTenderFinal, http.StatusUnprocessableEntity},
		{"unknown tender", tenders.ErrNotFound, http.StatusNotFound},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := approvals.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
