package approvals

import (
	"context"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/pkg/identity"
)

// System defines the public contract for approval operations.
type System interface {
	Handler() *Handler

	// Validate computes approval eligibility for the caller against the
	// tender's extractions, checklist, and decision history.
	Validate(ctx context.Context, tenderID uuid.UUID, caller identity.Identity) (*Eligibility, error)

	// Submit records a decision atomically: re-validation (APPROVED only),
	// the approval row, the tender transition, and the audit entry commit
	// together or not at all.
	Submit(ctx context.Context, tenderID uuid.UUID, caller identity.Identity, cmd SubmitCommand) (*Approval, error)

	// History returns every recorded decision for a tender, newest first.
	History(ctx context.Context, tenderID uuid.UUID) ([]Approval, error)
}
