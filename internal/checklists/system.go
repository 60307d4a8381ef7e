package checklists

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for checklist operations.
type System interface {
	Handler() *Handler

	// Generate evaluates the template against the tender's stored
	// extractions and upserts the resulting items. Regeneration is
	// idempotent; items are replaced in place.
	Generate(ctx context.Context, tenderID uuid.UUID, templateID string) ([]ChecklistItem, error)

	// ListByTender returns the tender's checklist items in item key order.
	ListByTender(ctx context.Context, tenderID uuid.UUID) ([]ChecklistItem, error)
}
