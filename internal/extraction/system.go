package extraction

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for extraction operations.
type System interface {
	Handler() *Handler

	// ExtractField runs the rule table for one field against the tender's
	// trace links and upserts the winning result. Returns ErrNoCandidates
	// when nothing clears the confidence floor; no partial state is written.
	ExtractField(ctx context.Context, tenderID uuid.UUID, key FieldKey, opts Options) (*FieldExtraction, error)

	// Find returns the stored extraction for one field of a tender.
	Find(ctx context.Context, tenderID uuid.UUID, key FieldKey) (*FieldExtraction, error)

	// ListByTender returns all stored extractions for a tender in field key
	// order.
	ListByTender(ctx context.Context, tenderID uuid.UUID) ([]FieldExtraction, error)
}
