package summaries

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for summary operations.
type System interface {
	Handler() *Handler

	// Generate renders the template's sections for the tender and upserts
	// the resulting blocks. A failing required section aborts with
	// ErrRequiredSection and writes nothing; failing optional sections are
	// logged and skipped.
	Generate(ctx context.Context, tenderID uuid.UUID, templateID string) ([]SummaryBlock, error)

	// ListByTender returns the tender's summary blocks in position order.
	ListByTender(ctx context.Context, tenderID uuid.UUID) ([]SummaryBlock, error)
}
