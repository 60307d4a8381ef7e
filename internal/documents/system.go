package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/pkg/pagination"
)

// System defines the public contract for document domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, id uuid.UUID) (*Document, error)

	// ListByTender returns every document registered for a tender in
	// upload order.
	ListByTender(ctx context.Context, tenderID uuid.UUID) ([]Document, error)

	Create(ctx context.Context, cmd CreateCommand) (*Document, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// IngestTraceLinks stores the parser's pre-segmented snippets for a
	// document. Links are immutable once written.
	IngestTraceLinks(ctx context.Context, documentID uuid.UUID, batch TraceLinkBatch) ([]TraceLink, error)

	// TraceLinks returns all links for one document in (page, id) order.
	TraceLinks(ctx context.Context, documentID uuid.UUID) ([]TraceLink, error)

	// TraceLinksByTender returns all links across a tender's documents in
	// (document_id, page, id) order. This enumeration order is what makes
	// extraction reruns deterministic.
	TraceLinksByTender(ctx context.Context, tenderID uuid.UUID) ([]TraceLink, error)
}
