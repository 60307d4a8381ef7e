package pipelines

import (
	"context"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/pkg/pagination"
)

// System defines the public contract for pipeline definition operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Pipeline], error)

	Find(ctx context.Context, id uuid.UUID) (*Pipeline, error)
	FindByName(ctx context.Context, name string) (*Pipeline, error)

	// Create validates and stores a new definition at version 1 (or the
	// authored version). Returns *ValidationError for invalid definitions.
	Create(ctx context.Context, def Definition, actorID string) (*Pipeline, error)

	// Update validates and stores a new definition for an existing name,
	// bumping the version. Runs resolve the definition by name when they
	// start, so queued runs execute the updated version; runs already
	// executing keep the definition they loaded.
	Update(ctx context.Context, name string, def Definition, actorID string) (*Pipeline, error)
}
