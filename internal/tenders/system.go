package tenders

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/pkg/pagination"
)

// System defines the public contract for tender domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Tender], error)

	Find(ctx context.Context, id uuid.UUID) (*Tender, error)
	Create(ctx context.Context, cmd CreateCommand, actorID string) (*Tender, error)

	// Transition moves the tender along the status machine, recording an
	// audit entry. Rejects edges not present in the machine and any move
	// out of a terminal status.
	Transition(ctx context.Context, id uuid.UUID, to Status, actorID string) (*Tender, error)

	// TransitionTx performs the guarded status update inside a caller-owned
	// transaction and returns the prior status. The caller is responsible
	// for the accompanying audit entry so all effects commit together.
	TransitionTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, to Status) (Status, error)
}
