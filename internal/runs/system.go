package runs

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/pkg/pagination"
)

// Enqueuer hands a persisted run to the execution scheduler. Implemented by
// the scheduler; the handler submits through it after the PENDING row exists.
type Enqueuer interface {
	Enqueue(ctx context.Context, run Run) error
}

// System defines the public contract for run operations.
type System interface {
	Handler(enqueuer Enqueuer) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Run], error)

	Find(ctx context.Context, id uuid.UUID) (*Run, error)

	// Create persists a new run in PENDING status and records the enqueue
	// in the audit log. It does not start execution.
	Create(ctx context.Context, cmd CreateCommand, actorID string) (*Run, error)

	// Transition moves a run along the status machine, stamping started_at
	// and finished_at as appropriate. Terminal runs return ErrRunFinal.
	Transition(ctx context.Context, id uuid.UUID, to Status, actorID string) (*Run, error)

	// TransitionTx applies the guarded status move inside an existing
	// transaction and returns the prior status.
	TransitionTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, to Status) (Status, error)

	// Cancel requests cancellation. PENDING runs cancel immediately; RUNNING
	// runs stop at the next step boundary when the executor observes the
	// status.
	Cancel(ctx context.Context, id uuid.UUID, actorID string) (*Run, error)

	// AppendLog appends a log entry with the next sequence number for the run.
	AppendLog(ctx context.Context, runID uuid.UUID, cmd LogCommand) error

	// Logs returns all log entries for a run in sequence order.
	Logs(ctx context.Context, runID uuid.UUID) ([]LogEntry, error)
}
