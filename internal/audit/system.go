package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/gavelworks/gavel/pkg/pagination"
)

// Recorder is the write-side contract consumed by domains that produce audit
// entries. RecordTx participates in a caller-owned transaction so the entry
// commits atomically with the action it describes.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
	RecordTx(ctx context.Context, tx *sql.Tx, entry Entry) error
}

// System defines the public contract for audit trail operations.
type System interface {
	Recorder

	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Entry], error)

	// Cleanup deletes entries older than the cutoff and returns the number
	// of rows removed. This is the only path that removes audit data.
	Cleanup(ctx context.Context, olderThan time.Time) (int64, error)
}
