package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/gavelworks/gavel/pkg/pagination"
	"github.com/gavelworks/gavel/pkg/query"
	"github.com/gavelworks/gavel/pkg/repository"
)

const insertEntry = `
	INSERT INTO audit_log(actor_id, action, entity, entity_id, before, after)
	VALUES ($1, $2, $3, $4, $5, $6)`

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an audit repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "audit"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Record(ctx context.Context, entry Entry) error {
	_, err := r.db.ExecContext(ctx, insertEntry,
		entry.ActorID, entry.Action, entry.Entity, entry.EntityID, entry.Before, entry.After,
	)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

func (r *repo) RecordTx(ctx context.Context, tx *sql.Tx, entry Entry) error {
	_, err := tx.ExecContext(ctx, insertEntry,
		entry.ActorID, entry.Action, entry.Entity, entry.EntityID, entry.Before, entry.After,
	)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Entry], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Action", "Entity", "EntityID")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count audit entries: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	entries, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}

	result := pagination.NewPageResult(entries, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	if olderThan.IsZero() || olderThan.After(time.Now()) {
		return 0, ErrInvalidRange
	}

	result, err := r.db.ExecContext(ctx,
		"DELETE FROM audit_log WHERE occurred_at < $1",
		olderThan,
	)
	if err != nil {
		return 0, fmt.Errorf("audit cleanup: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	r.logger.Info("audit retention cleanup", "cutoff", olderThan, "removed", removed)
	return removed, nil
}
