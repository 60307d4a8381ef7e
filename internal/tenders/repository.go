package tenders

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/internal/audit"
	"github.com/gavelworks/gavel/pkg/pagination"
	"github.com/gavelworks/gavel/pkg/query"
	"github.com/gavelworks/gavel/pkg/repository"
)

type repo struct {
	db         *sql.DB
	recorder   audit.Recorder
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a tender repository implementing the System interface.
func New(
	db *sql.DB,
	recorder audit.Recorder,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		recorder:   recorder,
		logger:     logger.With("system", "tenders"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Tender], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Reference", "Title")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count tenders: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanTender)
	if err != nil {
		return nil, fmt.Errorf("query tenders: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Tender, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	t, err := repository.QueryOne(ctx, r.db, q, args, scanTender)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &t, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand, actorID string) (*Tender, error) {
	if strings.TrimSpace(cmd.Reference) == "" || strings.TrimSpace(cmd.Title) == "" {
		return nil, ErrInvalidTender
	}

	q := `
		INSERT INTO tenders(id, reference, title, status, deadline)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, reference, title, status, deadline, created_at, updated_at`

	id := uuid.New()
	args := []any{id, cmd.Reference, cmd.Title, StatusDraft, cmd.Deadline}

	t, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Tender, error) {
		created, err := repository.QueryOne(ctx, tx, q, args, scanTender)
		if err != nil {
			return Tender{}, err
		}

		entry := audit.Entry{
			ActorID:  actorID,
			Action:   audit.ActionTenderCreate,
			Entity:   "tender",
			EntityID: created.ID.String(),
		}
		_, entry.After = audit.StatusChange("", string(created.Status))

		if err := r.recorder.RecordTx(ctx, tx, entry); err != nil {
			return Tender{}, err
		}
		return created, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("tender created", "id", t.ID, "reference", t.Reference)
	return &t, nil
}

func (r *repo) Transition(ctx context.Context, id uuid.UUID, to Status, actorID string) (*Tender, error) {
	if !to.Valid() {
		return nil, ErrInvalidTransition
	}

	t, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Tender, error) {
		before, err := r.TransitionTx(ctx, tx, id, to)
		if err != nil {
			return Tender{}, err
		}

		entry := audit.Entry{
			ActorID:  actorID,
			Action:   audit.ActionTenderTransition,
			Entity:   "tender",
			EntityID: id.String(),
		}
		entry.Before, entry.After = audit.StatusChange(string(before), string(to))

		if err := r.recorder.RecordTx(ctx, tx, entry); err != nil {
			return Tender{}, err
		}

		q, args := query.NewBuilder(projection).BuildSingle("ID", id)
		return repository.QueryOne(ctx, tx, q, args, scanTender)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("tender transitioned", "id", id, "to", to)
	return &t, nil
}

func (r *repo) TransitionTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, to Status) (Status, error) {
	var current Status
	err := tx.QueryRowContext(ctx,
		"SELECT status FROM tenders WHERE id = $1 FOR UPDATE",
		id,
	).Scan(&current)
	if err != nil {
		return "", repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if current.Terminal() {
		return current, ErrTenderFinal
	}
	if !current.CanTransition(to) {
		return current, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, to)
	}

	if err := repository.ExecExpectOne(ctx, tx,
		"UPDATE tenders SET status = $1, updated_at = now() WHERE id = $2",
		to, id,
	); err != nil {
		return current, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return current, nil
}
