package runs

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

// New creates a run repository implementing the System interface.
func New(
	db *sql.DB,
	recorder audit.Recorder,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		recorder:   recorder,
		logger:     logger.With("system", "runs"),
		pagination: pagination,
	}
}

func (r *repo) Handler(enqueuer Enqueuer) *Handler {
	return NewHandler(r, enqueuer, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Run], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "PipelineName")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRun)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &run, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand, actorID string) (*Run, error) {
	if cmd.TenderID == uuid.Nil || strings.TrimSpace(cmd.PipelineName) == "" {
		return nil, ErrInvalidRun
	}

	q := `
		INSERT INTO runs(id, tender_id, pipeline_name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, tender_id, pipeline_name, status, started_at, finished_at, created_at`

	args := []any{uuid.New(), cmd.TenderID, cmd.PipelineName, StatusPending}

	run, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Run, error) {
		created, err := repository.QueryOne(ctx, tx, q, args, scanRun)
		if err != nil {
			return Run{}, err
		}

		if err := r.recorder.RecordTx(ctx, tx, audit.Entry{
			ActorID:  actorID,
			Action:   audit.ActionRunEnqueue,
			Entity:   "run",
			EntityID: created.ID.String(),
		}); err != nil {
			return Run{}, err
		}
		return created, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("run enqueued",
		"id", run.ID,
		"tender", run.TenderID,
		"pipeline", run.PipelineName,
	)
	return &run, nil
}

func (r *repo) Transition(ctx context.Context, id uuid.UUID, to Status, actorID string) (*Run, error) {
	if !to.Valid() {
		return nil, ErrInvalidTransition
	}

	run, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Run, error) {
		before, err := r.TransitionTx(ctx, tx, id, to)
		if err != nil {
			return Run{}, err
		}

		entry := audit.Entry{
			ActorID:  actorID,
			Action:   audit.ActionRunTransition,
			Entity:   "run",
			EntityID: id.String(),
		}
		entry.Before, entry.After = audit.StatusChange(string(before), string(to))

		if err := r.recorder.RecordTx(ctx, tx, entry); err != nil {
			return Run{}, err
		}

		q, args := query.NewBuilder(projection).BuildSingle("ID", id)
		return repository.QueryOne(ctx, tx, q, args, scanRun)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("run transitioned", "id", id, "to", to)
	return &run, nil
}

func (r *repo) TransitionTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, to Status) (Status, error) {
	var current Status
	err := tx.QueryRowContext(ctx,
		"SELECT status FROM runs WHERE id = $1 FOR UPDATE",
		id,
	).Scan(&current)
	if err != nil {
		return "", repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if current.Terminal() {
		return current, fmt.Errorf("%w: %s", ErrRunFinal, current)
	}
	if !current.CanTransition(to) {
		return current, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, to)
	}

	q := "UPDATE runs SET status = $1 WHERE id = $2"
	switch {
	case to == StatusRunning:
		q = "UPDATE runs SET status = $1, started_at = now() WHERE id = $2"
	case to.Terminal():
		q = "UPDATE runs SET status = $1, finished_at = now() WHERE id = $2"
	}

	if err := repository.ExecExpectOne(ctx, tx, q, to, id); err != nil {
		return current, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return current, nil
}

func (r *repo) Cancel(ctx context.Context, id uuid.UUID, actorID string) (*Run, error) {
	return r.Transition(ctx, id, StatusCancelled, actorID)
}

func (r *repo) AppendLog(ctx context.Context, runID uuid.UUID, cmd LogCommand) error {
	if strings.TrimSpace(cmd.Message) == "" {
		return ErrInvalidRun
	}

	level := cmd.Level
	if level == "" {
		level = "INFO"
	}

	// Seq is derived inside the insert so entries stay dense per run. The
	// executor is the only writer for an active run, so there is no race
	// on the max.
	q := `
		INSERT INTO run_logs(run_id, seq, level, step_id, message, data)
		SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3, $4, $5
		FROM run_logs WHERE run_id = $1`

	if err := repository.ExecExpectOne(ctx, r.db, q,
		runID, level, cmd.StepID, cmd.Message, cmd.Data,
	); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (r *repo) Logs(ctx context.Context, runID uuid.UUID) ([]LogEntry, error) {
	q := `
		SELECT id, run_id, seq, level, step_id, message, data, logged_at
		FROM run_logs
		WHERE run_id = $1
		ORDER BY seq`

	entries, err := repository.QueryMany(ctx, r.db, q, []any{runID}, scanLogEntry)
	if err != nil {
		return nil, fmt.Errorf("query run logs: %w", err)
	}
	return entries, nil
}
