package pipelines

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

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

// New creates a pipeline repository implementing the System interface.
func New(
	db *sql.DB,
	recorder audit.Recorder,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		recorder:   recorder,
		logger:     logger.With("system", "pipelines"),
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
) (*pagination.PageResult[Pipeline], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count pipelines: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanPipeline)
	if err != nil {
		return nil, fmt.Errorf("query pipelines: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Pipeline, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPipeline)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) FindByName(ctx context.Context, name string) (*Pipeline, error) {
	q, args := query.NewBuilder(projection).BuildSingle("Name", name)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPipeline)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) Create(ctx context.Context, def Definition, actorID string) (*Pipeline, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	definition, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("encode definition: %w", err)
	}

	q := `
		INSERT INTO pipelines(id, name, description, version, definition)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, description, version, definition, created_at, updated_at`

	args := []any{uuid.New(), def.Name, def.Description, def.Version, definition}

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Pipeline, error) {
		created, err := repository.QueryOne(ctx, tx, q, args, scanPipeline)
		if err != nil {
			return Pipeline{}, err
		}

		if err := r.recorder.RecordTx(ctx, tx, audit.Entry{
			ActorID:  actorID,
			Action:   audit.ActionPipelineCreate,
			Entity:   "pipeline",
			EntityID: created.ID.String(),
			After:    definition,
		}); err != nil {
			return Pipeline{}, err
		}
		return created, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("pipeline created", "name", p.Name, "version", p.Version)
	return &p, nil
}

func (r *repo) Update(ctx context.Context, name string, def Definition, actorID string) (*Pipeline, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	existing, err := r.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}

	def.Name = name
	def.Version = existing.Version + 1

	definition, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("encode definition: %w", err)
	}

	before, err := json.Marshal(existing.Definition)
	if err != nil {
		return nil, fmt.Errorf("encode prior definition: %w", err)
	}

	q := `
		UPDATE pipelines
		SET description = $1, version = $2, definition = $3, updated_at = now()
		WHERE name = $4
		RETURNING id, name, description, version, definition, created_at, updated_at`

	args := []any{def.Description, def.Version, definition, name}

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Pipeline, error) {
		updated, err := repository.QueryOne(ctx, tx, q, args, scanPipeline)
		if err != nil {
			return Pipeline{}, err
		}

		if err := r.recorder.RecordTx(ctx, tx, audit.Entry{
			ActorID:  actorID,
			Action:   audit.ActionPipelineUpdate,
			Entity:   "pipeline",
			EntityID: updated.ID.String(),
			Before:   before,
			After:    definition,
		}); err != nil {
			return Pipeline{}, err
		}
		return updated, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("pipeline updated", "name", p.Name, "version", p.Version)
	return &p, nil
}
