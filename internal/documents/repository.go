package documents

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/pkg/pagination"
	"github.com/gavelworks/gavel/pkg/query"
	"github.com/gavelworks/gavel/pkg/repository"
	"github.com/gavelworks/gavel/pkg/storage"
)

const selectTraceLinks = `
	SELECT id, document_id, page, snippet, section_path, created_at
	FROM trace_links`

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a document repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Filename", "ContentType")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func (r *repo) ListByTender(ctx context.Context, tenderID uuid.UUID) ([]Document, error) {
	q := `
		SELECT id, tender_id, filename, content_type, size_bytes, page_count, storage_key, uploaded_at
		FROM documents
		WHERE tender_id = $1
		ORDER BY uploaded_at, id`

	docs, err := repository.QueryMany(ctx, r.db, q, []any{tenderID}, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query tender documents: %w", err)
	}
	return docs, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	id := uuid.New()
	key := buildStorageKey(cmd.TenderID, id, sanitizeFilename(cmd.Filename))

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload document blob: %w", err)
	}

	q := `
		INSERT INTO documents(id, tender_id, filename, content_type, size_bytes, page_count, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, tender_id, filename, content_type, size_bytes, page_count, storage_key, uploaded_at`

	insertArgs := []any{
		id,
		cmd.TenderID,
		cmd.Filename,
		cmd.ContentType,
		int64(len(cmd.Data)),
		cmd.PageCount,
		key,
	}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanDocument)
	})

	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document created", "id", d.ID, "tender", d.TenderID, "filename", d.Filename)
	return &d, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	err = repository.ExecTx(ctx, r.db, func(tx *sql.Tx) error {
		return repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM documents WHERE id = $1",
			id,
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if delErr := r.storage.Delete(ctx, doc.StorageKey); delErr != nil {
		r.logger.Warn(
			"blob delete failed after DB delete",
			"key", doc.StorageKey,
			"error", delErr,
		)
	}

	r.logger.Info("document deleted", "id", id)
	return nil
}

func (r *repo) IngestTraceLinks(ctx context.Context, documentID uuid.UUID, batch TraceLinkBatch) ([]TraceLink, error) {
	if len(batch.Links) == 0 {
		return nil, ErrEmptyTraceBatch
	}
	for _, link := range batch.Links {
		if link.Page < 1 || strings.TrimSpace(link.Snippet) == "" {
			return nil, ErrInvalidTrace
		}
	}

	if _, err := r.Find(ctx, documentID); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO trace_links(id, document_id, page, snippet, section_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, document_id, page, snippet, section_path, created_at`

	links, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) ([]TraceLink, error) {
		created := make([]TraceLink, 0, len(batch.Links))
		for _, cmd := range batch.Links {
			args := []any{uuid.New(), documentID, cmd.Page, cmd.Snippet, cmd.SectionPath}
			link, err := repository.QueryOne(ctx, tx, q, args, scanTraceLink)
			if err != nil {
				return nil, err
			}
			created = append(created, link)
		}
		return created, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("trace links ingested", "document", documentID, "count", len(links))
	return links, nil
}

func (r *repo) TraceLinks(ctx context.Context, documentID uuid.UUID) ([]TraceLink, error) {
	q := selectTraceLinks + " WHERE document_id = $1 ORDER BY page, id"
	return repository.QueryMany(ctx, r.db, q, []any{documentID}, scanTraceLink)
}

func (r *repo) TraceLinksByTender(ctx context.Context, tenderID uuid.UUID) ([]TraceLink, error) {
	q := selectTraceLinks + `
	WHERE document_id IN (SELECT id FROM documents WHERE tender_id = $1)
	ORDER BY document_id, page, id`
	return repository.QueryMany(ctx, r.db, q, []any{tenderID}, scanTraceLink)
}

func buildStorageKey(tenderID, id uuid.UUID, filename string) string {
	return fmt.Sprintf("tenders/%s/%s/%s", tenderID, id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "document"
	}
	return url.PathEscape(name)
}
