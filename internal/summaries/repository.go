package summaries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/internal/documents"
	"github.com/gavelworks/gavel/internal/extraction"
	"github.com/gavelworks/gavel/internal/tenders"
	"github.com/gavelworks/gavel/pkg/repository"
)

type repo struct {
	db       *sql.DB
	tenders  tenders.System
	docs     documents.System
	fields   extraction.System
	renderer Renderer
	logger   *slog.Logger
}

// New creates a summary repository implementing the System interface. A nil
// renderer falls back to MarkdownRenderer.
func New(
	db *sql.DB,
	tenderSys tenders.System,
	docSys documents.System,
	fieldSys extraction.System,
	renderer Renderer,
	logger *slog.Logger,
) System {
	if renderer == nil {
		renderer = MarkdownRenderer{}
	}
	return &repo{
		db:       db,
		tenders:  tenderSys,
		docs:     docSys,
		fields:   fieldSys,
		renderer: renderer,
		logger:   logger.With("system", "summaries"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Generate(ctx context.Context, tenderID uuid.UUID, templateID string) ([]SummaryBlock, error) {
	template, ok := FindTemplate(templateID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}

	sc, err := r.loadContext(ctx, tenderID)
	if err != nil {
		return nil, err
	}

	rendered := make([]SummaryBlock, 0, len(template.Sections))
	for _, section := range template.Sections {
		body, err := section.Compose(sc)
		if err != nil {
			if section.Required {
				return nil, fmt.Errorf("%w: %s: %v", ErrRequiredSection, section.Key, err)
			}
			if !errors.Is(err, ErrSectionEmpty) {
				r.logger.Warn("optional section failed",
					"tender", tenderID,
					"section", section.Key,
					"error", err,
				)
			}
			continue
		}

		markdown, err := r.renderer.Render(section, body)
		if err != nil {
			if section.Required {
				return nil, fmt.Errorf("%w: %s: %v", ErrRequiredSection, section.Key, err)
			}
			r.logger.Warn("optional section render failed",
				"tender", tenderID,
				"section", section.Key,
				"error", err,
			)
			continue
		}

		rendered = append(rendered, SummaryBlock{
			TenderID:     tenderID,
			SectionKey:   section.Key,
			Title:        section.Title,
			BodyMarkdown: markdown,
			Citations:    citationUnion(sc, section.Fields),
			Position:     section.Position,
		})
	}

	blocks, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) ([]SummaryBlock, error) {
		stored := make([]SummaryBlock, 0, len(rendered))
		for _, block := range rendered {
			saved, err := upsertBlock(ctx, tx, block)
			if err != nil {
				return nil, err
			}
			stored = append(stored, saved)
		}
		return stored, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("summary generated",
		"tender", tenderID,
		"template", templateID,
		"sections", len(blocks),
	)
	return blocks, nil
}

func (r *repo) loadContext(ctx context.Context, tenderID uuid.UUID) (SectionContext, error) {
	tender, err := r.tenders.Find(ctx, tenderID)
	if err != nil {
		return SectionContext{}, err
	}

	docs, err := r.docs.ListByTender(ctx, tenderID)
	if err != nil {
		return SectionContext{}, err
	}

	extracted, err := r.fields.ListByTender(ctx, tenderID)
	if err != nil {
		return SectionContext{}, fmt.Errorf("load extractions: %w", err)
	}

	byField := make(map[extraction.FieldKey]extraction.FieldExtraction, len(extracted))
	for _, fe := range extracted {
		byField[fe.FieldKey] = fe
	}

	return SectionContext{
		Tender:      tender,
		Documents:   docs,
		Extractions: byField,
	}, nil
}

// citationUnion merges the citations of every field the section draws on,
// preserving first-seen order.
func citationUnion(sc SectionContext, fields []extraction.FieldKey) extraction.Citations {
	seen := make(map[uuid.UUID]struct{})
	union := extraction.Citations{}
	for _, key := range fields {
		fe, ok := sc.Extractions[key]
		if !ok {
			continue
		}
		for _, id := range fe.Citations {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			union = append(union, id)
		}
	}
	return union
}

func upsertBlock(ctx context.Context, tx *sql.Tx, block SummaryBlock) (SummaryBlock, error) {
	q := `
		INSERT INTO summary_blocks(id, tender_id, section_key, title, body_markdown, citations, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tender_id, section_key) DO UPDATE SET
			title = EXCLUDED.title,
			body_markdown = EXCLUDED.body_markdown,
			citations = EXCLUDED.citations,
			position = EXCLUDED.position,
			generated_at = now()
		RETURNING id, tender_id, section_key, title, body_markdown, citations, position, generated_at`

	args := []any{
		uuid.New(), block.TenderID, block.SectionKey, block.Title,
		block.BodyMarkdown, block.Citations, block.Position,
	}

	return repository.QueryOne(ctx, tx, q, args, scanBlock)
}

func (r *repo) ListByTender(ctx context.Context, tenderID uuid.UUID) ([]SummaryBlock, error) {
	q := `
		SELECT id, tender_id, section_key, title, body_markdown, citations, position, generated_at
		FROM summary_blocks
		WHERE tender_id = $1
		ORDER BY position`

	blocks, err := repository.QueryMany(ctx, r.db, q, []any{tenderID}, scanBlock)
	if err != nil {
		return nil, fmt.Errorf("query summary blocks: %w", err)
	}
	return blocks, nil
}

func scanBlock(s repository.Scanner) (SummaryBlock, error) {
	var b SummaryBlock
	err := s.Scan(
		&b.ID,
		&b.TenderID,
		&b.SectionKey,
		&b.Title,
		&b.BodyMarkdown,
		&b.Citations,
		&b.Position,
		&b.GeneratedAt,
	)
	return b, err
}
