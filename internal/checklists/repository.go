package checklists

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/internal/extraction"
	"github.com/gavelworks/gavel/internal/tenders"
	"github.com/gavelworks/gavel/pkg/repository"
)

type repo struct {
	db      *sql.DB
	tenders tenders.System
	fields  extraction.System
	logger  *slog.Logger
}

// New creates a checklist repository implementing the System interface.
func New(db *sql.DB, tenderSys tenders.System, fieldSys extraction.System, logger *slog.Logger) System {
	return &repo{
		db:      db,
		tenders: tenderSys,
		fields:  fieldSys,
		logger:  logger.With("system", "checklists"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Generate(ctx context.Context, tenderID uuid.UUID, templateID string) ([]ChecklistItem, error) {
	template, ok := FindTemplate(templateID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}

	tender, err := r.tenders.Find(ctx, tenderID)
	if err != nil {
		return nil, err
	}

	extracted, err := r.fields.ListByTender(ctx, tenderID)
	if err != nil {
		return nil, fmt.Errorf("load extractions: %w", err)
	}

	byField := make(map[extraction.FieldKey]extraction.FieldExtraction, len(extracted))
	for _, fe := range extracted {
		byField[fe.FieldKey] = fe
	}

	evaluated := make([]ChecklistItem, 0, len(template.Items))
	for _, item := range template.Items {
		evaluated = append(evaluated, evaluate(item, tender, byField))
	}

	items, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) ([]ChecklistItem, error) {
		stored := make([]ChecklistItem, 0, len(evaluated))
		for _, item := range evaluated {
			saved, err := upsertItem(ctx, tx, tenderID, item)
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

	r.logger.Info("checklist generated",
		"tender", tenderID,
		"template", templateID,
		"items", len(items),
	)
	return items, nil
}

// evaluate maps one template item to its status for the tender.
func evaluate(item TemplateItem, tender *tenders.Tender, byField map[extraction.FieldKey]extraction.FieldExtraction) ChecklistItem {
	out := ChecklistItem{
		ItemKey:  item.Key,
		Label:    item.Label,
		Optional: item.Optional,
	}

	if item.Applies != nil && !item.Applies(tender) {
		out.Status = StatusNA
		return out
	}

	fe, ok := byField[item.FieldKey]
	if !ok {
		out.Status = StatusMissing
		note := fmt.Sprintf("no extraction for field %s", item.FieldKey)
		out.Notes = &note
		return out
	}

	out.Citations = fe.Citations
	if fe.Confidence >= item.Threshold {
		out.Status = StatusOK
		return out
	}

	out.Status = StatusPending
	note := fmt.Sprintf("confidence %.2f below threshold %.2f", fe.Confidence, item.Threshold)
	out.Notes = &note
	return out
}

func upsertItem(ctx context.Context, tx *sql.Tx, tenderID uuid.UUID, item ChecklistItem) (ChecklistItem, error) {
	q := `
		INSERT INTO checklist_items(id, tender_id, item_key, label, status, optional, notes, citations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tender_id, item_key) DO UPDATE SET
			label = EXCLUDED.label,
			status = EXCLUDED.status,
			optional = EXCLUDED.optional,
			notes = EXCLUDED.notes,
			citations = EXCLUDED.citations,
			generated_at = now()
		RETURNING id, tender_id, item_key, label, status, optional, notes, citations, generated_at`

	args := []any{
		uuid.New(), tenderID, item.ItemKey, item.Label,
		item.Status, item.Optional, item.Notes, item.Citations,
	}

	return repository.QueryOne(ctx, tx, q, args, scanItem)
}

func (r *repo) ListByTender(ctx context.Context, tenderID uuid.UUID) ([]ChecklistItem, error) {
	q := `
		SELECT id, tender_id, item_key, label, status, optional, notes, citations, generated_at
		FROM checklist_items
		WHERE tender_id = $1
		ORDER BY item_key`

	items, err := repository.QueryMany(ctx, r.db, q, []any{tenderID}, scanItem)
	if err != nil {
		return nil, fmt.Errorf("query checklist items: %w", err)
	}
	return items, nil
}

func scanItem(s repository.Scanner) (ChecklistItem, error) {
	var i ChecklistItem
	err := s.Scan(
		&i.ID,
		&i.TenderID,
		&i.ItemKey,
		&i.Label,
		&i.Status,
		&i.Optional,
		&i.Notes,
		&i.Citations,
		&i.GeneratedAt,
	)
	return i, err
}
