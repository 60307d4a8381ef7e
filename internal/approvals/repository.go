package approvals

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/internal/audit"
	"github.com/gavelworks/gavel/internal/checklists"
	"github.com/gavelworks/gavel/internal/extraction"
	"github.com/gavelworks/gavel/internal/tenders"
	"github.com/gavelworks/gavel/pkg/identity"
	"github.com/gavelworks/gavel/pkg/repository"
)

// confidenceFloor is the extraction confidence below which a warning is
// raised during validation.
const confidenceFloor = 0.5

type repo struct {
	db       *sql.DB
	tenders  tenders.System
	fields   extraction.System
	checks   checklists.System
	recorder audit.Recorder
	logger   *slog.Logger
}

// New creates an approval repository implementing the System interface.
func New(
	db *sql.DB,
	tenderSys tenders.System,
	fieldSys extraction.System,
	checkSys checklists.System,
	recorder audit.Recorder,
	logger *slog.Logger,
) System {
	return &repo{
		db:       db,
		tenders:  tenderSys,
		fields:   fieldSys,
		checks:   checkSys,
		recorder: recorder,
		logger:   logger.With("system", "approvals"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

// Validate applies the eligibility rules in precedence order. The analyst
// restriction short-circuits; everything else accumulates.
func (r *repo) Validate(ctx context.Context, tenderID uuid.UUID, caller identity.Identity) (*Eligibility, error) {
	e := &Eligibility{}

	if caller.Role == identity.RoleAnalyst {
		e.addError("role ANALYST cannot decide approvals")
		e.finalize()
		return e, nil
	}

	tender, err := r.tenders.Find(ctx, tenderID)
	if err != nil {
		return nil, err
	}

	if tender.Status.Terminal() {
		e.addError(fmt.Sprintf("tender is already %s", tender.Status))
	} else if tender.Status != tenders.StatusReview {
		e.addWarning(fmt.Sprintf("tender is not ready for review (status %s)", tender.Status))
	}

	extracted, err := r.fields.ListByTender(ctx, tenderID)
	if err != nil {
		return nil, fmt.Errorf("load extractions: %w", err)
	}

	byField := make(map[extraction.FieldKey]extraction.FieldExtraction, len(extracted))
	for _, fe := range extracted {
		byField[fe.FieldKey] = fe
	}

	for _, key := range extraction.FieldKeys() {
		fe, ok := byField[key]
		if !ok {
			e.addError(fmt.Sprintf("required field %s has not been extracted", key))
			continue
		}
		if fe.Confidence < confidenceFloor {
			e.addWarning(fmt.Sprintf("field %s extracted with low confidence %.2f", key, fe.Confidence))
		}
	}

	items, err := r.checks.ListByTender(ctx, tenderID)
	if err != nil {
		return nil, fmt.Errorf("load checklist: %w", err)
	}

	for _, item := range items {
		if !item.Blocking() {
			continue
		}
		reason := fmt.Sprintf("checklist item is %s", item.Status)
		if item.Notes != nil {
			reason = *item.Notes
		}
		e.BlockingItems = append(e.BlockingItems, BlockingItem{
			Key:    item.ItemKey,
			Label:  item.Label,
			Status: string(item.Status),
			Reason: reason,
		})
	}

	if deadline, ok := extractedDeadline(byField); ok && deadline.Before(time.Now()) {
		e.addWarning(fmt.Sprintf("extracted deadline %s is in the past", deadline.Format("2006-01-02")))
	}

	history, err := r.History(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	for _, prior := range history {
		if prior.DecidedBy == caller.UserID {
			e.addWarning(fmt.Sprintf("you already decided this tender on %s", prior.DecidedAt.Format("2006-01-02")))
			break
		}
	}

	e.finalize()
	return e, nil
}

// extractedDeadline decodes the deadline extraction's RFC 3339 full-date
// value.
func extractedDeadline(byField map[extraction.FieldKey]extraction.FieldExtraction) (time.Time, bool) {
	fe, ok := byField[extraction.FieldDeadline]
	if !ok {
		return time.Time{}, false
	}

	var raw string
	if err := json.Unmarshal(fe.Value, &raw); err != nil {
		return time.Time{}, false
	}

	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (r *repo) Submit(ctx context.Context, tenderID uuid.UUID, caller identity.Identity, cmd SubmitCommand) (*Approval, error) {
	if !cmd.Status.Valid() {
		return nil, ErrInvalidDecision
	}
	if !caller.Role.CanDecide() {
		e := &Eligibility{}
		e.addError("role ANALYST cannot decide approvals")
		e.finalize()
		return nil, &EligibilityError{Eligibility: *e}
	}

	if cmd.Status == DecisionApproved {
		eligibility, err := r.Validate(ctx, tenderID, caller)
		if err != nil {
			return nil, err
		}
		if !eligibility.CanApprove {
			return nil, &EligibilityError{Eligibility: *eligibility}
		}
	}

	action := audit.ActionApprove
	if cmd.Status == DecisionRejected {
		action = audit.ActionReject
	}

	q := `
		INSERT INTO approvals(id, tender_id, status, decided_by, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, tender_id, status, decided_by, comment, decided_at`

	args := []any{uuid.New(), tenderID, cmd.Status, caller.UserID, cmd.Comment}

	approval, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Approval, error) {
		created, err := repository.QueryOne(ctx, tx, q, args, scanApproval)
		if err != nil {
			return Approval{}, err
		}

		before, err := r.tenders.TransitionTx(ctx, tx, tenderID, cmd.Status.TenderStatus())
		if err != nil {
			return Approval{}, err
		}

		entry := audit.Entry{
			ActorID:  caller.UserID,
			Action:   action,
			Entity:   "tender",
			EntityID: tenderID.String(),
		}
		entry.Before, entry.After = audit.StatusChange(string(before), string(cmd.Status.TenderStatus()))

		if err := r.recorder.RecordTx(ctx, tx, entry); err != nil {
			return Approval{}, err
		}
		return created, nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("decision recorded",
		"tender", tenderID,
		"decision", approval.Status,
		"by", approval.DecidedBy,
	)
	return &approval, nil
}

func (r *repo) History(ctx context.Context, tenderID uuid.UUID) ([]Approval, error) {
	q := `
		SELECT id, tender_id, status, decided_by, comment, decided_at
		FROM approvals
		WHERE tender_id = $1
		ORDER BY decided_at DESC, id`

	history, err := repository.QueryMany(ctx, r.db, q, []any{tenderID}, scanApproval)
	if err != nil {
		return nil, fmt.Errorf("query approvals: %w", err)
	}
	return history, nil
}

func scanApproval(s repository.Scanner) (Approval, error) {
	var a Approval
	err := s.Scan(
		&a.ID,
		&a.TenderID,
		&a.Status,
		&a.DecidedBy,
		&a.Comment,
		&a.DecidedAt,
	)
	return a, err
}
