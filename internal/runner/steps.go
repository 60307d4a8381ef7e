package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gavelworks/gavel/internal/extraction"
	"github.com/gavelworks/gavel/internal/summaries"
	"github.com/gavelworks/gavel/internal/tenders"
)

// prepareStep loads the tender and its source material into the shared run
// context and moves the tender into PROCESSING.
func (e *Executor) prepareStep(ctx context.Context, sc *StepContext) Outcome {
	tender, err := e.tenders.Find(ctx, sc.Run.TenderID)
	if err != nil {
		return Fatal(fmt.Errorf("load tender: %w", err))
	}

	docs, err := e.docs.ListByTender(ctx, tender.ID)
	if err != nil {
		return Fatal(fmt.Errorf("load documents: %w", err))
	}

	links, err := e.docs.TraceLinksByTender(ctx, tender.ID)
	if err != nil {
		return Fatal(fmt.Errorf("load trace links: %w", err))
	}

	if tender.Status == tenders.StatusDraft {
		if _, err := e.tenders.Transition(ctx, tender.ID, tenders.StatusProcessing, systemActor); err != nil {
			return Fatal(fmt.Errorf("start processing: %w", err))
		}
	}

	return Success(map[string]any{
		"tender_reference": tender.Reference,
		"document_count":   len(docs),
		"trace_link_count": len(links),
	})
}

// extractStep runs the extraction engine for each configured field. A field
// with no qualifying candidates is a recoverable failure; the step retries
// and continue_on_error governs what happens after exhaustion.
func (e *Executor) extractStep(ctx context.Context, sc *StepContext) Outcome {
	opts := extraction.DefaultOptions()
	if v, ok := boolParam(sc.Step.With, "require_citations"); ok {
		opts.RequireCitations = v
	}
	if v, ok := floatParam(sc.Step.With, "min_confidence"); ok {
		opts.MinConfidence = v
	}
	if v, ok := intParam(sc.Step.With, "max_results"); ok {
		opts.MaxResults = v
	}

	extracted := map[string]any{}
	var failed []string

	for _, field := range sc.Step.FieldsFor() {
		fe, err := e.fields.ExtractField(ctx, sc.Run.TenderID, extraction.FieldKey(field), opts)
		if err != nil {
			if errors.Is(err, extraction.ErrNoCandidates) {
				failed = append(failed, field)
				continue
			}
			return Fatal(fmt.Errorf("extract %s: %w", field, err))
		}
		extracted[field] = fe.Confidence
	}

	if len(failed) > 0 {
		return Recoverable(fmt.Errorf("%w for fields: %s",
			extraction.ErrNoCandidates, strings.Join(failed, ", ")))
	}

	return Success(map[string]any{"extracted": extracted})
}

// checklistStep generates the configured checklist template.
func (e *Executor) checklistStep(ctx context.Context, sc *StepContext) Outcome {
	items, err := e.checks.Generate(ctx, sc.Run.TenderID, sc.Step.TemplateID())
	if err != nil {
		return Fatal(fmt.Errorf("generate checklist: %w", err))
	}

	blocking := 0
	for _, item := range items {
		if item.Blocking() {
			blocking++
		}
	}

	return Success(map[string]any{
		"checklist_items":    len(items),
		"checklist_blocking": blocking,
	})
}

// summaryStep renders the configured summary template. A failing required
// section is recoverable; a later rerun may have better extractions.
func (e *Executor) summaryStep(ctx context.Context, sc *StepContext) Outcome {
	blocks, err := e.sums.Generate(ctx, sc.Run.TenderID, sc.Step.TemplateID())
	if err != nil {
		if errors.Is(err, summaries.ErrRequiredSection) {
			return Recoverable(err)
		}
		return Fatal(fmt.Errorf("generate summary: %w", err))
	}

	return Success(map[string]any{"summary_sections": len(blocks)})
}

// humanApprovalStep moves the tender to REVIEW and ends the pipeline's part;
// the decision itself arrives later through the approvals API.
func (e *Executor) humanApprovalStep(ctx context.Context, sc *StepContext) Outcome {
	tender, err := e.tenders.Find(ctx, sc.Run.TenderID)
	if err != nil {
		return Fatal(fmt.Errorf("load tender: %w", err))
	}

	switch tender.Status {
	case tenders.StatusProcessing:
		if _, err := e.tenders.Transition(ctx, tender.ID, tenders.StatusReview, systemActor); err != nil {
			return Fatal(fmt.Errorf("move to review: %w", err))
		}
	case tenders.StatusReview:
		// Rerun against a tender already waiting on its reviewer.
	default:
		return Fatal(fmt.Errorf("%w: %s -> %s",
			tenders.ErrInvalidTransition, tender.Status, tenders.StatusReview))
	}

	sc.Log(ctx, "info", "tender ready for review", map[string]any{
		"tender": tender.ID.String(),
	})

	return Success(map[string]any{"tender_status": string(tenders.StatusReview)})
}

// notifyStep records the notification payload in the run log. Outbound
// delivery belongs to an external collector that tails the log.
func (e *Executor) notifyStep(ctx context.Context, sc *StepContext) Outcome {
	payload := map[string]any{
		"tender": sc.Run.TenderID.String(),
		"run":    sc.Run.ID.String(),
	}
	if msg, ok := sc.Step.With["message"].(string); ok && msg != "" {
		payload["message"] = msg
	}
	if channel, ok := sc.Step.With["channel"].(string); ok && channel != "" {
		payload["channel"] = channel
	}

	sc.Log(ctx, "info", "notification", payload)
	return Success(nil)
}

func boolParam(params map[string]any, key string) (bool, bool) {
	v, ok := params[key].(bool)
	return v, ok
}

// floatParam tolerates the integer forms YAML and JSON decoders produce.
func floatParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func intParam(params map[string]any, key string) (int, bool) {
	switch v := params[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}
