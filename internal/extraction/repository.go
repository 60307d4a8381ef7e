package extraction

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/internal/documents"
	"github.com/gavelworks/gavel/pkg/repository"
)

type repo struct {
	db     *sql.DB
	docs   documents.System
	rules  RuleTable
	logger *slog.Logger
}

// New creates an extraction engine implementing the System interface. The
// rule table is built once here and shared read-only across requests.
func New(db *sql.DB, docs documents.System, logger *slog.Logger) System {
	return &repo{
		db:     db,
		docs:   docs,
		rules:  NewRuleTable(),
		logger: logger.With("system", "extraction"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

// candidate pairs one rule match with its source link and scores.
type candidate struct {
	link       documents.TraceLink
	rule       string
	value      json.RawMessage
	confidence float64
	relevance  float64
}

func (c candidate) score() float64 {
	return (c.confidence + c.relevance) / 2
}

func (r *repo) ExtractField(ctx context.Context, tenderID uuid.UUID, key FieldKey, opts Options) (*FieldExtraction, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidField, key)
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultOptions().MaxResults
	}

	links, err := r.docs.TraceLinksByTender(ctx, tenderID)
	if err != nil {
		return nil, fmt.Errorf("load trace links: %w", err)
	}

	candidates := r.collect(key, links, opts.MinConfidence)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: field %s", ErrNoCandidates, key)
	}

	// Rank by combined score, then confidence, then link id. The link
	// enumeration order plus this tie-break makes reruns deterministic.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score() != candidates[j].score() {
			return candidates[i].score() > candidates[j].score()
		}
		if candidates[i].confidence != candidates[j].confidence {
			return candidates[i].confidence > candidates[j].confidence
		}
		return bytes.Compare(candidates[i].link.ID[:], candidates[j].link.ID[:]) < 0
	})

	best := candidates[0]
	citations := collectCitations(candidates, opts.MaxResults)
	if opts.RequireCitations && len(citations) == 0 {
		return nil, fmt.Errorf("%w: field %s has no citations", ErrNoCandidates, key)
	}

	result, err := r.upsert(ctx, FieldExtraction{
		TenderID:   tenderID,
		FieldKey:   key,
		Value:      best.value,
		Confidence: best.confidence,
		Citations:  citations,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("field extracted",
		"tender", tenderID,
		"field", key,
		"rule", best.rule,
		"confidence", best.confidence,
		"citations", len(citations),
	)
	return result, nil
}

// collect runs every rule for the field over every link, keeping candidates
// at or above the confidence floor.
func (r *repo) collect(key FieldKey, links []documents.TraceLink, minConfidence float64) []candidate {
	var out []candidate
	for _, link := range links {
		for _, rule := range r.rules[key] {
			match := rule.Pattern.FindStringSubmatch(link.Snippet)
			if match == nil {
				continue
			}

			value, ok := rule.Extract(match)
			if !ok {
				continue
			}

			confidence := rule.Confidence(match, link.Snippet)
			if confidence < minConfidence {
				continue
			}

			out = append(out, candidate{
				link:       link,
				rule:       rule.Name,
				value:      value,
				confidence: confidence,
				relevance:  relevance(key, link.Snippet),
			})
		}
	}
	return out
}

// collectCitations takes link ids from the ranked candidates, deduplicated,
// up to the configured maximum.
func collectCitations(ranked []candidate, max int) Citations {
	seen := make(map[uuid.UUID]struct{}, max)
	citations := make(Citations, 0, max)
	for _, c := range ranked {
		if _, ok := seen[c.link.ID]; ok {
			continue
		}
		seen[c.link.ID] = struct{}{}
		citations = append(citations, c.link.ID)
		if len(citations) == max {
			break
		}
	}
	return citations
}

func (r *repo) upsert(ctx context.Context, fe FieldExtraction) (*FieldExtraction, error) {
	q := `
		INSERT INTO field_extractions(tender_id, field_key, value, confidence, citations)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tender_id, field_key) DO UPDATE SET
			value = EXCLUDED.value,
			confidence = EXCLUDED.confidence,
			citations = EXCLUDED.citations,
			extracted_at = now()
		RETURNING tender_id, field_key, value, confidence, citations, extracted_at`

	args := []any{fe.TenderID, fe.FieldKey, []byte(fe.Value), fe.Confidence, fe.Citations}

	stored, err := repository.QueryOne(ctx, r.db, q, args, scanExtraction)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &stored, nil
}

func (r *repo) Find(ctx context.Context, tenderID uuid.UUID, key FieldKey) (*FieldExtraction, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidField, key)
	}

	q := `
		SELECT tender_id, field_key, value, confidence, citations, extracted_at
		FROM field_extractions
		WHERE tender_id = $1 AND field_key = $2`

	fe, err := repository.QueryOne(ctx, r.db, q, []any{tenderID, key}, scanExtraction)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &fe, nil
}

func (r *repo) ListByTender(ctx context.Context, tenderID uuid.UUID) ([]FieldExtraction, error) {
	q := `
		SELECT tender_id, field_key, value, confidence, citations, extracted_at
		FROM field_extractions
		WHERE tender_id = $1
		ORDER BY field_key`

	items, err := repository.QueryMany(ctx, r.db, q, []any{tenderID}, scanExtraction)
	if err != nil {
		return nil, fmt.Errorf("query extractions: %w", err)
	}
	return items, nil
}

func scanExtraction(s repository.Scanner) (FieldExtraction, error) {
	var fe FieldExtraction
	err := s.Scan(
		&fe.TenderID,
		&fe.FieldKey,
		&fe.Value,
		&fe.Confidence,
		&fe.Citations,
		&fe.ExtractedAt,
	)
	return fe, err
}
