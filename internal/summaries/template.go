package summaries

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gavelworks/gavel/internal/documents"
	"github.com/gavelworks/gavel/internal/extraction"
	"github.com/gavelworks/gavel/internal/tenders"
)

// ErrSectionEmpty signals that a section has no material to render. Fatal
// for required sections; optional sections are logged and skipped.
var ErrSectionEmpty = errors.New("no content for summary section")

// SectionContext carries the inputs available to section composition.
type SectionContext struct {
	Tender      *tenders.Tender
	Documents   []documents.Document
	Extractions map[extraction.FieldKey]extraction.FieldExtraction
}

// TemplateSection describes one section of a summary template. Fields names
// the extractions whose citations the section inherits.
type TemplateSection struct {
	Key      string                `json:"key"`
	Title    string                `json:"title"`
	Required bool                  `json:"required"`
	Position int                   `json:"position"`
	Fields   []extraction.FieldKey `json:"fields"`

	// Compose produces the section body text. Returns ErrSectionEmpty when
	// the inputs hold nothing worth rendering.
	Compose func(sc SectionContext) (string, error) `json:"-"`
}

// Template is a fixed summary definition, registered in code and exposed
// read-only.
type Template struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Sections []TemplateSection `json:"sections"`
}

// TemplateTenderBrief is the id of the default summary template.
const TemplateTenderBrief = "tender-brief"

var catalog = map[string]Template{
	TemplateTenderBrief: {
		ID:   TemplateTenderBrief,
		Name: "Tender Brief",
		Sections: []TemplateSection{
			{
				Key:      "overview",
				Title:    "Overview",
				Required: true,
				Position: 1,
				Compose:  composeOverview,
			},
			{
				Key:      "scope",
				Title:    "Scope",
				Required: true,
				Position: 2,
				Fields:   []extraction.FieldKey{extraction.FieldScope},
				Compose:  composeField(extraction.FieldScope, "The tender covers: %s"),
			},
			{
				Key:      "key-dates",
				Title:    "Key Dates",
				Position: 3,
				Fields:   []extraction.FieldKey{extraction.FieldDeadline},
				Compose:  composeKeyDates,
			},
			{
				Key:      "budget",
				Title:    "Budget",
				Position: 4,
				Fields:   []extraction.FieldKey{extraction.FieldBudget},
				Compose:  composeBudget,
			},
			{
				Key:      "authority",
				Title:    "Contracting Authority",
				Position: 5,
				Fields:   []extraction.FieldKey{extraction.FieldAuthority},
				Compose:  composeField(extraction.FieldAuthority, "Contracting authority: %s"),
			},
			{
				Key:      "submission",
				Title:    "Submission",
				Position: 6,
				Fields:   []extraction.FieldKey{extraction.FieldSubmission},
				Compose:  composeField(extraction.FieldSubmission, "Submission route: %s"),
			},
		},
	},
}

// Templates returns every registered summary template.
func Templates() []Template {
	return []Template{catalog[TemplateTenderBrief]}
}

// FindTemplate returns the template registered under the given id.
func FindTemplate(id string) (Template, bool) {
	t, ok := catalog[id]
	return t, ok
}

func composeOverview(sc SectionContext) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (%s), status %s.", sc.Tender.Title, sc.Tender.Reference, sc.Tender.Status)
	fmt.Fprintf(&b, " %d document(s) on file.", len(sc.Documents))
	if sc.Tender.Deadline != nil {
		fmt.Fprintf(&b, " Registered deadline %s.", sc.Tender.Deadline.Format("2006-01-02"))
	}
	return b.String(), nil
}

// composeField renders a string-shaped extraction through a sentence format.
func composeField(key extraction.FieldKey, format string) func(SectionContext) (string, error) {
	return func(sc SectionContext) (string, error) {
		value, ok := stringField(sc, key)
		if !ok {
			return "", fmt.Errorf("%w: field %s", ErrSectionEmpty, key)
		}
		return fmt.Sprintf(format, value), nil
	}
}

func composeKeyDates(sc SectionContext) (string, error) {
	value, ok := stringField(sc, extraction.FieldDeadline)
	if !ok {
		return "", fmt.Errorf("%w: field %s", ErrSectionEmpty, extraction.FieldDeadline)
	}
	return fmt.Sprintf("Submission deadline extracted from the documents: %s.", value), nil
}

func composeBudget(sc SectionContext) (string, error) {
	fe, ok := sc.Extractions[extraction.FieldBudget]
	if !ok {
		return "", fmt.Errorf("%w: field %s", ErrSectionEmpty, extraction.FieldBudget)
	}

	var budget struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	}
	if err := json.Unmarshal(fe.Value, &budget); err != nil {
		return "", fmt.Errorf("decode budget value: %w", err)
	}
	return fmt.Sprintf("Estimated value %.2f %s.", budget.Amount, budget.Currency), nil
}

func stringField(sc SectionContext, key extraction.FieldKey) (string, bool) {
	fe, ok := sc.Extractions[key]
	if !ok {
		return "", false
	}

	var value string
	if err := json.Unmarshal(fe.Value, &value); err != nil || value == "" {
		return "", false
	}
	return value, true
}
