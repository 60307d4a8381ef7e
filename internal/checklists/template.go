package checklists

import (
	"github.com/gavelworks/gavel/internal/extraction"
	"github.com/gavelworks/gavel/internal/tenders"
)

// TemplateItem describes one verifiable point in a checklist template. It is
// evaluated against the stored extraction for FieldKey:
//   - extraction present at or above Threshold: OK
//   - extraction present below Threshold: PENDING
//   - extraction absent: MISSING
//   - Applies returns false for the tender: N_A
type TemplateItem struct {
	Key       string              `json:"key"`
	Label     string              `json:"label"`
	FieldKey  extraction.FieldKey `json:"field_key"`
	Threshold float64             `json:"threshold"`
	Optional  bool                `json:"optional"`

	// Applies reports whether the item is relevant for the tender. Nil
	// means always relevant.
	Applies func(t *tenders.Tender) bool `json:"-"`
}

// Template is a fixed checklist definition. Templates are registered in code
// and exposed read-only.
type Template struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Items []TemplateItem `json:"items"`
}

// TemplateStandardTender is the id of the default tender checklist.
const TemplateStandardTender = "standard-tender"

var catalog = map[string]Template{
	TemplateStandardTender: {
		ID:   TemplateStandardTender,
		Name: "Standard Tender Checklist",
		Items: []TemplateItem{
			{
				Key:       "scope-identified",
				Label:     "Scope of work identified",
				FieldKey:  extraction.FieldScope,
				Threshold: 0.5,
			},
			{
				Key:       "deadline-confirmed",
				Label:     "Submission deadline confirmed",
				FieldKey:  extraction.FieldDeadline,
				Threshold: 0.6,
				Applies: func(t *tenders.Tender) bool {
					// A tender registered without a deadline has nothing
					// to confirm against.
					return t.Deadline != nil
				},
			},
			{
				Key:       "budget-identified",
				Label:     "Estimated budget identified",
				FieldKey:  extraction.FieldBudget,
				Threshold: 0.5,
				Optional:  true,
			},
			{
				Key:       "authority-identified",
				Label:     "Contracting authority identified",
				FieldKey:  extraction.FieldAuthority,
				Threshold: 0.5,
			},
			{
				Key:       "submission-route-identified",
				Label:     "Submission route identified",
				FieldKey:  extraction.FieldSubmission,
				Threshold: 0.5,
			},
		},
	},
}

// Templates returns every registered checklist template in id order.
func Templates() []Template {
	return []Template{catalog[TemplateStandardTender]}
}

// FindTemplate returns the template registered under the given id.
func FindTemplate(id string) (Template, bool) {
	t, ok := catalog[id]
	return t, ok
}
