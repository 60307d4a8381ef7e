package pipelines_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gavelworks/gavel/internal/pipelines"
)

const validYAML = `
name: tender-intake
description: Standard intake flow
version: 1
steps:
  - id: prepare
    uses: prepare
  - id: extract
    uses: extract
    retries: 2
    with:
      fields: [scope, deadline, budget]
  - id: checklist
    uses: checklist
    with:
      template_id: standard-tender
  - id: review
    uses: human-approval
`

func TestParseDefinitionValid(t *testing.T) {
	def, err := pipelines.ParseDefinition([]byte(validYAML))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if def.Name != "tender-intake" {
		t.Errorf("Name = %q, want tender-intake", def.Name)
	}
	if len(def.Steps) != 4 {
		t.Fatalf("Steps = %d, want 4", len(def.Steps))
	}
	if def.Steps[1].Uses != pipelines.StepExtract {
		t.Errorf("Steps[1].Uses = %q, want extract", def.Steps[1].Uses)
	}

	fields := def.Steps[1].FieldsFor()
	if len(fields) != 3 || fields[0] != "scope" {
		t.Errorf("FieldsFor() = %v, want [scope deadline budget]", fields)
	}
	if got := def.Steps[2].TemplateID(); got != "standard-tender" {
		t.Errorf("TemplateID() = %q, want standard-tender", got)
	}
}

func TestParseDefinitionJSON(t *testing.T) {
	doc := `{"name":"minimal","version":1,"steps":[{"id":"prep","uses":"prepare"}]}`

	def, err := pipelines.ParseDefinition([]byte(doc))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if def.Steps[0].Uses != pipelines.StepPrepare {
		t.Errorf("Steps[0].Uses = %q, want prepare", def.Steps[0].Uses)
	}
}

func TestParseDefinitionInvalid(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing name",
			doc:       "version: 1\nsteps:\n  - id: prep\n    uses: prepare\n",
			wantField: "definition.name",
			wantMsg:   "required",
		},
		{
			name:      "no steps",
			doc:       "name: empty\nversion: 1\nsteps: []\n",
			wantField: "definition.steps",
			wantMsg:   "min",
		},
		{
			name:      "unknown step type",
			doc:       "name: p\nversion: 1\nsteps:\n  - id: x\n    uses: teleport\n",
			wantField: "steps[0].uses",
			wantMsg:   `unknown step type "teleport"`,
		},
		{
			name: "duplicate step ids",
			doc: "name: p\nversion: 1\nsteps:\n" +
				"  - id: a\n    uses: prepare\n" +
				"  - id: a\n    uses: notify\n",
			wantField: "steps[1].id",
			wantMsg:   `duplicate step id "a"`,
		},
		{
			name:      "invalid timeout",
			doc:       "name: p\nversion: 1\nsteps:\n  - id: a\n    uses: prepare\n    timeout: fast\n",
			wantField: "steps[0].timeout",
			wantMsg:   `invalid duration "fast"`,
		},
		{
			name:      "extract without fields",
			doc:       "name: p\nversion: 1\nsteps:\n  - id: a\n    uses: extract\n",
			wantField: "steps[0].with.fields",
			wantMsg:   "non-empty fields list",
		},
		{
			name: "extract with unknown field key",
			doc: "name: p\nversion: 1\nsteps:\n  - id: a\n    uses: extract\n    with:\n" +
				"      fields: [scope, warranty]\n",
			wantField: "steps[0].with.fields",
			wantMsg:   `unknown field key "warranty"`,
		},
		{
			name:      "checklist without template",
			doc:       "name: p\nversion: 1\nsteps:\n  - id: a\n    uses: checklist\n",
			wantField: "steps[0].with.template_id",
			wantMsg:   "requires template_id",
		},
		{
			name: "checklist with unknown template",
			doc: "name: p\nversion: 1\nsteps:\n  - id: a\n    uses: checklist\n    with:\n" +
				"      template_id: bespoke-checklist\n",
			wantField: "steps[0].with.template_id",
			wantMsg:   `unknown checklist template "bespoke-checklist"`,
		},
		{
			name: "summary with unknown template",
			doc: "name: p\nversion: 1\nsteps:\n  - id: a\n    uses: summary\n    with:\n" +
				"      template_id: annual-report\n",
			wantField: "steps[0].with.template_id",
			wantMsg:   `unknown summary template "annual-report"`,
		},
		{
			name:      "retries out of range",
			doc:       "name: p\nversion: 1\nsteps:\n  - id: a\n    uses: prepare\n    retries: 99\n",
			wantField: "definition.steps[0].retries",
			wantMsg:   "lte",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pipelines.ParseDefinition([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var verr *pipelines.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}

			found := false
			for _, issue := range verr.Issues {
				if issue.Field == tt.wantField && strings.Contains(issue.Message, tt.wantMsg) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("issues %v missing field %q message %q", verr.Issues, tt.wantField, tt.wantMsg)
			}
		})
	}
}

func TestParseDefinitionCollectsAllIssues(t *testing.T) {
	doc := "name: p\nversion: 1\nsteps:\n" +
		"  - id: a\n    uses: teleport\n" +
		"  - id: a\n    uses: extract\n"

	_, err := pipelines.ParseDefinition([]byte(doc))
	var verr *pipelines.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if len(verr.Issues) < 3 {
		t.Errorf("Issues = %d, want at least 3 (unknown type, duplicate id, missing fields)", len(verr.Issues))
	}
}

func TestStepTimeoutDuration(t *testing.T) {
	def := 2 * time.Minute

	tests := []struct {
		name    string
		timeout string
		want    time.Duration
	}{
		{name: "unset uses default", timeout: "", want: def},
		{name: "explicit", timeout: "30s", want: 30 * time.Second},
		{name: "unparsable uses default", timeout: "soon", want: def},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := pipelines.StepDefinition{Timeout: tt.timeout}
			if got := step.TimeoutDuration(def); got != tt.want {
				t.Errorf("TimeoutDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}
