package pipelines

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gavelworks/gavel/internal/checklists"
	"github.com/gavelworks/gavel/internal/summaries"
)

// knownFieldKeys mirrors the extraction engine's fixed field set. Definitions
// referencing any other key are configuration errors.
var knownFieldKeys = map[string]bool{
	"scope":      true,
	"deadline":   true,
	"budget":     true,
	"authority":  true,
	"submission": true,
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseDefinition decodes a pipeline document from YAML or JSON bytes and
// validates it. YAML decoding covers both encodings.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, &ValidationError{Issues: []Issue{{
			Field:   "definition",
			Message: fmt.Sprintf("parse failed: %v", err),
		}}}
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks the definition's structure and step parameters. It returns
// a *ValidationError carrying every issue found, never just the first.
func (d *Definition) Validate() error {
	var issues []Issue

	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				issues = append(issues, Issue{
					Field:   strings.ToLower(fe.Namespace()),
					Message: fmt.Sprintf("failed %s validation", fe.Tag()),
				})
			}
		} else {
			issues = append(issues, Issue{Field: "definition", Message: err.Error()})
		}
	}

	seen := make(map[string]bool, len(d.Steps))
	for i, step := range d.Steps {
		prefix := fmt.Sprintf("steps[%d]", i)

		if step.ID != "" {
			if seen[step.ID] {
				issues = append(issues, Issue{
					Field:   prefix + ".id",
					Message: fmt.Sprintf("duplicate step id %q", step.ID),
				})
			}
			seen[step.ID] = true
		}

		if step.Uses != "" && !step.Uses.Valid() {
			issues = append(issues, Issue{
				Field:   prefix + ".uses",
				Message: fmt.Sprintf("unknown step type %q", step.Uses),
			})
		}

		if step.Timeout != "" {
			if _, err := time.ParseDuration(step.Timeout); err != nil {
				issues = append(issues, Issue{
					Field:   prefix + ".timeout",
					Message: fmt.Sprintf("invalid duration %q", step.Timeout),
				})
			}
		}

		issues = append(issues, validateStepParams(prefix, step)...)
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func validateStepParams(prefix string, step StepDefinition) []Issue {
	var issues []Issue

	switch step.Uses {
	case StepExtract:
		fields, ok := stringSlice(step.With["fields"])
		if !ok || len(fields) == 0 {
			issues = append(issues, Issue{
				Field:   prefix + ".with.fields",
				Message: "extract step requires a non-empty fields list",
			})
			break
		}
		for _, f := range fields {
			if !knownFieldKeys[f] {
				issues = append(issues, Issue{
					Field:   prefix + ".with.fields",
					Message: fmt.Sprintf("unknown field key %q", f),
				})
			}
		}
	case StepChecklist:
		if id, issue := templateParam(prefix, step); issue != nil {
			issues = append(issues, *issue)
		} else if _, ok := checklists.FindTemplate(id); !ok {
			issues = append(issues, Issue{
				Field:   prefix + ".with.template_id",
				Message: fmt.Sprintf("unknown checklist template %q", id),
			})
		}
	case StepSummary:
		if id, issue := templateParam(prefix, step); issue != nil {
			issues = append(issues, *issue)
		} else if _, ok := summaries.FindTemplate(id); !ok {
			issues = append(issues, Issue{
				Field:   prefix + ".with.template_id",
				Message: fmt.Sprintf("unknown summary template %q", id),
			})
		}
	}

	return issues
}

// templateParam reads a checklist or summary step's template_id, returning
// an issue when it is missing or blank.
func templateParam(prefix string, step StepDefinition) (string, *Issue) {
	id, _ := step.With["template_id"].(string)
	if strings.TrimSpace(id) == "" {
		return "", &Issue{
			Field:   prefix + ".with.template_id",
			Message: fmt.Sprintf("%s step requires template_id", step.Uses),
		}
	}
	return id, nil
}

// FieldsFor returns the configured extraction field keys of an extract step.
func (s StepDefinition) FieldsFor() []string {
	fields, _ := stringSlice(s.With["fields"])
	return fields
}

// TemplateID returns the configured template id of a checklist or summary step.
func (s StepDefinition) TemplateID() string {
	id, _ := s.With["template_id"].(string)
	return id
}

// TimeoutDuration returns the step timeout, or def when unset.
func (s StepDefinition) TimeoutDuration(def time.Duration) time.Duration {
	if s.Timeout == "" {
		return def
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return def
	}
	return d
}

// stringSlice coerces the loosely-typed decoded value into []string.
// YAML decodes sequences as []any; JSON round-trips may carry []string.
func stringSlice(v any) ([]string, bool) {
	switch vals := v.(type) {
	case []string:
		return vals, true
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
