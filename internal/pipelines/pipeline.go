// Package pipelines implements the pipeline definition domain. Definitions
// are validated before any run exists; a stored definition is immutable per
// version, and updates bump the version.
package pipelines

import (
	"time"

	"github.com/google/uuid"
)

// StepType identifies one of the closed set of step handlers.
type StepType string

// The closed set of step types the runner dispatches on. Definitions with
// any other value are rejected at creation time.
const (
	StepPrepare       StepType = "prepare"
	StepExtract       StepType = "extract"
	StepChecklist     StepType = "checklist"
	StepSummary       StepType = "summary"
	StepHumanApproval StepType = "human-approval"
	StepNotify        StepType = "notify"
)

// Valid reports whether the step type is registered.
func (t StepType) Valid() bool {
	switch t {
	case StepPrepare, StepExtract, StepChecklist, StepSummary, StepHumanApproval, StepNotify:
		return true
	}
	return false
}

// StepDefinition configures one step in a pipeline.
type StepDefinition struct {
	ID              string         `yaml:"id" json:"id" validate:"required"`
	Name            string         `yaml:"name,omitempty" json:"name,omitempty"`
	Uses            StepType       `yaml:"uses" json:"uses" validate:"required"`
	With            map[string]any `yaml:"with,omitempty" json:"with,omitempty"`
	Timeout         string         `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Retries         int            `yaml:"retries,omitempty" json:"retries,omitempty" validate:"gte=0,lte=10"`
	ContinueOnError bool           `yaml:"continue_on_error,omitempty" json:"continue_on_error,omitempty"`
}

// Definition is the full pipeline document as authored in YAML or JSON.
type Definition struct {
	Name        string           `yaml:"name" json:"name" validate:"required"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	Version     int              `yaml:"version" json:"version" validate:"gte=1"`
	Steps       []StepDefinition `yaml:"steps" json:"steps" validate:"required,min=1,dive"`
	Settings    map[string]any   `yaml:"settings,omitempty" json:"settings,omitempty"`
}

// Pipeline is a stored, validated pipeline definition.
type Pipeline struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Version     int        `json:"version"`
	Definition  Definition `json:"definition"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
