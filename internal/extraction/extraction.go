// Package extraction implements pattern-based field extraction. A fixed rule
// table matches trace link snippets against per-field patterns, scores the
// candidates, and persists the winning value with its supporting citations.
package extraction

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FieldKey identifies one of the fixed extractable tender fields.
type FieldKey string

// The closed set of extractable fields.
const (
	FieldScope      FieldKey = "scope"
	FieldDeadline   FieldKey = "deadline"
	FieldBudget     FieldKey = "budget"
	FieldAuthority  FieldKey = "authority"
	FieldSubmission FieldKey = "submission"
)

// FieldKeys returns every extractable field key in a fixed order.
func FieldKeys() []FieldKey {
	return []FieldKey{FieldScope, FieldDeadline, FieldBudget, FieldAuthority, FieldSubmission}
}

// Valid reports whether the key belongs to the fixed field set.
func (k FieldKey) Valid() bool {
	switch k {
	case FieldScope, FieldDeadline, FieldBudget, FieldAuthority, FieldSubmission:
		return true
	}
	return false
}

// Citations is a ranked list of trace link ids stored as a JSONB column.
type Citations []uuid.UUID

// Value implements driver.Valuer.
func (c Citations) Value() (driver.Value, error) {
	if c == nil {
		c = Citations{}
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *Citations) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = nil
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("citations: unsupported scan type %T", src)
	}
}

// FieldExtraction is the persisted result of extracting one field for one
// tender. Reruns replace the row; (tender_id, field_key) is the primary key.
type FieldExtraction struct {
	TenderID    uuid.UUID       `json:"tender_id"`
	FieldKey    FieldKey        `json:"field_key"`
	Value       json.RawMessage `json:"value"`
	Confidence  float64         `json:"confidence"`
	Citations   Citations       `json:"citations"`
	ExtractedAt time.Time       `json:"extracted_at"`
}

// Options control candidate filtering and result shape for one extraction.
type Options struct {
	RequireCitations bool    `json:"require_citations"`
	MinConfidence    float64 `json:"min_confidence"`
	MaxResults       int     `json:"max_results"`
}

// DefaultOptions returns the option values applied when a pipeline step
// omits them.
func DefaultOptions() Options {
	return Options{
		RequireCitations: true,
		MinConfidence:    0.3,
		MaxResults:       5,
	}
}
