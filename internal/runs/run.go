package runs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Run is one execution of a pipeline against a tender.
type Run struct {
	ID           uuid.UUID  `json:"id"`
	TenderID     uuid.UUID  `json:"tender_id"`
	PipelineName string     `json:"pipeline_name"`
	Status       Status     `json:"status"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// CreateCommand carries the fields required to enqueue a run.
type CreateCommand struct {
	TenderID     uuid.UUID `json:"tender_id"`
	PipelineName string    `json:"pipeline_name"`
}

// LogEntry is one append-only record of run progress. Seq is the execution
// order within the run; replaying entries in seq order reconstructs the run.
type LogEntry struct {
	ID       int64           `json:"id"`
	RunID    uuid.UUID       `json:"run_id"`
	Seq      int             `json:"seq"`
	Level    string          `json:"level"`
	StepID   *string         `json:"step_id,omitempty"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data,omitempty"`
	LoggedAt time.Time       `json:"logged_at"`
}

// LogCommand carries the caller-supplied fields of a log entry. Seq and
// timestamps are assigned on insert.
type LogCommand struct {
	Level   string          `json:"level"`
	StepID  *string         `json:"step_id,omitempty"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}
