package runs

import (
	"net/url"

	"github.com/gavelworks/gavel/pkg/query"
	"github.com/gavelworks/gavel/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "runs", "r").
	Project("id", "ID").
	Project("tender_id", "TenderID").
	Project("pipeline_name", "PipelineName").
	Project("status", "Status").
	Project("started_at", "StartedAt").
	Project("finished_at", "FinishedAt").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for run queries.
// Nil fields are ignored.
type Filters struct {
	TenderID     *string `json:"tender_id,omitempty"`
	Status       *string `json:"status,omitempty"`
	PipelineName *string `json:"pipeline_name,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("TenderID", f.TenderID).
		WhereEquals("Status", f.Status).
		WhereEquals("PipelineName", f.PipelineName)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("tender_id"); v != "" {
		f.TenderID = &v
	}
	if v := values.Get("status"); v != "" {
		f.Status = &v
	}
	if v := values.Get("pipeline"); v != "" {
		f.PipelineName = &v
	}

	return f
}

func scanRun(s repository.Scanner) (Run, error) {
	var r Run
	err := s.Scan(
		&r.ID,
		&r.TenderID,
		&r.PipelineName,
		&r.Status,
		&r.StartedAt,
		&r.FinishedAt,
		&r.CreatedAt,
	)
	return r, err
}

func scanLogEntry(s repository.Scanner) (LogEntry, error) {
	var e LogEntry
	err := s.Scan(
		&e.ID,
		&e.RunID,
		&e.Seq,
		&e.Level,
		&e.StepID,
		&e.Message,
		&e.Data,
		&e.LoggedAt,
	)
	return e, err
}
