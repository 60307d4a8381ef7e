package tenders

import (
	"net/url"

	"github.com/gavelworks/gavel/pkg/query"
	"github.com/gavelworks/gavel/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "tenders", "t").
	Project("id", "ID").
	Project("reference", "Reference").
	Project("title", "Title").
	Project("status", "Status").
	Project("deadline", "Deadline").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for tender queries.
// Nil fields are ignored.
type Filters struct {
	Status    *string `json:"status,omitempty"`
	Reference *string `json:"reference,omitempty"`
	Title     *string `json:"title,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereContains("Reference", f.Reference).
		WhereContains("Title", f.Title)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("status"); v != "" {
		f.Status = &v
	}
	if v := values.Get("reference"); v != "" {
		f.Reference = &v
	}
	if v := values.Get("title"); v != "" {
		f.Title = &v
	}

	return f
}

func scanTender(s repository.Scanner) (Tender, error) {
	var t Tender
	err := s.Scan(
		&t.ID,
		&t.Reference,
		&t.Title,
		&t.Status,
		&t.Deadline,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}
