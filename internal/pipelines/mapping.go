package pipelines

import (
	"encoding/json"
	"net/url"

	"github.com/gavelworks/gavel/pkg/query"
	"github.com/gavelworks/gavel/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "pipelines", "p").
	Project("id", "ID").
	Project("name", "Name").
	Project("description", "Description").
	Project("version", "Version").
	Project("definition", "Definition").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field: "Name",
}

// Filters contains optional filtering criteria for pipeline queries.
// Nil fields are ignored.
type Filters struct {
	Name *string `json:"name,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.WhereContains("Name", f.Name)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("name"); v != "" {
		f.Name = &v
	}

	return f
}

func scanPipeline(s repository.Scanner) (Pipeline, error) {
	var p Pipeline
	var definition []byte

	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Version,
		&definition,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return p, err
	}

	if err := json.Unmarshal(definition, &p.Definition); err != nil {
		return p, err
	}
	return p, nil
}
