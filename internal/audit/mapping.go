package audit

import (
	"net/url"
	"time"

	"github.com/gavelworks/gavel/pkg/query"
	"github.com/gavelworks/gavel/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "audit_log", "a").
	Project("id", "ID").
	Project("actor_id", "ActorID").
	Project("action", "Action").
	Project("entity", "Entity").
	Project("entity_id", "EntityID").
	Project("before", "Before").
	Project("after", "After").
	Project("occurred_at", "OccurredAt")

var defaultSort = query.SortField{
	Field:      "OccurredAt",
	Descending: true,
}

// Filters contains optional filtering criteria for audit queries.
// Nil fields are ignored.
type Filters struct {
	ActorID  *string    `json:"actor_id,omitempty"`
	Action   *string    `json:"action,omitempty"`
	Entity   *string    `json:"entity,omitempty"`
	EntityID *string    `json:"entity_id,omitempty"`
	Before   *time.Time `json:"before,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("ActorID", f.ActorID).
		WhereContains("Action", f.Action).
		WhereEquals("Entity", f.Entity).
		WhereEquals("EntityID", f.EntityID).
		WhereBefore("OccurredAt", f.Before)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("actor_id"); v != "" {
		f.ActorID = &v
	}
	if v := values.Get("action"); v != "" {
		f.Action = &v
	}
	if v := values.Get("entity"); v != "" {
		f.Entity = &v
	}
	if v := values.Get("entity_id"); v != "" {
		f.EntityID = &v
	}
	if v := values.Get("before"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.Before = &t
		}
	}

	return f
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var e Entry
	err := s.Scan(
		&e.ID,
		&e.ActorID,
		&e.Action,
		&e.Entity,
		&e.EntityID,
		&e.Before,
		&e.After,
		&e.OccurredAt,
	)
	return e, err
}
