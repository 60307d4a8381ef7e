package query

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// predicate is one WHERE clause fragment. The clause carries "$%d"
// placeholders that are numbered when the statement is rendered.
type predicate struct {
	clause string
	args   []any
}

// SortField is one column of an ORDER BY clause. Field is the logical view
// name resolved through the projection; Descending flips the direction.
type SortField struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// Builder accumulates predicates and ordering against a projection and
// renders SELECT statements with sequential parameter numbering.
type Builder struct {
	projection        *ProjectionMap
	predicates        []predicate
	orderByFields     []SortField
	defaultSortFields []SortField
}

// NewBuilder creates a Builder over projection. defaultSort applies when no
// explicit order is set.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:        projection,
		predicates:        make([]predicate, 0),
		defaultSortFields: defaultSort,
	}
}

// ParseSortFields reads a comma-separated sort expression such as
// "name,-created_at", where a "-" prefix means descending. Empty input
// yields nil.
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	fields := make([]SortField, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if after, ok := strings.CutPrefix(part, "-"); ok {
			fields = append(fields, SortField{Field: after, Descending: true})
		} else {
			fields = append(fields, SortField{Field: part, Descending: false})
		}
	}

	return fields
}

// WhereContains adds a case-insensitive substring match. Nil or empty
// values are skipped.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	b.predicates = append(b.predicates, predicate{
		clause: fmt.Sprintf("%s ILIKE $%%d", b.projection.Column(field)),
		args:   []any{"%" + *value + "%"},
	})
	return b
}

// WhereEquals adds an equality match. Nil values, including typed nil
// pointers, are skipped.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	b.predicates = append(b.predicates, predicate{
		clause: fmt.Sprintf("%s = $%%d", b.projection.Column(field)),
		args:   []any{value},
	})
	return b
}

// WhereIn adds an IN match over values. Empty slices are skipped.
func (b *Builder) WhereIn(field string, values []any) *Builder {
	if len(values) == 0 {
		return b
	}

	placeholders := make([]string, len(values))
	for i := range values {
		placeholders[i] = "$%d"
	}
	b.predicates = append(b.predicates, predicate{
		clause: fmt.Sprintf("%s IN (%s)", b.projection.Column(field), strings.Join(placeholders, ", ")),
		args:   values,
	})
	return b
}

// WhereBefore adds a strict less-than match on a timestamp column. Nil
// values are skipped.
func (b *Builder) WhereBefore(field string, value *time.Time) *Builder {
	if value == nil {
		return b
	}
	b.predicates = append(b.predicates, predicate{
		clause: fmt.Sprintf("%s < $%%d", b.projection.Column(field)),
		args:   []any{*value},
	})
	return b
}

// WhereSearch adds ILIKE matches OR-ed across fields. Nil or empty search
// text is skipped.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	pattern := "%" + *search + "%"

	for i, field := range fields {
		clauses[i] = fmt.Sprintf("%s ILIKE $%%d", b.projection.Column(field))
		args[i] = pattern
	}

	b.predicates = append(b.predicates, predicate{
		clause: "(" + strings.Join(clauses, " OR ") + ")",
		args:   args,
	})
	return b
}

// OrderByFields overrides the default sort order.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.orderByFields = fields
	return b
}

// Build renders a SELECT over the full projection with the accumulated
// predicates and ordering.
func (b *Builder) Build() (string, []any) {
	where, args, _ := b.whereClause(1)

	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s",
		b.projection.Columns(),
		b.projection.From(),
		where,
		b.orderByClause(),
	)

	return sql, args
}

// BuildCount renders a COUNT(*) with the accumulated predicates.
func (b *Builder) BuildCount() (string, []any) {
	where, args, _ := b.whereClause(1)
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.projection.From(), where), args
}

// BuildPage renders a SELECT with ordering, LIMIT, and OFFSET for the
// given 1-based page.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	where, args, _ := b.whereClause(1)

	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s LIMIT %d OFFSET %d",
		b.projection.Columns(),
		b.projection.From(),
		where,
		b.orderByClause(),
		pageSize,
		(page-1)*pageSize,
	)

	return sql, args
}

// BuildSingle renders a single-record SELECT keyed on idField.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		b.projection.Columns(),
		b.projection.From(),
		b.projection.Column(idField),
	)
	return sql, []any{id}
}

func (b *Builder) orderByClause() string {
	fields := b.orderByFields
	if len(fields) == 0 {
		fields = b.defaultSortFields
	}
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = b.projection.Column(f.Field) + " " + dir
	}

	return " ORDER BY " + strings.Join(parts, ", ")
}

// whereClause renders the WHERE clause, replacing each "$%d" placeholder
// with the next parameter number starting at startParam.
func (b *Builder) whereClause(startParam int) (string, []any, int) {
	if len(b.predicates) == 0 {
		return "", nil, startParam
	}

	clauses := make([]string, 0, len(b.predicates))
	args := make([]any, 0)
	n := startParam

	for _, p := range b.predicates {
		clause := p.clause
		for _, arg := range p.args {
			clause = strings.Replace(clause, "$%d", fmt.Sprintf("$%d", n), 1)
			args = append(args, arg)
			n++
		}
		clauses = append(clauses, clause)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args, n
}

// isNil treats typed nil pointers and slices inside an interface as nil.
func isNil(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}

	return false
}
