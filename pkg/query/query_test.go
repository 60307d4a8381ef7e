package query_test

import (
	"testing"
	"time"

	"github.com/gavelworks/gavel/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "tenders", "t").
		Project("id", "ID").
		Project("reference", "Reference").
		Project("created_at", "CreatedAt")
}

func ptr(s string) *string { return &s }

func TestProjectionMapFrom(t *testing.T) {
	p := testProjection()
	if got, want := p.From(), "public.tenders t"; got != want {
		t.Errorf("From() = %q, want %q", got, want)
	}
}

func TestProjectionMapAlias(t *testing.T) {
	p := testProjection()
	if got := p.Alias(); got != "t" {
		t.Errorf("Alias() = %q, want %q", got, "t")
	}
}

func TestProjectionMapColumns(t *testing.T) {
	p := testProjection()
	if got, want := p.Columns(), "t.id, t.reference, t.created_at"; got != want {
		t.Errorf("Columns() = %q, want %q", got, want)
	}
}

func TestProjectionMapColumnLookup(t *testing.T) {
	p := testProjection()

	tests := []struct {
		name     string
		viewName string
		want     string
	}{
		{"mapped field", "Reference", "t.reference"},
		{"mapped timestamp", "CreatedAt", "t.created_at"},
		{"unmapped passthrough", "unknown", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Column(tt.viewName); got != tt.want {
				t.Errorf("Column(%q) = %q, want %q", tt.viewName, got, tt.want)
			}
		})
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{
			name:  "empty string",
			input: "",
			want:  nil,
		},
		{
			name:  "single ascending",
			input: "Reference",
			want:  []query.SortField{{Field: "Reference", Descending: false}},
		},
		{
			name:  "single descending",
			input: "-CreatedAt",
			want:  []query.SortField{{Field: "CreatedAt", Descending: true}},
		},
		{
			name:  "multiple mixed",
			input: "Reference,-CreatedAt",
			want: []query.SortField{
				{Field: "Reference", Descending: false},
				{Field: "CreatedAt", Descending: true},
			},
		},
		{
			name:  "with spaces",
			input: " Reference , -CreatedAt ",
			want: []query.SortField{
				{Field: "Reference", Descending: false},
				{Field: "CreatedAt", Descending: true},
			},
		},
		{
			name:  "empty parts skipped",
			input: "Reference,,CreatedAt",
			want: []query.SortField{
				{Field: "Reference", Descending: false},
				{Field: "CreatedAt", Descending: false},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseSortFields(%q) length = %d, want %d", tt.input, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseSortFields(%q)[%d] = %v, want %v", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuilderBuild(t *testing.T) {
	b := query.NewBuilder(testProjection())
	sql, args := b.Build()

	wantSQL := "SELECT t.id, t.reference, t.created_at FROM public.tenders t"
	if sql != wantSQL {
		t.Errorf("Build() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 0 {
		t.Errorf("Build() args = %v, want empty", args)
	}
}

func TestBuilderBuildCount(t *testing.T) {
	b := query.NewBuilder(testProjection())
	b.WhereEquals("Reference", "TND-2026-001")
	sql, args := b.BuildCount()

	wantSQL := "SELECT COUNT(*) FROM public.tenders t WHERE t.reference = $1"
	if sql != wantSQL {
		t.Errorf("BuildCount() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "TND-2026-001" {
		t.Errorf("BuildCount() args = %v", args)
	}
}

func TestBuilderBuildPage(t *testing.T) {
	b := query.NewBuilder(testProjection(), query.SortField{Field: "CreatedAt", Descending: true})
	b.WhereContains("Reference", ptr("2026"))
	sql, args := b.BuildPage(3, 25)

	wantSQL := "SELECT t.id, t.reference, t.created_at FROM public.tenders t WHERE t.reference ILIKE $1 ORDER BY t.created_at DESC LIMIT 25 OFFSET 50"
	if sql != wantSQL {
		t.Errorf("BuildPage() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "%2026%" {
		t.Errorf("BuildPage() args = %v", args)
	}
}

func TestBuilderBuildSingle(t *testing.T) {
	b := query.NewBuilder(testProjection())
	sql, args := b.BuildSingle("ID", "abc-123")

	wantSQL := "SELECT t.id, t.reference, t.created_at FROM public.tenders t WHERE t.id = $1"
	if sql != wantSQL {
		t.Errorf("BuildSingle() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "abc-123" {
		t.Errorf("BuildSingle() args = %v, want [abc-123]", args)
	}
}

func TestBuilderWhereEqualsNilSkipped(t *testing.T) {
	b := query.NewBuilder(testProjection())
	b.WhereEquals("Reference", nil)

	var typedNil *string
	b.WhereEquals("Reference", typedNil)

	sql, args := b.Build()
	wantSQL := "SELECT t.id, t.reference, t.created_at FROM public.tenders t"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderWhereContainsEmptySkipped(t *testing.T) {
	b := query.NewBuilder(testProjection())
	b.WhereContains("Reference", nil)
	b.WhereContains("Reference", ptr(""))

	if _, args := b.Build(); len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderWhereIn(t *testing.T) {
	b := query.NewBuilder(testProjection())
	b.WhereIn("ID", []any{"a", "b", "c"})
	sql, args := b.Build()

	wantSQL := "SELECT t.id, t.reference, t.created_at FROM public.tenders t WHERE t.id IN ($1, $2, $3)"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 3 {
		t.Errorf("args length = %d, want 3", len(args))
	}
}

func TestBuilderWhereBefore(t *testing.T) {
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	b := query.NewBuilder(testProjection())
	b.WhereBefore("CreatedAt", &cutoff)
	sql, args := b.Build()

	wantSQL := "SELECT t.id, t.reference, t.created_at FROM public.tenders t WHERE t.created_at < $1"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != cutoff {
		t.Errorf("args = %v, want [%v]", args, cutoff)
	}

	b = query.NewBuilder(testProjection())
	b.WhereBefore("CreatedAt", nil)
	if _, args := b.Build(); len(args) != 0 {
		t.Errorf("nil cutoff args = %v, want empty", args)
	}
}

func TestBuilderWhereSearch(t *testing.T) {
	b := query.NewBuilder(testProjection())
	b.WhereSearch(ptr("bridge"), "Reference", "ID")
	sql, args := b.Build()

	wantSQL := "SELECT t.id, t.reference, t.created_at FROM public.tenders t WHERE (t.reference ILIKE $1 OR t.id ILIKE $2)"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 2 || args[0] != "%bridge%" || args[1] != "%bridge%" {
		t.Errorf("args = %v", args)
	}
}

func TestBuilderMultipleConditions(t *testing.T) {
	b := query.NewBuilder(testProjection())
	b.WhereEquals("Reference", "TND-2026-001")
	b.WhereContains("ID", ptr("abc"))
	sql, args := b.Build()

	wantSQL := "SELECT t.id, t.reference, t.created_at FROM public.tenders t WHERE t.reference = $1 AND t.id ILIKE $2"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 2 {
		t.Errorf("args length = %d, want 2", len(args))
	}
}

func TestBuilderOrderByFieldsOverridesDefault(t *testing.T) {
	b := query.NewBuilder(testProjection(), query.SortField{Field: "ID"})
	b.OrderByFields([]query.SortField{
		{Field: "CreatedAt", Descending: true},
		{Field: "Reference", Descending: false},
	})
	sql, _ := b.Build()

	wantSQL := "SELECT t.id, t.reference, t.created_at FROM public.tenders t ORDER BY t.created_at DESC, t.reference ASC"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
}

func TestBuilderDefaultSort(t *testing.T) {
	b := query.NewBuilder(testProjection(), query.SortField{Field: "CreatedAt", Descending: true})
	sql, _ := b.Build()

	wantSQL := "SELECT t.id, t.reference, t.created_at FROM public.tenders t ORDER BY t.created_at DESC"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
}
