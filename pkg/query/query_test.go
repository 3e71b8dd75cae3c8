package query_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kcvinod/triage/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "escalations", "e").
		Project("id", "ID").
		Project("action", "Action").
		Project("reason", "Reason").
		Project("resolved_at", "ResolvedAt").
		Project("created_at", "CreatedAt")
}

func ptr[T any](v T) *T { return &v }

func TestProjectionMap(t *testing.T) {
	p := testProjection()

	if got := p.Table(); got != "public.escalations e" {
		t.Errorf("Table() = %q", got)
	}
	if got := p.Alias(); got != "e" {
		t.Errorf("Alias() = %q", got)
	}
	if got := p.Columns(); got != "e.id, e.action, e.reason, e.resolved_at, e.created_at" {
		t.Errorf("Columns() = %q", got)
	}

	if col, ok := p.Column("Action"); !ok || col != "e.action" {
		t.Errorf("Column(Action) = %q, %v", col, ok)
	}
	if _, ok := p.Column("action; DROP TABLE"); ok {
		t.Error("unmapped field should not resolve")
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{"empty", "", nil},
		{"single ascending", "Action", []query.SortField{{Field: "Action"}}},
		{"single descending", "-CreatedAt", []query.SortField{{Field: "CreatedAt", Descending: true}}},
		{
			"mixed with spaces and blanks",
			" Action , ,-CreatedAt",
			[]query.SortField{{Field: "Action"}, {Field: "CreatedAt", Descending: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, query.ParseSortFields(tt.input)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	defaultSort := query.SortField{Field: "CreatedAt", Descending: true}

	tests := []struct {
		name     string
		build    func() (string, []any)
		wantSQL  string
		wantArgs []any
	}{
		{
			"build with default sort",
			func() (string, []any) { return query.NewBuilder(testProjection(), defaultSort).Build() },
			"SELECT e.id, e.action, e.reason, e.resolved_at, e.created_at FROM public.escalations e ORDER BY e.created_at DESC",
			nil,
		},
		{
			"count ignores ordering",
			func() (string, []any) {
				return query.NewBuilder(testProjection(), defaultSort).
					WhereEquals("Action", "escalate").
					BuildCount()
			},
			"SELECT COUNT(*) FROM public.escalations e WHERE e.action = $1",
			[]any{"escalate"},
		},
		{
			"nil pointer filters skipped",
			func() (string, []any) {
				var action *string
				return query.NewBuilder(testProjection()).
					WhereEquals("Action", action).
					WhereNull("ResolvedAt", nil).
					WhereSearch(nil, "Reason").
					BuildCount()
			},
			"SELECT COUNT(*) FROM public.escalations e",
			nil,
		},
		{
			"pointer values are dereferenced",
			func() (string, []any) {
				return query.NewBuilder(testProjection()).
					WhereEquals("Action", ptr("assign_engineer")).
					BuildCount()
			},
			"SELECT COUNT(*) FROM public.escalations e WHERE e.action = $1",
			[]any{"assign_engineer"},
		},
		{
			"placeholders number across conditions",
			func() (string, []any) {
				return query.NewBuilder(testProjection()).
					WhereSearch(ptr("login"), "Reason", "Action").
					WhereNull("ResolvedAt", ptr(true)).
					WhereEquals("ID", 7).
					BuildCount()
			},
			"SELECT COUNT(*) FROM public.escalations e WHERE (e.reason ILIKE $1 OR e.action ILIKE $2) AND e.resolved_at IS NULL AND e.id = $3",
			[]any{"%login%", "%login%", 7},
		},
		{
			"not null",
			func() (string, []any) {
				return query.NewBuilder(testProjection()).WhereNull("ResolvedAt", ptr(false)).BuildCount()
			},
			"SELECT COUNT(*) FROM public.escalations e WHERE e.resolved_at IS NOT NULL",
			nil,
		},
		{
			"page with explicit sort drops unknown fields",
			func() (string, []any) {
				return query.NewBuilder(testProjection(), defaultSort).
					OrderByFields([]query.SortField{{Field: "Action"}, {Field: "bogus"}}).
					BuildPage(3, 10)
			},
			"SELECT e.id, e.action, e.reason, e.resolved_at, e.created_at FROM public.escalations e ORDER BY e.action ASC LIMIT 10 OFFSET 20",
			nil,
		},
		{
			"only unknown sort fields drops ordering",
			func() (string, []any) {
				return query.NewBuilder(testProjection()).
					OrderByFields([]query.SortField{{Field: "bogus"}}).
					BuildPage(1, 5)
			},
			"SELECT e.id, e.action, e.reason, e.resolved_at, e.created_at FROM public.escalations e LIMIT 5 OFFSET 0",
			nil,
		},
		{
			"single",
			func() (string, []any) { return query.NewBuilder(testProjection()).BuildSingle("ID", 42) },
			"SELECT e.id, e.action, e.reason, e.resolved_at, e.created_at FROM public.escalations e WHERE e.id = $1",
			[]any{42},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.build()
			if sql != tt.wantSQL {
				t.Errorf("sql:\n got  %s\n want %s", sql, tt.wantSQL)
			}
			if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuilderPanicsOnUnprojectedField(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unprojected field")
		}
	}()
	query.NewBuilder(testProjection()).WhereEquals("Missing", "x")
}
