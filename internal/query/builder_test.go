package query

import (
	"fmt"
	"strings"
	"testing"
)

func placeholderCount(sql string) int {
	count := 0
	for i := 1; ; i++ {
		if !strings.Contains(sql, fmt.Sprintf("$%d", i)) {
			return count
		}
		count++
	}
}

func TestBuilderNoFilters(t *testing.T) {
	sql, params := NewUserQueryBuilder().Query()
	if strings.Contains(sql, "WHERE") {
		t.Fatalf("expected no WHERE clause, got:\n%s", sql)
	}
	if len(params) != 0 {
		t.Fatalf("expected no params, got %v", params)
	}
	if !strings.Contains(sql, "ORDER BY u.created_at DESC") {
		t.Fatalf("expected default sort, got:\n%s", sql)
	}
}

func TestBuilderPlaceholdersMatchParams(t *testing.T) {
	active := true
	builder := NewUserQueryBuilder().
		WithRole("teacher").
		WithSchool("school-1").
		WithStatus("active").
		WithSearch("novak").
		WithActive(&active).
		WithCreatedWithin("30d").
		Page(20, 40)

	sql, params := builder.Query()
	if got, want := placeholderCount(sql), len(params); got != want {
		t.Fatalf("placeholder count %d != param count %d in:\n%s", got, want, sql)
	}
	if params[len(params)-2] != 20 || params[len(params)-1] != 40 {
		t.Fatalf("expected limit/offset as trailing params, got %v", params)
	}
}

func TestBuilderCountQueryOmitsPagination(t *testing.T) {
	// Page before the filters; the count must still exclude LIMIT/OFFSET.
	builder := NewUserQueryBuilder().
		Page(10, 0).
		WithRole("student").
		WithStatus("active")

	countSQL, countParams := builder.CountQuery()
	if strings.Contains(countSQL, "LIMIT") || strings.Contains(countSQL, "OFFSET") {
		t.Fatalf("count query must not paginate:\n%s", countSQL)
	}
	if len(countParams) != 2 {
		t.Fatalf("expected 2 filter params, got %v", countParams)
	}

	listSQL, listParams := builder.Query()
	if !strings.Contains(listSQL, "LIMIT") {
		t.Fatalf("list query must paginate:\n%s", listSQL)
	}
	if len(listParams) != len(countParams)+2 {
		t.Fatalf("list params %v should be count params plus limit/offset", listParams)
	}
}

func TestBuilderSearchBindsTwoParams(t *testing.T) {
	sql, params := NewUserQueryBuilder().WithSearch("smid").Query()
	if len(params) != 2 {
		t.Fatalf("expected raw term and wildcard term, got %v", params)
	}
	if params[0] != "smid" || params[1] != "%smid%" {
		t.Fatalf("unexpected search params %v", params)
	}
	if !strings.Contains(sql, "plainto_tsquery") || !strings.Contains(sql, "ILIKE") {
		t.Fatalf("expected tsquery with ILIKE fallback:\n%s", sql)
	}
}

func TestBuilderSortWhitelist(t *testing.T) {
	tests := []struct {
		field string
		dir   string
		want  string
	}{
		{"email", "asc", "ORDER BY u.email ASC"},
		{"school", "desc", "ORDER BY s.name DESC"},
		{"credits", "DESC", "ORDER BY u.credits_balance DESC"},
		{"id; DROP TABLE users", "asc", "ORDER BY u.created_at ASC"},
		{"", "", "ORDER BY u.created_at ASC"},
	}
	for _, tt := range tests {
		sql, _ := NewUserQueryBuilder().Sort(tt.field, tt.dir).Query()
		if !strings.Contains(sql, tt.want) {
			t.Fatalf("Sort(%q, %q): expected %q in:\n%s", tt.field, tt.dir, tt.want, sql)
		}
	}
}

func TestBuilderUnknownDateBucketIgnored(t *testing.T) {
	_, params := NewUserQueryBuilder().WithCreatedWithin("yesterday").Query()
	if len(params) != 0 {
		t.Fatalf("unknown bucket must add no filter, got %v", params)
	}
}

func TestBuilderLastLoginNever(t *testing.T) {
	sql, params := NewUserQueryBuilder().WithLastLogin("never").Query()
	if !strings.Contains(sql, "u.last_login_at IS NULL") {
		t.Fatalf("expected IS NULL condition:\n%s", sql)
	}
	if len(params) != 0 {
		t.Fatalf("never filter binds no params, got %v", params)
	}
}

func TestBuilderBlankFiltersNoop(t *testing.T) {
	sql, params := NewUserQueryBuilder().
		WithRole("  ").
		WithSchool("").
		WithStatus("").
		WithSearch("   ").
		WithActive(nil).
		WithEmailVerified(nil).
		Query()
	if strings.Contains(sql, "WHERE") || len(params) != 0 {
		t.Fatalf("blank filters must be ignored, got %v in:\n%s", params, sql)
	}
}
