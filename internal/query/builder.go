package query

import (
	"fmt"
	"strings"
	"time"
)

const userBaseSelect = `
SELECT u.id, u.email, u.first_name, u.last_name, u.role, u.school_id,
       u.credits_balance, u.is_active, u.email_verified, u.status,
       u.last_login_at, u.created_at, u.updated_at, s.name AS school_name
FROM users u
LEFT JOIN schools s ON s.id = u.school_id`

const userBaseCount = `
SELECT count(*)
FROM users u
LEFT JOIN schools s ON s.id = u.school_id`

// sortColumns whitelists the logical sort fields. Anything else falls back
// to created_at so a caller-supplied field can never reach the SQL text.
var sortColumns = map[string]string{
	"email":      "u.email",
	"first_name": "u.first_name",
	"last_name":  "u.last_name",
	"role":       "u.role",
	"school":     "s.name",
	"credits":    "u.credits_balance",
	"last_login": "u.last_login_at",
	"created_at": "u.created_at",
}

// dateBuckets maps the named recency filters to their cutoff offsets.
var dateBuckets = map[string]time.Duration{
	"7d":      7 * 24 * time.Hour,
	"30d":     30 * 24 * time.Hour,
	"90d":     90 * 24 * time.Hour,
	"week":    7 * 24 * time.Hour,
	"month":   30 * 24 * time.Hour,
	"quarter": 90 * 24 * time.Hour,
}

// UserQueryBuilder assembles parameterized SQL for filtered, sorted and
// paginated user listings. Every free-text value is bound positionally;
// only whitelisted column expressions are interpolated. Pagination
// parameters are kept in a separate suffix so CountQuery is correct no
// matter the call order.
type UserQueryBuilder struct {
	conditions []string
	params     []interface{}
	orderBy    string
	limit      int
	offset     int
	paginated  bool
	now        func() time.Time
}

func NewUserQueryBuilder() *UserQueryBuilder {
	return &UserQueryBuilder{
		orderBy: "u.created_at DESC",
		now:     time.Now,
	}
}

func (b *UserQueryBuilder) add(fragment string, values ...interface{}) {
	placeholders := make([]interface{}, len(values))
	for i := range values {
		placeholders[i] = len(b.params) + i + 1
	}
	b.conditions = append(b.conditions, fmt.Sprintf(fragment, placeholders...))
	b.params = append(b.params, values...)
}

// WithRole filters on an exact role code. Empty means no filter.
func (b *UserQueryBuilder) WithRole(role string) *UserQueryBuilder {
	if strings.TrimSpace(role) != "" {
		b.add("u.role = $%d", strings.TrimSpace(role))
	}
	return b
}

// WithSchool filters on school membership.
func (b *UserQueryBuilder) WithSchool(schoolID string) *UserQueryBuilder {
	if strings.TrimSpace(schoolID) != "" {
		b.add("u.school_id = $%d", strings.TrimSpace(schoolID))
	}
	return b
}

// WithActive filters on the is_active flag. Nil means no filter.
func (b *UserQueryBuilder) WithActive(active *bool) *UserQueryBuilder {
	if active != nil {
		b.add("u.is_active = $%d", *active)
	}
	return b
}

// WithEmailVerified filters on the email_verified flag. Nil means no filter.
func (b *UserQueryBuilder) WithEmailVerified(verified *bool) *UserQueryBuilder {
	if verified != nil {
		b.add("u.email_verified = $%d", *verified)
	}
	return b
}

// WithStatus filters on the user status string.
func (b *UserQueryBuilder) WithStatus(status string) *UserQueryBuilder {
	if strings.TrimSpace(status) != "" {
		b.add("u.status = $%d", strings.TrimSpace(status))
	}
	return b
}

// WithSearch matches term against the indexed search vector or, as a
// fallback, against email and full name. Consumes two placeholders: the
// raw term for tsquery and the wildcarded term for ILIKE.
func (b *UserQueryBuilder) WithSearch(term string) *UserQueryBuilder {
	term = strings.TrimSpace(term)
	if term == "" {
		return b
	}
	b.add(
		"(to_tsvector('simple', u.email || ' ' || coalesce(u.first_name,'') || ' ' || coalesce(u.last_name,'')) @@ plainto_tsquery('simple', $%d)"+
			" OR u.email ILIKE $%d"+
			" OR concat(u.first_name, ' ', u.last_name) ILIKE $%[2]d)",
		term, "%"+term+"%",
	)
	return b
}

// WithCreatedWithin keeps users created after the named bucket's cutoff.
// Unknown buckets are ignored.
func (b *UserQueryBuilder) WithCreatedWithin(bucket string) *UserQueryBuilder {
	if offset, ok := dateBuckets[strings.TrimSpace(bucket)]; ok {
		b.add("u.created_at >= $%d", b.now().UTC().Add(-offset))
	}
	return b
}

// WithLastLogin keeps users whose last login falls inside the named
// bucket. "never" selects users who have not logged in at all.
func (b *UserQueryBuilder) WithLastLogin(bucket string) *UserQueryBuilder {
	bucket = strings.TrimSpace(bucket)
	if bucket == "never" {
		b.conditions = append(b.conditions, "u.last_login_at IS NULL")
		return b
	}
	if offset, ok := dateBuckets[bucket]; ok {
		b.add("u.last_login_at >= $%d", b.now().UTC().Add(-offset))
	}
	return b
}

// Sort orders by a whitelisted logical field; anything unrecognized falls
// back to created_at with the requested direction.
func (b *UserQueryBuilder) Sort(field, direction string) *UserQueryBuilder {
	column, ok := sortColumns[strings.ToLower(strings.TrimSpace(field))]
	if !ok {
		column = "u.created_at"
	}
	dir := "ASC"
	if strings.EqualFold(strings.TrimSpace(direction), "desc") {
		dir = "DESC"
	}
	b.orderBy = column + " " + dir
	return b
}

// Page sets LIMIT/OFFSET. The bound values live outside the filter
// parameter list and are appended only by Query.
func (b *UserQueryBuilder) Page(limit, offset int) *UserQueryBuilder {
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	b.limit = limit
	b.offset = offset
	b.paginated = true
	return b
}

func (b *UserQueryBuilder) whereClause() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return "\nWHERE " + strings.Join(b.conditions, "\n  AND ")
}

// Query returns the listing SQL and its full parameter list, pagination
// placeholders last.
func (b *UserQueryBuilder) Query() (string, []interface{}) {
	sql := userBaseSelect + b.whereClause() + "\nORDER BY " + b.orderBy
	params := make([]interface{}, len(b.params), len(b.params)+2)
	copy(params, b.params)
	if b.paginated {
		sql += fmt.Sprintf("\nLIMIT $%d OFFSET $%d", len(params)+1, len(params)+2)
		params = append(params, b.limit, b.offset)
	}
	return sql, params
}

// CountQuery returns the matching-rows count SQL with only the filter
// parameters. Safe to call before, after, or without Query.
func (b *UserQueryBuilder) CountQuery() (string, []interface{}) {
	params := make([]interface{}, len(b.params))
	copy(params, b.params)
	return userBaseCount + b.whereClause(), params
}
