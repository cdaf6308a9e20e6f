package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eduai-backend-go/internal/db"
	"eduai-backend-go/internal/models"
	"eduai-backend-go/internal/query"
)

const userListTTL = 2 * time.Minute

// UserSearchParams are the supported admin user-listing filters. Zero
// values mean "no filter".
type UserSearchParams struct {
	Role          string
	SchoolID      string
	Status        string
	Search        string
	CreatedWithin string
	LastLogin     string
	Active        *bool
	EmailVerified *bool
	SortField     string
	SortDir       string
	Page          int
	PageSize      int
}

type UserSearchResult struct {
	Items    []models.User `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

// SearchUsers runs the filtered listing through the query builder, with
// results cached under the users: namespace and concurrent identical
// lookups collapsed to one database round trip.
func SearchUsers(ctx context.Context, pool *db.Pool, cache *query.Cache, p UserSearchParams) (UserSearchResult, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		p.PageSize = 20
	}
	key := userSearchKey(p)
	cached, err := cache.GetOrLoad(key, userListTTL, func() (interface{}, error) {
		return searchUsersUncached(ctx, pool, p)
	})
	if err != nil {
		return UserSearchResult{}, err
	}
	return cached.(UserSearchResult), nil
}

func searchUsersUncached(ctx context.Context, pool *db.Pool, p UserSearchParams) (UserSearchResult, error) {
	builder := query.NewUserQueryBuilder().
		WithRole(p.Role).
		WithSchool(p.SchoolID).
		WithStatus(p.Status).
		WithSearch(p.Search).
		WithCreatedWithin(p.CreatedWithin).
		WithLastLogin(p.LastLogin).
		WithActive(p.Active).
		WithEmailVerified(p.EmailVerified).
		Sort(p.SortField, p.SortDir).
		Page(p.PageSize, (p.Page-1)*p.PageSize)

	countSQL, countParams := builder.CountQuery()
	var total int
	if err := pool.Get(ctx, "users.count", &total, countSQL, countParams...); err != nil {
		return UserSearchResult{}, err
	}

	listSQL, listParams := builder.Query()
	items := []models.User{}
	if err := pool.Select(ctx, "users.search", &items, listSQL, listParams...); err != nil {
		return UserSearchResult{}, err
	}
	return UserSearchResult{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}

func userSearchKey(p UserSearchParams) string {
	active, verified := "", ""
	if p.Active != nil {
		active = fmt.Sprintf("%t", *p.Active)
	}
	if p.EmailVerified != nil {
		verified = fmt.Sprintf("%t", *p.EmailVerified)
	}
	return fmt.Sprintf("users:list:%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%d|%d",
		p.Role, p.SchoolID, p.Status, p.Search, p.CreatedWithin, p.LastLogin,
		active, verified, p.SortField, p.SortDir, p.Page, p.PageSize)
}

// InvalidateUserCaches drops every cached user listing; call after any
// user write.
func InvalidateUserCaches(cache *query.Cache) {
	cache.Invalidate("users:")
}

// GetUser loads one user with its school name resolved.
func GetUser(ctx context.Context, pool *db.Pool, userID string) (models.User, error) {
	var user models.User
	err := pool.Get(ctx, "users.get", &user, `
SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name, u.role, u.school_id,
       u.credits_balance, u.is_active, u.email_verified, u.status,
       u.last_login_at, u.created_at, u.updated_at, s.name AS school_name
FROM users u
LEFT JOIN schools s ON s.id = u.school_id
WHERE u.id = $1
`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound("User not found")
	}
	return user, err
}

// SetLastLogin stamps a successful login.
func SetLastLogin(ctx context.Context, pool *db.Pool, userID string) error {
	_, err := pool.Exec(ctx, "", `UPDATE users SET last_login_at = $1, updated_at = $1 WHERE id = $2`, time.Now().UTC(), userID)
	return err
}
