package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"

	"eduai-backend-go/internal/ratelimit"
	"eduai-backend-go/internal/services"
)

type contextKey string

const (
	ctxUserID   contextKey = "userID"
	ctxEmail    contextKey = "email"
	ctxRole     contextKey = "role"
	ctxSchoolID contextKey = "schoolID"
)

func WithAuth(tokenService services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, "Authentication failed")
				return
			}
			tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			token, claims, err := tokenService.ParseToken(tokenStr)
			if err != nil || !token.Valid {
				WriteError(w, http.StatusUnauthorized, "Authentication failed")
				return
			}
			if claims["typ"] != "access" {
				WriteError(w, http.StatusUnauthorized, "Authentication failed")
				return
			}
			userID, _ := claims["sub"].(string)
			email, _ := claims["email"].(string)
			role, _ := claims["role"].(string)
			schoolID, _ := claims["schoolId"].(string)
			ctx := context.WithValue(r.Context(), ctxUserID, userID)
			ctx = context.WithValue(ctx, ctxEmail, email)
			ctx = context.WithValue(ctx, ctxRole, role)
			ctx = context.WithValue(ctx, ctxSchoolID, schoolID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func CurrentUserID(r *http.Request) string {
	if value, ok := r.Context().Value(ctxUserID).(string); ok {
		return value
	}
	return ""
}

func CurrentRole(r *http.Request) string {
	if value, ok := r.Context().Value(ctxRole).(string); ok {
		return value
	}
	return ""
}

// CurrentSchoolID returns the caller's school or nil for individual
// accounts.
func CurrentSchoolID(r *http.Request) *string {
	if value, ok := r.Context().Value(ctxSchoolID).(string); ok && value != "" {
		return &value
	}
	return nil
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := map[string]bool{}
	for _, role := range roles {
		allowed[strings.ToLower(role)] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowed[strings.ToLower(CurrentRole(r))] {
				next.ServeHTTP(w, r)
				return
			}
			WriteError(w, http.StatusForbidden, "Not allowed")
		})
	}
}

// WithRateLimit guards a route group with the fixed-window limiter keyed
// by authenticated user, or client IP before auth. A nil limiter (no
// Redis configured, local dev) disables the guard.
func WithRateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}
			key := CurrentUserID(r)
			if key == "" {
				key = clientIP(r)
			}
			if !limiter.Allow(key) {
				WriteError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
