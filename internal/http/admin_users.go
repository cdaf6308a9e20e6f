package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"eduai-backend-go/internal/models"
	"eduai-backend-go/internal/query"
	"eduai-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := services.UserSearchParams{
		Role:          q.Get("role"),
		SchoolID:      q.Get("schoolId"),
		Status:        q.Get("status"),
		Search:        q.Get("search"),
		CreatedWithin: q.Get("createdWithin"),
		LastLogin:     q.Get("lastLogin"),
		Active:        queryBoolPtr(r, "active"),
		EmailVerified: queryBoolPtr(r, "emailVerified"),
		SortField:     q.Get("sortBy"),
		SortDir:       q.Get("sortDir"),
		Page:          queryInt(r, "page", 1),
		PageSize:      queryInt(r, "pageSize", 20),
	}
	result, err := services.SearchUsers(r.Context(), s.Pool, s.Cache, params)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

type adminCreateUserRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      string  `json:"role"`
	SchoolID  *string `json:"schoolId"`
	Credits   int     `json:"credits"`
}

func (s *Server) AdminCreateUser(w http.ResponseWriter, r *http.Request) {
	var req adminCreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		WriteError(w, http.StatusBadRequest, "Valid email is required")
		return
	}
	if len(req.Password) < 8 {
		WriteError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}
	switch req.Role {
	case models.RoleTeacher, models.RoleSchoolAdmin, models.RoleStudent,
		models.RolePlatformAdmin, models.RoleTeacherIndividual, models.RoleTeacherSchool:
	default:
		WriteError(w, http.StatusBadRequest, "Unknown role")
		return
	}
	if req.Credits < 0 {
		WriteError(w, http.StatusBadRequest, "Credits cannot be negative")
		return
	}

	var existing int
	if err := s.DB.GetContext(r.Context(), &existing, `SELECT COUNT(*) FROM users WHERE email = $1`, req.Email); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if existing > 0 {
		WriteError(w, http.StatusConflict, "Email already registered")
		return
	}

	hashed, err := s.Tokens.HashPassword(req.Password)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	now := time.Now().UTC()
	user := models.User{
		ID:            uuid.NewString(),
		Email:         req.Email,
		PasswordHash:  hashed,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Role:          req.Role,
		SchoolID:      req.SchoolID,
		IsActive:      true,
		EmailVerified: true,
		Status:        "active",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err = s.DB.ExecContext(r.Context(), `
INSERT INTO users (id, email, password_hash, first_name, last_name, role, school_id,
                   credits_balance, is_active, email_verified, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,0,$8,$9,$10,$11,$12)
`, user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Role,
		user.SchoolID, user.IsActive, user.EmailVerified, user.Status, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if req.Credits > 0 {
		if _, err := services.GrantCredits(r.Context(), s.DB, user.ID, req.Credits, models.TxAdminAdjustment, "Initial credits", nil); err != nil {
			WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		user.CreditsBalance = req.Credits
	}
	services.InvalidateUserCaches(s.Cache)
	WriteJSON(w, http.StatusCreated, user)
}

type adminUpdateUserRequest struct {
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	Role          *string `json:"role"`
	SchoolID      *string `json:"schoolId"`
	IsActive      *bool   `json:"isActive"`
	EmailVerified *bool   `json:"emailVerified"`
	Status        *string `json:"status"`
}

func (s *Server) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	var req adminUpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Role != nil {
		switch *req.Role {
		case models.RoleTeacher, models.RoleSchoolAdmin, models.RoleStudent,
			models.RolePlatformAdmin, models.RoleTeacherIndividual, models.RoleTeacherSchool:
		default:
			WriteError(w, http.StatusBadRequest, "Unknown role")
			return
		}
	}

	data := map[string]interface{}{}
	if req.FirstName != nil {
		data["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		data["last_name"] = *req.LastName
	}
	if req.Role != nil {
		data["role"] = *req.Role
	}
	if req.SchoolID != nil {
		data["school_id"] = *req.SchoolID
	}
	if req.IsActive != nil {
		data["is_active"] = *req.IsActive
	}
	if req.EmailVerified != nil {
		data["email_verified"] = *req.EmailVerified
	}
	if req.Status != nil {
		data["status"] = *req.Status
	}
	if len(data) == 0 {
		WriteError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	if _, err := s.Batch.Execute(r.Context(), s.DB, "users", []query.BatchUpdate{{ID: userID, Data: data}}); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	services.InvalidateUserCaches(s.Cache)

	user, err := services.GetUser(r.Context(), s.Pool, userID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// AdminDeleteUser deactivates the account. Rows are kept because the
// credit ledger and AI request history reference them.
func (s *Server) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	res, err := s.DB.ExecContext(r.Context(),
		`UPDATE users SET is_active = FALSE, status = 'deleted', updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	services.InvalidateUserCaches(s.Cache)
	WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type batchUpdateRequest struct {
	Updates []struct {
		ID   string                 `json:"id"`
		Data map[string]interface{} `json:"data"`
	} `json:"updates"`
}

func (s *Server) AdminBatchUpdateUsers(w http.ResponseWriter, r *http.Request) {
	var req batchUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if len(req.Updates) == 0 {
		WriteError(w, http.StatusBadRequest, "updates must not be empty")
		return
	}
	updates := make([]query.BatchUpdate, 0, len(req.Updates))
	for _, item := range req.Updates {
		if item.ID == "" || len(item.Data) == 0 {
			WriteError(w, http.StatusBadRequest, "Every update needs an id and data")
			return
		}
		updates = append(updates, query.BatchUpdate{ID: item.ID, Data: item.Data})
	}

	result, err := s.Batch.Execute(r.Context(), s.DB, "users", updates)
	services.InvalidateUserCaches(s.Cache)
	if err != nil {
		// Partial progress: earlier chunks stay committed, so the
		// caller gets the chunk report alongside the failure.
		WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"result": result,
			"error":  "Batch update failed",
		})
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

type adjustCreditsRequest struct {
	Amount      int    `json:"amount"`
	Description string `json:"description"`
}

// AdminAdjustCredits grants (positive) or revokes (negative) credits.
func (s *Server) AdminAdjustCredits(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	var req adjustCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	description := req.Description
	if description == "" {
		description = "Admin adjustment"
	}
	record, err := services.GrantCredits(r.Context(), s.DB, userID, req.Amount, models.TxAdminAdjustment, description, nil)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	services.InvalidateUserCaches(s.Cache)
	WriteJSON(w, http.StatusOK, record)
}
