package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"eduai-backend-go/internal/services"
)

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	user, err := services.GetUser(r.Context(), s.Pool, CurrentUserID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	userID := CurrentUserID(r)
	_, err := s.Pool.Exec(r.Context(), "", `
UPDATE users SET first_name = COALESCE($1, first_name), last_name = COALESCE($2, last_name), updated_at = $3
WHERE id = $4
`, req.FirstName, req.LastName, time.Now().UTC(), userID)
	if err != nil {
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

func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if len(req.NewPassword) < 8 {
		WriteError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}
	user, err := services.GetUser(r.Context(), s.Pool, CurrentUserID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !s.Tokens.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		WriteError(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}
	hashed, err := s.Tokens.HashPassword(req.NewPassword)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	_, err = s.Pool.Exec(r.Context(), "", `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		hashed, time.Now().UTC(), user.ID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"changed": true})
}
