package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"eduai-backend-go/internal/models"
	"eduai-backend-go/internal/services"

	"github.com/google/uuid"
)

type registerRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      string  `json:"role"`
	SchoolID  *string `json:"schoolId"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresAt    int64       `json:"expiresAt"`
	User         models.User `json:"user"`
}

// registrationBonus is credited to every new account.
const registrationBonus = 50

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
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
	role := req.Role
	if role == "" {
		role = models.RoleTeacherIndividual
	}
	switch role {
	case models.RoleTeacher, models.RoleTeacherIndividual, models.RoleTeacherSchool, models.RoleStudent:
	default:
		WriteError(w, http.StatusBadRequest, "Unknown role")
		return
	}
	if role == models.RoleTeacherSchool && req.SchoolID == nil {
		WriteError(w, http.StatusBadRequest, "School account requires schoolId")
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
		Role:          role,
		SchoolID:      req.SchoolID,
		IsActive:      true,
		EmailVerified: false,
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

	if _, err := services.GrantCredits(r.Context(), s.DB, user.ID, registrationBonus, models.TxBonus, "Welcome bonus", nil); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	user.CreditsBalance = registrationBonus
	services.InvalidateUserCaches(s.Cache)

	resp, err := s.issueTokens(user)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusCreated, resp)
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	err := s.DB.GetContext(r.Context(), &user, `
SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name, u.role, u.school_id,
       u.credits_balance, u.is_active, u.email_verified, u.status,
       u.last_login_at, u.created_at, u.updated_at, s.name AS school_name
FROM users u
LEFT JOIN schools s ON s.id = u.school_id
WHERE u.email = $1
`, req.Email)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !s.Tokens.VerifyPassword(req.Password, user.PasswordHash)) {
		WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !user.IsActive {
		WriteError(w, http.StatusForbidden, "Account is deactivated")
		return
	}

	if err := services.SetLastLogin(r.Context(), s.Pool, user.ID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp, err := s.issueTokens(user)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		WriteError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}
	token, claims, err := s.Tokens.ParseToken(req.RefreshToken)
	if err != nil || !token.Valid || claims["typ"] != "refresh" {
		WriteError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	userID, _ := claims["sub"].(string)

	user, err := services.GetUser(r.Context(), s.Pool, userID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !user.IsActive {
		WriteError(w, http.StatusForbidden, "Account is deactivated")
		return
	}
	resp, err := s.issueTokens(user)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Logout is stateless; the client drops its tokens. Kept so the route
// surface matches the frontend contract.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]bool{"loggedOut": true})
}

func (s *Server) issueTokens(user models.User) (tokenResponse, error) {
	access, expiresAt, err := s.Tokens.CreateAccessToken(user.ID, user.Email, user.Role, user.SchoolID)
	if err != nil {
		return tokenResponse{}, err
	}
	refresh, err := s.Tokens.CreateRefreshToken(user.ID)
	if err != nil {
		return tokenResponse{}, err
	}
	return tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}
