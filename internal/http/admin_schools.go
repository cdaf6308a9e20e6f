package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"eduai-backend-go/internal/models"
	"eduai-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) AdminListSchools(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	schools := []models.School{}
	err := s.Pool.Select(r.Context(), "schools.list", &schools, `
SELECT id, name, city, address, phone, website, created_at, updated_at
FROM schools
ORDER BY name
LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, schools)
}

type schoolRequest struct {
	Name    string  `json:"name"`
	City    *string `json:"city"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Website *string `json:"website"`
}

func (s *Server) AdminCreateSchool(w http.ResponseWriter, r *http.Request) {
	var req schoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	now := time.Now().UTC()
	school := models.School{
		ID:        uuid.NewString(),
		Name:      req.Name,
		City:      req.City,
		Address:   req.Address,
		Phone:     req.Phone,
		Website:   req.Website,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.DB.ExecContext(r.Context(), `
INSERT INTO schools (id, name, city, address, phone, website, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, school.ID, school.Name, school.City, school.Address, school.Phone, school.Website, school.CreatedAt, school.UpdatedAt)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusCreated, school)
}

func (s *Server) AdminUpdateSchool(w http.ResponseWriter, r *http.Request) {
	schoolID := chi.URLParam(r, "schoolId")
	var req schoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	res, err := s.DB.ExecContext(r.Context(), `
UPDATE schools
SET name = $1, city = $2, address = $3, phone = $4, website = $5, updated_at = $6
WHERE id = $7
`, req.Name, req.City, req.Address, req.Phone, req.Website, time.Now().UTC(), schoolID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		WriteError(w, http.StatusNotFound, "School not found")
		return
	}
	// School names appear in user listings.
	services.InvalidateUserCaches(s.Cache)
	WriteJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (s *Server) AdminDeleteSchool(w http.ResponseWriter, r *http.Request) {
	schoolID := chi.URLParam(r, "schoolId")

	var members int
	if err := s.DB.GetContext(r.Context(), &members, `SELECT COUNT(*) FROM users WHERE school_id = $1`, schoolID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if members > 0 {
		WriteError(w, http.StatusConflict, "School still has members")
		return
	}

	res, err := s.DB.ExecContext(r.Context(), `DELETE FROM schools WHERE id = $1`, schoolID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		WriteError(w, http.StatusNotFound, "School not found")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
