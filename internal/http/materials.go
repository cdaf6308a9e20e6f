package httpapi

import (
	"net/http"

	"eduai-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListMaterials(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	fileType := r.URL.Query().Get("type")
	files, err := services.ListGeneratedFiles(r.Context(), s.DB, CurrentUserID(r), fileType, limit, offset)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, files)
}

func (s *Server) GetMaterial(w http.ResponseWriter, r *http.Request) {
	file, err := services.GetGeneratedFile(r.Context(), s.DB, chi.URLParam(r, "fileId"), CurrentUserID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, file)
}

// ShareMaterial publishes one of the caller's files to their school
// library. Individual accounts have no school to share into.
func (s *Server) ShareMaterial(w http.ResponseWriter, r *http.Request) {
	schoolID := CurrentSchoolID(r)
	if schoolID == nil {
		WriteError(w, http.StatusForbidden, "No school to share into")
		return
	}
	shared, err := services.ShareMaterial(r.Context(), s.DB, chi.URLParam(r, "fileId"), *schoolID, CurrentUserID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, shared)
}

func (s *Server) SchoolLibrary(w http.ResponseWriter, r *http.Request) {
	schoolID := CurrentSchoolID(r)
	if schoolID == nil {
		WriteError(w, http.StatusForbidden, "No school library available")
		return
	}
	limit, offset := pageParams(r)
	items, err := services.ListSharedLibrary(r.Context(), s.DB, *schoolID, limit, offset)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, items)
}
