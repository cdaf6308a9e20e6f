package httpapi

import (
	"net/http"

	"eduai-backend-go/internal/services"
)

func (s *Server) CreditBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := services.CreditBalance(r.Context(), s.DB, CurrentUserID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"balance": balance})
}

func (s *Server) CreditHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	history, err := services.CreditHistory(r.Context(), s.DB, CurrentUserID(r), limit, offset)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, history)
}
