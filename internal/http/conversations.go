package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"eduai-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListConversations(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	sessions, err := services.ListChatSessions(r.Context(), s.DB, CurrentUserID(r), limit, offset)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, sessions)
}

func (s *Server) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "New conversation"
	}
	session, err := services.CreateChatSession(r.Context(), s.DB, CurrentUserID(r), title)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusCreated, session)
}

func (s *Server) ListConversationMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	messages, err := services.ListChatMessages(r.Context(), s.DB, sessionID, CurrentUserID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, messages)
}
