package httpapi

import (
	"net/http"

	"eduai-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	items, err := services.ListNotificationsForUser(r.Context(), s.DB, CurrentUserID(r), CurrentSchoolID(r), limit, offset)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) UnreadNotifications(w http.ResponseWriter, r *http.Request) {
	count, err := services.UnreadNotificationCount(r.Context(), s.DB, CurrentUserID(r), CurrentSchoolID(r))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (s *Server) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "notificationId")
	ok, err := services.MarkNotificationRead(r.Context(), s.DB, id, CurrentUserID(r), CurrentSchoolID(r))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !ok {
		WriteError(w, http.StatusNotFound, "Notification not found")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"read": true})
}
