package httpapi

import (
	"net/http"

	"eduai-backend-go/internal/models"

	"github.com/gorilla/websocket"
)

// MetricsSocket streams live server samples to platform admins. Browsers
// cannot set Authorization on websocket requests, so the access token
// rides in the query string.
func (s *Server) MetricsSocket(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	token, claims, err := s.Tokens.ParseToken(raw)
	if err != nil || !token.Valid || claims["typ"] != "access" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	if role, _ := claims["role"].(string); role != models.RolePlatformAdmin {
		WriteError(w, http.StatusForbidden, "Not allowed")
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.MetricsHub.Add(conn)
	defer func() {
		s.MetricsHub.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
