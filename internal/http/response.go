package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"eduai-backend-go/internal/services"
)

// Envelope is the REST response shape shared with the web client.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Success: true, Data: data})
}

func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Success: false, Error: message})
}

// WriteServiceError maps a services.ServiceError to its HTTP status and
// hides everything else behind a generic 500.
func WriteServiceError(w http.ResponseWriter, err error) {
	var svcErr services.ServiceError
	if errors.As(err, &svcErr) {
		WriteError(w, svcErr.Status, svcErr.Message)
		return
	}
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}
