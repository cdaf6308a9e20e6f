package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// Writer emits SSE frames over an http.ResponseWriter, flushing after
// every event. Safe for concurrent use; a streaming handler may emit
// keepalives from a separate goroutine.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex
}

// NewWriter prepares w for event streaming and returns the writer. Fails
// when the ResponseWriter cannot flush.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	return &Writer{w: w, flusher: flusher}, nil
}

// Send writes one event as a "data: {json}\n\n" frame.
func (s *Writer) Send(event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *Writer) Start(sessionID string) error {
	return s.Send(Event{Type: TypeStart, SessionID: sessionID})
}

func (s *Writer) Chunk(content string) error {
	return s.Send(Event{Type: TypeChunk, Content: content})
}

func (s *Writer) End(sessionID string, tokens, credits int) error {
	return s.Send(Event{Type: TypeEnd, SessionID: sessionID, Tokens: tokens, Credits: credits})
}

func (s *Writer) Error(message string) error {
	return s.Send(Event{Type: TypeError, Error: message})
}

// KeepAlive writes an SSE comment so intermediaries do not drop the
// connection during long provider pauses.
func (s *Writer) KeepAlive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
