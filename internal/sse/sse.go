// Package sse implements the event-stream framing used by the AI relay:
// newline-delimited "data: {json}" frames carrying a typed event union.
package sse

// Event types emitted by streaming endpoints.
const (
	TypeStart = "start"
	TypeChunk = "chunk"
	TypeEnd   = "end"
	TypeError = "error"
)

// Event is one frame of a streamed AI response.
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Content   string `json:"content,omitempty"`
	Error     string `json:"error,omitempty"`
	Tokens    int    `json:"tokensUsed,omitempty"`
	Credits   int    `json:"creditsUsed,omitempty"`
}
