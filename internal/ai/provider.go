// Package ai contains the model-provider clients used by the streaming
// relay and the material generators.
package ai

import "context"

// Message is one turn of a chat conversation sent to a provider.
type Message struct {
	Role    string `json:"role"` // system | user | assistant
	Content string `json:"content"`
}

// Request describes one completion call.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Usage reports what a completed call consumed.
type Usage struct {
	TokensUsed int
	Model      string
}

// Provider is a chat-completion backend. StreamChat invokes onDelta for
// every content fragment in arrival order; both methods respect ctx
// cancellation, so a dropped client aborts the upstream request.
type Provider interface {
	Name() string
	StreamChat(ctx context.Context, req Request, onDelta func(content string)) (Usage, error)
	Generate(ctx context.Context, req Request) (string, Usage, error)
}
