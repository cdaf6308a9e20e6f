package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"eduai-backend-go/internal/sse"
)

// CompatProvider speaks the OpenAI chat-completions wire format against
// any compatible endpoint (vLLM, LiteLLM, LocalAI, self-hosted models).
// Streaming goes through the incremental SSE decoder, so frames split
// across read boundaries are reassembled instead of dropped.
type CompatProvider struct {
	baseURL string
	apiKey  string
	// streamClient has no overall timeout; cancellation comes from ctx.
	streamClient *http.Client
	httpClient   *http.Client
}

// NewCompatProvider builds a provider for baseURL, which should include
// the /v1 prefix. apiKey may be empty for unauthenticated local models.
func NewCompatProvider(baseURL, apiKey string) *CompatProvider {
	return &CompatProvider{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:       strings.TrimSpace(apiKey),
		streamClient: &http.Client{},
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (p *CompatProvider) Name() string { return "openai-compat" }

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type wireUsage struct {
	TotalTokens int `json:"total_tokens"`
}

type wireResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message wireMessage `json:"message"`
		Delta   wireMessage `json:"delta"`
	} `json:"choices"`
	Usage *wireUsage `json:"usage"`
}

type wireError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (p *CompatProvider) StreamChat(ctx context.Context, req Request, onDelta func(content string)) (Usage, error) {
	body, err := p.send(ctx, req, true)
	if err != nil {
		return Usage{}, err
	}
	defer body.Close()

	usage := Usage{Model: req.Model}
	decoder := sse.NewDecoder(body)
	for {
		payload, err := decoder.Next()
		if err == io.EOF {
			return usage, nil
		}
		if err != nil {
			return usage, networkError(err)
		}
		if payload == sse.Done {
			return usage, nil
		}
		var frame wireResponse
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			// Malformed frames from a compatible-ish server are skipped,
			// not fatal.
			continue
		}
		if frame.Usage != nil {
			usage.TokensUsed = frame.Usage.TotalTokens
		}
		for _, choice := range frame.Choices {
			if choice.Delta.Content != "" {
				onDelta(choice.Delta.Content)
			}
		}
	}
}

func (p *CompatProvider) Generate(ctx context.Context, req Request) (string, Usage, error) {
	body, err := p.send(ctx, req, false)
	if err != nil {
		return "", Usage{}, err
	}
	defer body.Close()

	var resp wireResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return "", Usage{}, networkError(err)
	}
	if len(resp.Choices) == 0 {
		return "", Usage{}, statusError(502, "empty completion response")
	}
	usage := Usage{Model: resp.Model}
	if resp.Usage != nil {
		usage.TokensUsed = resp.Usage.TotalTokens
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), usage, nil
}

func (p *CompatProvider) send(ctx context.Context, req Request, stream bool) (io.ReadCloser, error) {
	messages := make([]wireMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, wireMessage{Role: msg.Role, Content: msg.Content})
	}
	payload, err := json.Marshal(wireRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	client := p.httpClient
	if stream {
		client = p.streamClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, networkError(err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		var errResp wireError
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		message := errResp.Error.Message
		if message == "" {
			message = resp.Status
		}
		return nil, statusError(resp.StatusCode, message)
	}
	return resp.Body, nil
}
