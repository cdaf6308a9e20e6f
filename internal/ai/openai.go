package ai

import (
	"context"
	"errors"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider is the default provider, backed by the official OpenAI
// API (or any endpoint go-openai can be pointed at).
type OpenAIProvider struct {
	client *openai.Client
}

func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg)}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) StreamChat(ctx context.Context, req Request, onDelta func(content string)) (Usage, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, toOpenAIRequest(req, true))
	if err != nil {
		return Usage{}, wrapOpenAIError(err)
	}
	defer stream.Close()

	usage := Usage{Model: req.Model}
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return usage, nil
		}
		if err != nil {
			return usage, wrapOpenAIError(err)
		}
		if resp.Usage != nil {
			usage.TokensUsed = resp.Usage.TotalTokens
		}
		for _, choice := range resp.Choices {
			if choice.Delta.Content != "" {
				onDelta(choice.Delta.Content)
			}
		}
	}
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (string, Usage, error) {
	resp, err := p.client.CreateChatCompletion(ctx, toOpenAIRequest(req, false))
	if err != nil {
		return "", Usage{}, wrapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", Usage{}, statusError(502, "empty completion response")
	}
	usage := Usage{TokensUsed: resp.Usage.TotalTokens, Model: resp.Model}
	return strings.TrimSpace(resp.Choices[0].Message.Content), usage, nil
}

func toOpenAIRequest(req Request, stream bool) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content})
	}
	out := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		Stream:      stream,
	}
	if stream {
		out.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}
	return out
}

func wrapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(apiErr.HTTPStatusCode, apiErr.Message)
	}
	return networkError(err)
}
