package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Completion request parameters.
const (
	DefaultModel = openai.GPT3Dot5Turbo
	maxTokens    = 1000
	temperature  = 0.7
)

// ErrNoAPIKey is returned by the provider when no key is configured.
var ErrNoAPIKey = errors.New("ai provider api key is not configured")

// Completer produces a chat completion for a system and user message.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// OpenAI is a Completer backed by an OpenAI-compatible API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds the provider. An empty apiKey yields a provider whose
// every call fails with ErrNoAPIKey. baseURL overrides the API endpoint.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	if model == "" {
		model = DefaultModel
	}
	if apiKey == "" {
		return &OpenAI{model: model}
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

// Complete sends one system and one user message and returns the first
// choice.
func (o *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	const op = "advisor.OpenAI.Complete"
	if o.client == nil {
		return "", fmt.Errorf("%s: %w", op, ErrNoAPIKey)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty completion", op)
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("%s: empty completion", op)
	}
	return reply, nil
}
