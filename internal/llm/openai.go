package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	apperrors "vnquery/internal/errors"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// OpenAIClient implements Client using the OpenAI API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*OpenAIClient)

// WithTemperature sets the sampling temperature for completions.
func WithTemperature(temperature float64) OpenAIOption {
	return func(c *OpenAIClient) {
		c.temperature = float32(temperature)
	}
}

// WithMaxTokens caps the completion length. Zero leaves the model default.
func WithMaxTokens(maxTokens int) OpenAIOption {
	return func(c *OpenAIClient) {
		c.maxTokens = maxTokens
	}
}

// NewOpenAIClient creates a new OpenAI LLM client.
func NewOpenAIClient(apiKey string, model string, opts ...OpenAIOption) *OpenAIClient {
	if model == "" {
		model = DefaultModel
	}
	c := &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends a prompt to the LLM and returns the response.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", apperrors.NewProviderError("openai", "completion", "", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.NewProviderError("openai", "completion", "", fmt.Errorf("no response choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

// Info describes the configured provider.
func (c *OpenAIClient) Info() Info {
	return Info{
		Provider: "openai",
		Model:    c.model,
		Ready:    c.client != nil,
	}
}
