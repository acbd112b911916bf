// Package llm provides the language-model capability used for intent
// analysis and narrative generation.
package llm

import (
	"context"
	"strings"

	apperrors "vnquery/internal/errors"
)

// Client is the llm capability: prompt in, text out.
type Client interface {
	// Generate sends a prompt and returns the model's text response.
	Generate(ctx context.Context, prompt string) (string, error)
	// Info describes the configured provider.
	Info() Info
}

// Info describes a configured client.
type Info struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Ready    bool   `json:"ready"`
}

// Ready reports whether an optional client is usable. A nil client means the
// capability was never configured.
func Ready(c Client) bool {
	return c != nil && c.Info().Ready
}

// Generate calls the capability and trims surrounding whitespace from its
// output. A nil or unready client fails with ErrNotConfigured.
func Generate(ctx context.Context, c Client, prompt string) (string, error) {
	if !Ready(c) {
		return "", apperrors.ErrNotConfigured
	}
	text, err := c.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
