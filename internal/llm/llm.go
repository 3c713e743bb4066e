package llm

import (
	"context"
	"errors"
)

// Role tags a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged turn sent to the model.
type Message struct {
	Role    Role
	Content string
}

// ChatOptions tunes sampling. Zero values leave the provider default.
type ChatOptions struct {
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// ChatClient abstracts LLM providers for the resume assistant.
type ChatClient interface {
	// Chat returns the assistant reply. An empty reply is not an error.
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("LLM provider is not configured")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Chat returns ErrNotConfigured.
func (PlaceholderClient) Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	return "", ErrNotConfigured
}
