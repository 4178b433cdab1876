// Package llm provides text-generation client implementations.
//
// The research loop drives tools through text parsing rather than
// native tool-calling, so the client surface is deliberately small:
// a conversation goes in, text comes out.
package llm

import (
	"context"
	"log/slog"
	"time"
)

// LevelTrace is below Debug, used for wire-level payload logging.
const LevelTrace = slog.Level(-8)

// Message represents a chat message for the model.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ChatResponse is the unified response from any provider.
type ChatResponse struct {
	Model     string
	CreatedAt time.Time
	Message   Message

	// Token usage (provider-neutral; zero when the provider omits it)
	InputTokens  int
	OutputTokens int
}

// Options are generation parameters read once at client construction.
type Options struct {
	// Temperature for sampling. Zero means deterministic.
	Temperature float64
	// MaxTokens bounds the response length. Zero means provider default.
	MaxTokens int
}

// Client is the interface that all generation providers implement.
type Client interface {
	// Chat sends a chat completion request and returns the response.
	Chat(ctx context.Context, model string, messages []Message) (*ChatResponse, error)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}
