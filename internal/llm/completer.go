package llm

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured indicates no API key was supplied for the model provider.
	ErrNotConfigured = errors.New("llm client not configured")
	// ErrEmptyCompletion indicates the model answered without any text content.
	ErrEmptyCompletion = errors.New("llm returned no text content")
)

// CompletionRequest is a single-turn prompt sent to a chat model.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Completer returns the text answer of a chat model for one prompt.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
