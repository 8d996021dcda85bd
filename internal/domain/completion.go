package domain

import "context"

// CompletionRequest is a single-turn prompt for a chat language model.
type CompletionRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// Completer is the language model contract shared by the planner, responder and profile writer.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
