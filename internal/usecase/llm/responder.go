package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/factlens/internal/domain"
	"github.com/kailas-cloud/factlens/internal/domain/turn"
)

// Responder turns evidence into the final verdict text.
type Responder struct {
	completer domain.Completer
	maxTokens int
}

// NewResponder creates a responder.
func NewResponder(c domain.Completer, maxTokens int) *Responder {
	return &Responder{completer: c, maxTokens: maxTokens}
}

// Respond returns the non-empty answer text.
func (r *Responder) Respond(ctx context.Context, req turn.AnswerRequest) (string, error) {
	evidence := req.Evidence
	if strings.TrimSpace(evidence) == "" {
		evidence = "No evidence found."
	}

	text, err := r.completer.Complete(ctx, domain.CompletionRequest{
		System:    responderSystemPrompt,
		User:      fmt.Sprintf(responderUserTemplate, req.UserQuery, req.UserContext, evidence),
		MaxTokens: r.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("respond: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyAnswer
	}
	return text, nil
}
