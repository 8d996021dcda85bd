package llm

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/factlens/internal/domain"
	"github.com/kailas-cloud/factlens/internal/domain/plan"
	"github.com/kailas-cloud/factlens/internal/domain/turn"
)

// Planner asks a language model for a search plan.
type Planner struct {
	completer domain.Completer
	maxTokens int
}

// NewPlanner creates a planner. maxTokens <= 0 uses the completer default.
func NewPlanner(c domain.Completer, maxTokens int) *Planner {
	return &Planner{completer: c, maxTokens: maxTokens}
}

// Plan returns the parsed steps. Unusable output yields *domain.PlannerFormatError;
// any other error means the model could not be reached.
func (p *Planner) Plan(ctx context.Context, req turn.PlanRequest) ([]plan.Step, error) {
	raw, err := p.completer.Complete(ctx, domain.CompletionRequest{
		System:    plannerSystemPrompt,
		User:      fmt.Sprintf(plannerUserTemplate, req.UserContext, req.UserQuery, req.ImageOrNone()),
		MaxTokens: p.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	return plan.Parse(raw) //nolint:wrapcheck // PlannerFormatError carries the raw output
}
