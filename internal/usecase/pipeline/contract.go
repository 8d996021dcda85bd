package pipeline

import (
	"context"

	"github.com/kailas-cloud/factlens/internal/domain/evidence"
	"github.com/kailas-cloud/factlens/internal/domain/plan"
	"github.com/kailas-cloud/factlens/internal/domain/profile"
	"github.com/kailas-cloud/factlens/internal/domain/turn"
)

// MemoryLoader resolves the long-term profile of a user.
type MemoryLoader interface {
	Lookup(ctx context.Context, userID string) (profile.Profile, error)
}

// Planner produces a search plan for a turn.
type Planner interface {
	Plan(ctx context.Context, req turn.PlanRequest) ([]plan.Step, error)
}

// Retriever executes a search plan.
type Retriever interface {
	Execute(ctx context.Context, steps []plan.Step) (evidence.Log, error)
}

// Responder writes the final answer from the evidence.
type Responder interface {
	Respond(ctx context.Context, req turn.AnswerRequest) (string, error)
}
