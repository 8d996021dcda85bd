package chi

import (
	"context"

	"github.com/kailas-cloud/factlens/internal/domain/profile"
	"github.com/kailas-cloud/factlens/internal/domain/turn"
	healthuc "github.com/kailas-cloud/factlens/internal/usecase/health"
	"github.com/kailas-cloud/factlens/internal/usecase/pipeline"
	profileuc "github.com/kailas-cloud/factlens/internal/usecase/profile"
)

// TurnRunner answers one conversation turn.
type TurnRunner interface {
	Run(ctx context.Context, t turn.Turn) (*pipeline.Result, error)
}

// MemoryLoader resolves a user to its profile, defaulting unknown users.
type MemoryLoader interface {
	Lookup(ctx context.Context, userID string) (profile.Profile, error)
}

// ProfileService updates long-term user profiles after an interaction.
type ProfileService interface {
	Update(ctx context.Context, userID string, in profileuc.Interaction) (profile.Profile, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
