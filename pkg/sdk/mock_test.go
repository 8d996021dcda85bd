package factlens

import (
	"context"

	"github.com/kailas-cloud/factlens/internal/domain/profile"
	"github.com/kailas-cloud/factlens/internal/domain/turn"
	healthuc "github.com/kailas-cloud/factlens/internal/usecase/health"
	"github.com/kailas-cloud/factlens/internal/usecase/pipeline"
	profileuc "github.com/kailas-cloud/factlens/internal/usecase/profile"
)

// --- turnUseCase mock ---

type mockTurnUC struct {
	runFn func(ctx context.Context, t turn.Turn) (*pipeline.Result, error)
}

func (m *mockTurnUC) Run(ctx context.Context, t turn.Turn) (*pipeline.Result, error) {
	return m.runFn(ctx, t)
}

// --- memoryUseCase mock ---

type mockMemoryUC struct {
	lookupFn func(ctx context.Context, userID string) (profile.Profile, error)
}

func (m *mockMemoryUC) Lookup(ctx context.Context, userID string) (profile.Profile, error) {
	return m.lookupFn(ctx, userID)
}

// --- profileUseCase mock ---

type mockProfileUC struct {
	updateFn func(ctx context.Context, userID string, in profileuc.Interaction) (profile.Profile, error)
}

func (m *mockProfileUC) Update(ctx context.Context, userID string, in profileuc.Interaction) (profile.Profile, error) {
	return m.updateFn(ctx, userID, in)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- public provider mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type healthyEmbedder struct {
	mockEmbedder
	err error
}

func (h *healthyEmbedder) HealthCheck(_ context.Context) error { return h.err }

type mockImageEmbedder struct {
	fn func(ctx context.Context, img Image) (EmbeddingResult, error)
}

func (m *mockImageEmbedder) EmbedImage(ctx context.Context, img Image) (EmbeddingResult, error) {
	return m.fn(ctx, img)
}

type mockCompleter struct {
	fn func(ctx context.Context, req CompletionRequest) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return m.fn(ctx, req)
}
