package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/factlens/internal/domain"
	"github.com/kailas-cloud/factlens/internal/domain/evidence"
	"github.com/kailas-cloud/factlens/internal/domain/plan"
	"github.com/kailas-cloud/factlens/internal/domain/search/filter"
	"github.com/kailas-cloud/factlens/internal/domain/search/hit"
	"github.com/kailas-cloud/factlens/internal/domain/search/tool"
	"github.com/kailas-cloud/factlens/internal/logger"
	"github.com/kailas-cloud/factlens/internal/metrics"
)

const (
	defaultLimit       = 5
	defaultConcurrency = 4
	// hybrid over-fetches from each side so fusion sees enough overlap.
	overfetchFactor = 2
)

// Options tunes plan execution.
type Options struct {
	Limit       int
	RRFK        int
	Concurrency int
	StepTimeout time.Duration
}

// Service executes search plans and collects the retrieval log.
type Service struct {
	dense  Adapter
	sparse Adapter
	image  Adapter
	opts   Options
}

// New creates a retrieval orchestrator. Zero options take defaults.
func New(dense, sparse, image Adapter, opts Options) *Service {
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if opts.RRFK <= 0 {
		opts.RRFK = DefaultRRFK
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Service{dense: dense, sparse: sparse, image: image, opts: opts}
}

// Execute runs every step and returns one log entry per step in plan order.
// Step failures become error markers in their own slot. The only error
// returned is cancellation of ctx, in which case partial results are discarded.
func (s *Service) Execute(ctx context.Context, steps []plan.Step) (evidence.Log, error) {
	log := make(evidence.Log, len(steps))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)

	for i, step := range steps {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			log[i] = s.runStep(ctx, i, step)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("execute plan: %w", err)
	}
	return log, nil
}

func (s *Service) runStep(ctx context.Context, i int, step plan.Step) evidence.Entry {
	entry := evidence.Entry{Index: i, Purpose: step.Purpose, Tool: step.Tool}
	ctx, _ = logger.With(ctx, zap.Int("step", i+1))

	t, err := tool.Parse(step.Tool)
	if err != nil {
		entry.Err = &domain.ConfigurationError{Field: "tool", Reason: err.Error()}
		if step.Invalid != nil {
			entry.Err = step.Invalid
		}
		s.record(ctx, entry, "unknown")
		return entry
	}
	entry.Tool = string(t)

	if step.Invalid != nil {
		entry.Err = step.Invalid
		s.record(ctx, entry, entry.Tool)
		return entry
	}

	expr, err := filter.Compile(step.Filters)
	if err != nil {
		entry.Err = err
		s.record(ctx, entry, entry.Tool)
		return entry
	}

	stepCtx := ctx
	if s.opts.StepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, s.opts.StepTimeout)
		defer cancel()
	}

	entry.Hits, entry.Err = s.dispatch(stepCtx, t, step.Query, expr)
	s.record(stepCtx, entry, entry.Tool)
	return entry
}

func (s *Service) dispatch(ctx context.Context, t tool.Tool, query string, expr filter.Expression) ([]hit.Scored, error) {
	switch t {
	case tool.Hybrid:
		return s.hybrid(ctx, query, expr)
	case tool.Dense:
		return s.single(ctx, tool.Dense, s.dense, query, expr, s.opts.Limit)
	case tool.Sparse:
		return s.single(ctx, tool.Sparse, s.sparse, query, expr, s.opts.Limit)
	case tool.Image:
		return s.single(ctx, tool.Image, s.image, query, expr, s.opts.Limit)
	default:
		return nil, &domain.ConfigurationError{Field: "tool", Reason: fmt.Sprintf("no adapter for %q", t)}
	}
}

func (s *Service) single(
	ctx context.Context, t tool.Tool, a Adapter, query string, expr filter.Expression, limit int,
) ([]hit.Scored, error) {
	if a == nil {
		return nil, &domain.ConfigurationError{Field: "tool", Reason: fmt.Sprintf("%s search is not configured", t)}
	}
	hits, err := a.Search(ctx, query, expr, limit)
	if err != nil {
		return nil, asAdapterFailure(t, err)
	}
	return hits, nil
}

// hybrid runs dense and sparse concurrently and fuses their rankings.
func (s *Service) hybrid(ctx context.Context, query string, expr filter.Expression) ([]hit.Scored, error) {
	fetch := s.opts.Limit * overfetchFactor

	var denseHits, sparseHits []hit.Scored
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		denseHits, err = s.single(gctx, tool.Dense, s.dense, query, expr, fetch)
		return err
	})
	g.Go(func() error {
		var err error
		sparseHits, err = s.single(gctx, tool.Sparse, s.sparse, query, expr, fetch)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return flatten(Fuse(s.opts.RRFK, s.opts.Limit, denseHits, sparseHits)), nil
}

func (s *Service) record(ctx context.Context, entry evidence.Entry, toolLabel string) {
	status := metrics.StatusOK
	switch {
	case entry.Failed():
		status = metrics.StatusError
		logger.FromContext(ctx).Warn("Retrieval step failed",
			zap.String("tool", toolLabel),
			zap.String("purpose", entry.Purpose),
			zap.Error(entry.Err),
		)
	case len(entry.Hits) == 0:
		status = metrics.StatusEmpty
	}
	metrics.IncRetrievalStep(toolLabel, status)
}

func asAdapterFailure(t tool.Tool, err error) error {
	var cfgErr *domain.ConfigurationError
	if errors.As(err, &cfgErr) {
		return err
	}
	var af *domain.AdapterFailure
	if errors.As(err, &af) {
		return err
	}
	return domain.NewAdapterFailure(string(t), err)
}
