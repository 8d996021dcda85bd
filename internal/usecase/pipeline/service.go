package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/factlens/internal/domain"
	"github.com/kailas-cloud/factlens/internal/domain/evidence"
	"github.com/kailas-cloud/factlens/internal/domain/plan"
	"github.com/kailas-cloud/factlens/internal/domain/profile"
	"github.com/kailas-cloud/factlens/internal/domain/turn"
	"github.com/kailas-cloud/factlens/internal/logger"
	"github.com/kailas-cloud/factlens/internal/metrics"
)

// Stage names, in execution order.
const (
	StageLoadMemory       = "LOAD_MEMORY"
	StageGeneratePlan     = "GENERATE_PLAN"
	StageExecuteRetrieval = "EXECUTE_RETRIEVAL"
	StageProduceAnswer    = "PRODUCE_ANSWER"
)

// Result is the terminal state of one turn.
type Result struct {
	Answer       string
	Profile      profile.Profile
	Plan         []plan.Step
	PlanFallback bool
	Evidence     evidence.Log
}

// Service runs a turn through LOAD_MEMORY, GENERATE_PLAN, EXECUTE_RETRIEVAL
// and PRODUCE_ANSWER, once each, in that order.
type Service struct {
	memory    MemoryLoader
	planner   Planner
	retriever Retriever
	responder Responder
	gate      *ThreadGate
}

// New creates a pipeline. gate may be nil, in which case turns of one thread are not serialized.
func New(memory MemoryLoader, planner Planner, retriever Retriever, responder Responder, gate *ThreadGate) *Service {
	return &Service{
		memory:    memory,
		planner:   planner,
		retriever: retriever,
		responder: responder,
		gate:      gate,
	}
}

// Run executes one turn. Failures of the memory or responder stage, and a planner
// that cannot be reached, return *domain.FatalPipelineError. Cancellation of ctx
// returns the context error and discards any partial state.
func (s *Service) Run(ctx context.Context, t turn.Turn) (*Result, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if s.gate != nil && t.ThreadID != "" {
		release, err := s.gate.Acquire(ctx, t.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("wait for thread %s: %w", t.ThreadID, err)
		}
		defer release()
	}

	ctx, log := logger.With(ctx,
		zap.String("user_id", t.UserID),
		zap.String("thread_id", t.ThreadID),
	)

	run := &runState{started: time.Now(), timings: make([]zap.Field, 0, 4)}
	res, err := s.run(ctx, t, run)

	fields := append(run.timings,
		zap.Duration("duration", time.Since(run.started)),
		zap.Bool("image", t.ImageLocator != ""),
	)
	if res != nil {
		fields = append(fields,
			zap.Int("steps", len(res.Plan)),
			zap.Int("failed_steps", res.Evidence.Failures()),
			zap.Bool("plan_fallback", res.PlanFallback),
		)
	}

	var fatal *domain.FatalPipelineError
	switch {
	case err == nil:
		log.Info("Turn answered", fields...)
	case errors.As(err, &fatal):
		log.Error("Turn failed", append(fields, zap.String("stage", fatal.Stage), zap.Error(fatal.Err))...)
	default:
		log.Warn("Turn aborted", append(fields, zap.Error(err))...)
	}
	return res, err
}

type runState struct {
	started time.Time
	timings []zap.Field
}

func (s *Service) run(ctx context.Context, t turn.Turn, run *runState) (*Result, error) {
	var res Result

	// LOAD_MEMORY
	err := s.stage(ctx, run, StageLoadMemory, func(ctx context.Context) error {
		p, err := s.memory.Lookup(ctx, t.UserID)
		if err != nil {
			return err
		}
		res.Profile = p
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, StageLoadMemory, err)
	}
	userContext := res.Profile.Render()

	// GENERATE_PLAN
	err = s.stage(ctx, run, StageGeneratePlan, func(ctx context.Context) error {
		steps, err := s.planner.Plan(ctx, turn.PlanRequest{
			UserQuery:    t.Text,
			UserContext:  userContext,
			ImageLocator: t.ImageLocator,
		})
		var formatErr *domain.PlannerFormatError
		if errors.As(err, &formatErr) {
			logger.FromContext(ctx).Warn("Planner output unusable, using fallback plan",
				zap.Error(formatErr.Err),
				zap.Int("raw_len", len(formatErr.Raw)),
			)
			metrics.IncPlannerFallback()
			res.Plan = plan.Fallback(t.Text)
			res.PlanFallback = true
			return nil
		}
		if err != nil {
			return err
		}
		res.Plan = steps
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, StageGeneratePlan, err)
	}

	// EXECUTE_RETRIEVAL
	err = s.stage(ctx, run, StageExecuteRetrieval, func(ctx context.Context) error {
		log, err := s.retriever.Execute(ctx, res.Plan)
		if err != nil {
			return err
		}
		res.Evidence = log
		return nil
	})
	if err != nil {
		// the orchestrator only fails on cancellation
		return nil, s.fail(ctx, StageExecuteRetrieval, err)
	}

	// PRODUCE_ANSWER
	err = s.stage(ctx, run, StageProduceAnswer, func(ctx context.Context) error {
		answer, err := s.responder.Respond(ctx, turn.AnswerRequest{
			UserQuery:   t.Text,
			UserContext: userContext,
			Evidence:    res.Evidence.Bundle(),
		})
		if err != nil {
			return err
		}
		res.Answer = answer
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, StageProduceAnswer, err)
	}

	return &res, nil
}

// stage runs fn unless ctx is already done, recording its duration.
func (s *Service) stage(ctx context.Context, run *runState, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := fn(ctx)
	d := time.Since(start)

	status := metrics.StatusOK
	if err != nil {
		status = metrics.StatusError
	}
	metrics.ObserveStage(name, status, d)
	run.timings = append(run.timings, zap.Duration(stageField(name), d))
	return err
}

// fail classifies a stage error: cancellation stays a context error,
// anything else is terminal for the request.
func (s *Service) fail(ctx context.Context, stage string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", stage, ctxErr)
	}
	return &domain.FatalPipelineError{Stage: stage, Err: err}
}

func stageField(stage string) string {
	switch stage {
	case StageLoadMemory:
		return "load_memory"
	case StageGeneratePlan:
		return "generate_plan"
	case StageExecuteRetrieval:
		return "execute_retrieval"
	default:
		return "produce_answer"
	}
}
