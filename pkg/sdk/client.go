package factlens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/factlens/internal/db"
	dbRedis "github.com/kailas-cloud/factlens/internal/db/redis"
	"github.com/kailas-cloud/factlens/internal/domain"
	"github.com/kailas-cloud/factlens/internal/domain/profile"
	"github.com/kailas-cloud/factlens/internal/domain/turn"
	"github.com/kailas-cloud/factlens/internal/repository/imagesrc"
	profilerepo "github.com/kailas-cloud/factlens/internal/repository/profile"
	searchrepo "github.com/kailas-cloud/factlens/internal/repository/search"
	healthuc "github.com/kailas-cloud/factlens/internal/usecase/health"
	"github.com/kailas-cloud/factlens/internal/usecase/llm"
	"github.com/kailas-cloud/factlens/internal/usecase/memory"
	"github.com/kailas-cloud/factlens/internal/usecase/pipeline"
	profileuc "github.com/kailas-cloud/factlens/internal/usecase/profile"
	"github.com/kailas-cloud/factlens/internal/usecase/retrieval"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "factlens:"
	memoryLookupTimeout     = 3 * time.Second
)

// Internal interfaces, swapped out in tests.
type turnUseCase interface {
	Run(ctx context.Context, t turn.Turn) (*pipeline.Result, error)
}

type memoryUseCase interface {
	Lookup(ctx context.Context, userID string) (profile.Profile, error)
}

type profileUseCase interface {
	Update(ctx context.Context, userID string, in profileuc.Interaction) (profile.Profile, error)
}

// Client is the factlens SDK entry point.
type Client struct {
	store      db.Store
	turnSvc    turnUseCase
	memorySvc  memoryUseCase
	profileSvc profileUseCase
	healthSvc  healthUseCase
	obs        *observer
}

// New creates a factlens Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("factlens: database address required (use WithRedis)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("factlens: embedder required (use WithEmbedder)")
	}
	if cfg.completer == nil {
		return nil, errors.New("factlens: completer required (use WithCompleter)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("factlens: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("factlens: database not ready: %w", err)
	}

	return wireClient(store, cfg, obs), nil
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	index := cfg.knowledgeIndex
	if index == "" {
		index = cfg.keyPrefix + "kb:idx"
	}

	searchRepo := searchrepo.New(store, searchrepo.Layout{IndexName: index, KeyPrefix: cfg.keyPrefix + "kb:"})
	profileRepo := profilerepo.New(store, cfg.keyPrefix+"profile:")

	text := &embedderAdapter{inner: cfg.embedder}
	queryEmb := domain.NewInstructionEmbedder(text, "query: ")
	docEmb := domain.NewInstructionEmbedder(text, "passage: ")
	completer := &completerAdapter{inner: cfg.completer}

	// Pass nil interface (not typed nil pointer!) when images are disabled.
	var image retrieval.Adapter
	providers := map[string]healthuc.ProviderChecker{"text_embedding": text}
	if cfg.imageEmbedder != nil {
		img := &imageEmbedderAdapter{inner: cfg.imageEmbedder}
		image = retrieval.NewImageAdapter(imagesrc.New(imagesrc.Options{}), img, searchRepo)
		providers["image_embedding"] = img
	}

	retriever := retrieval.New(
		retrieval.NewDenseAdapter(queryEmb, searchRepo),
		retrieval.NewSparseAdapter(searchRepo),
		image,
		retrieval.Options{Limit: cfg.limit, Concurrency: cfg.concurrency},
	)

	gateway := memory.New(profileRepo, memoryLookupTimeout)
	turnSvc := pipeline.New(gateway,
		llm.NewPlanner(completer, 0), retriever, llm.NewResponder(completer, 0),
		pipeline.NewThreadGate(),
	)

	return &Client{
		store:      store,
		turnSvc:    turnSvc,
		memorySvc:  gateway,
		profileSvc: profileuc.New(profileRepo, completer, docEmb),
		healthSvc:  healthuc.New(store, store, index, providers),
		obs:        obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Ask answers one turn. A *FatalError names the stage that failed it.
func (c *Client) Ask(ctx context.Context, t Turn) (ans Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("turn.ask", start, err) }()

	res, err := c.turnSvc.Run(ctx, turn.Turn{
		UserID:       t.UserID,
		ThreadID:     t.ThreadID,
		Text:         t.Text,
		ImageLocator: t.Image,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}
	return answerFromResult(res), nil
}

// Profile returns the stored profile of a user, or the default profile of a new user.
func (c *Client) Profile(ctx context.Context, userID string) (p Profile, err error) {
	start := time.Now()
	defer func() { c.obs.observe("profile.get", start, err) }()

	dp, err := c.memorySvc.Lookup(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("profile: %w", err)
	}
	return profileFromDomain(dp), nil
}

// RecordInteraction folds an exchange into the user profile and stores it.
func (c *Client) RecordInteraction(ctx context.Context, userID string, in Interaction) (p Profile, err error) {
	start := time.Now()
	defer func() { c.obs.observe("profile.update", start, err) }()

	dp, err := c.profileSvc.Update(ctx, userID, profileuc.Interaction{
		UserMessage:  in.UserMessage,
		AgentMessage: in.AgentMessage,
	})
	if err != nil {
		return Profile{}, fmt.Errorf("record interaction: %w", err)
	}
	return profileFromDomain(dp), nil
}

func answerFromResult(res *pipeline.Result) Answer {
	ans := Answer{
		Text:         res.Answer,
		PlanFallback: res.PlanFallback,
		Plan:         make([]PlanStep, len(res.Plan)),
		Evidence:     make([]Evidence, len(res.Evidence)),
		Bundle:       res.Evidence.Bundle(),
		Profile:      profileFromDomain(res.Profile),
	}
	for i, st := range res.Plan {
		ans.Plan[i] = PlanStep{Tool: st.Tool, Query: st.Query, Filters: st.Filters, Purpose: st.Purpose}
	}
	for i, e := range res.Evidence {
		ev := Evidence{Step: e.Index + 1, Purpose: e.Purpose, Tool: e.Tool, Err: e.Err, Hits: make([]Hit, len(e.Hits))}
		for j, h := range e.Hits {
			ev.Hits[j] = Hit{ID: h.ID, Score: h.Score, Payload: h.Payload}
		}
		ans.Evidence[i] = ev
	}
	return ans
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (a *embedderAdapter) HealthCheck(ctx context.Context) error {
	return forwardHealth(ctx, a.inner)
}

// imageEmbedderAdapter wraps public ImageEmbedder to satisfy domain.ImageEmbedder.
type imageEmbedderAdapter struct {
	inner ImageEmbedder
}

func (a *imageEmbedderAdapter) EmbedImage(ctx context.Context, img domain.EncodedImage) (domain.EmbeddingResult, error) {
	r, err := a.inner.EmbedImage(ctx, Image{
		MIMEType: img.MIMEType,
		Data:     img.Data,
		Width:    img.Width,
		Height:   img.Height,
	})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed image: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func (a *imageEmbedderAdapter) HealthCheck(ctx context.Context) error {
	return forwardHealth(ctx, a.inner)
}

// completerAdapter wraps public Completer to satisfy domain.Completer.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	out, err := a.inner.Complete(ctx, CompletionRequest{
		System:      req.System,
		User:        req.User,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	return out, nil
}

func forwardHealth(ctx context.Context, v any) error {
	if hc, ok := v.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent adapter
	}
	return nil
}
