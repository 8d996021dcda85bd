package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/factlens/internal/config"
	dbRedis "github.com/kailas-cloud/factlens/internal/db/redis"
	"github.com/kailas-cloud/factlens/internal/domain"
	logpkg "github.com/kailas-cloud/factlens/internal/logger"
	"github.com/kailas-cloud/factlens/internal/metrics"
	"github.com/kailas-cloud/factlens/internal/repository/embcache"
	"github.com/kailas-cloud/factlens/internal/repository/imagesrc"
	profilerepo "github.com/kailas-cloud/factlens/internal/repository/profile"
	searchrepo "github.com/kailas-cloud/factlens/internal/repository/search"
	anthropicLLM "github.com/kailas-cloud/factlens/internal/transport/anthropic"
	chiTransport "github.com/kailas-cloud/factlens/internal/transport/chi"
	openaiProv "github.com/kailas-cloud/factlens/internal/transport/openai"
	healthuc "github.com/kailas-cloud/factlens/internal/usecase/health"
	"github.com/kailas-cloud/factlens/internal/usecase/llm"
	"github.com/kailas-cloud/factlens/internal/usecase/memory"
	"github.com/kailas-cloud/factlens/internal/usecase/pipeline"
	profileuc "github.com/kailas-cloud/factlens/internal/usecase/profile"
	"github.com/kailas-cloud/factlens/internal/usecase/retrieval"
	"github.com/kailas-cloud/factlens/internal/version"
)

func main() {
	// A missing .env is fine; the config files fall back to defaults.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting factlens API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("llm_provider", cfg.LLM.Provider),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register provider metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	// Embedders: composition root
	textBase := openaiProv.NewEmbedder(embedderConfig(cfg, cfg.Embedding.Text, logger))
	queryEmbedder := buildQueryEmbedder(cfg, textBase, store, logger)
	docEmbedder := domain.NewInstructionEmbedder(textBase, cfg.Embedding.Text.DocumentInstruction)

	// Pass nil interface (not typed nil pointer!) when no image space is configured.
	var imageEmbedder domain.ImageEmbedder
	var imageChecker healthuc.ProviderChecker
	if cfg.Embedding.Image.Provider != "" {
		ie := openaiProv.NewImageEmbedder(embedderConfig(cfg, cfg.Embedding.Image, logger))
		imageEmbedder = ie
		imageChecker = ie
	}
	logger.Info("Embedders created",
		zap.String("text_model", cfg.Embedding.Text.Model),
		zap.Int("text_dimensions", cfg.Embedding.Text.Dimensions),
		zap.String("image_model", cfg.Embedding.Image.Model),
		zap.Bool("query_cache", cfg.Storage.CacheQueries),
	)

	completer := buildCompleter(cfg, logger)

	// Repositories
	searchRepo := searchrepo.New(store, searchrepo.Layout{
		IndexName: cfg.Storage.KnowledgeIndex,
		KeyPrefix: cfg.Storage.KeyPrefix + "kb:",
	})
	profileRepo := profilerepo.New(store, cfg.Storage.KeyPrefix+"profile:")
	resolver := imagesrc.New(imagesrc.Options{
		FetchTimeout: time.Duration(cfg.Retrieval.ImageFetchTimeoutSec) * time.Second,
		MaxBytes:     cfg.Retrieval.MaxImageBytes,
	})

	// Retrieval adapters
	dense := retrieval.NewDenseAdapter(queryEmbedder, searchRepo)
	sparse := retrieval.NewSparseAdapter(searchRepo)
	var image retrieval.Adapter
	if imageEmbedder != nil {
		image = retrieval.NewImageAdapter(resolver, imageEmbedder, searchRepo)
	}

	retriever := retrieval.New(dense, sparse, image, retrieval.Options{
		Limit:       cfg.Retrieval.DefaultLimit,
		RRFK:        cfg.Retrieval.RRFK,
		Concurrency: cfg.Retrieval.StepConcurrency,
		StepTimeout: time.Duration(cfg.Retrieval.StepTimeoutSec) * time.Second,
	})

	// Use case services
	gateway := memory.New(profileRepo, time.Duration(cfg.Retrieval.MemoryLookupTimeoutMs)*time.Millisecond)
	planner := llm.NewPlanner(completer, cfg.LLM.MaxTokens)
	responder := llm.NewResponder(completer, cfg.LLM.MaxTokens)
	pipelineSvc := pipeline.New(gateway, planner, retriever, responder, pipeline.NewThreadGate())
	profileSvc := profileuc.New(profileRepo, completer, docEmbedder)

	healthSvc := healthuc.New(store, store, cfg.Storage.KnowledgeIndex, map[string]healthuc.ProviderChecker{
		"text_embedding":  textBase,
		"image_embedding": imageChecker,
	})

	server := chiTransport.NewServer(pipelineSvc, gateway, profileSvc, healthSvc, logger)
	r := chiTransport.NewRouter(server, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func embedderConfig(cfg config.Config, vc config.VectorizerConfig, logger *zap.Logger) *openaiProv.Config {
	prov := cfg.Embedding.Providers[vc.Provider]
	return &openaiProv.Config{
		APIKey:     prov.APIKey,
		BaseURL:    prov.BaseURL,
		Model:      vc.Model,
		Dimensions: vc.Dimensions,
		Provider:   vc.Provider,
		Logger:     logger,
	}
}

// buildQueryEmbedder assembles the decorator chain: OpenAI -> Cached -> Instruction.
// The instruction is outermost so that cache keys include it.
func buildQueryEmbedder(
	cfg config.Config, base domain.Embedder, store *dbRedis.Store, logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if cfg.Storage.CacheQueries {
		embedder = embcache.New(base, store, embcache.Options{
			KeyPrefix: cfg.Storage.KeyPrefix + "emb_cache:" + cfg.Embedding.Text.Model + ":",
			TTL:       time.Duration(cfg.Storage.CacheTTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}
	return domain.NewInstructionEmbedder(embedder, cfg.Embedding.Text.QueryInstruction)
}

func buildCompleter(cfg config.Config, logger *zap.Logger) domain.Completer {
	var base domain.Completer
	switch cfg.LLM.Provider {
	case "anthropic":
		base = anthropicLLM.NewCompleter(&anthropicLLM.Config{
			APIKey:    cfg.LLM.APIKey,
			BaseURL:   cfg.LLM.BaseURL,
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.MaxTokens,
			Logger:    logger,
		})
	default:
		base = openaiProv.NewCompleter(&openaiProv.CompleterConfig{
			APIKey:    cfg.LLM.APIKey,
			BaseURL:   cfg.LLM.BaseURL,
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.MaxTokens,
			Logger:    logger,
		})
	}
	return &boundedCompleter{
		inner:       base,
		timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		temperature: cfg.LLM.Temp,
	}
}

// boundedCompleter applies the configured call timeout and sampling temperature.
type boundedCompleter struct {
	inner       domain.Completer
	timeout     time.Duration
	temperature float32
}

func (c *boundedCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if req.Temperature == 0 {
		req.Temperature = c.temperature
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.inner.Complete(ctx, req) //nolint:wrapcheck // transparent decorator
}
