package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/kailas-cloud/factlens/internal/domain"
	"github.com/kailas-cloud/factlens/internal/metrics"
)

const provider = "anthropic"

// Config holds Claude API settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	MaxRetries int
	Logger     *zap.Logger
}

// Completer implements domain.Completer over the Messages API.
type Completer struct {
	client    anthropic.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

// NewCompleter creates a Claude-backed completer.
func NewCompleter(cfg *Config) *Completer {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &Completer{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: maxTokens,
		logger:    cfg.Logger,
	}
}

// Complete sends one system+user exchange and concatenates the text blocks of the reply.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(provider, c.model, "error").Inc()
		return "", wrapError(err)
	}

	metrics.LLMRequestsTotal.WithLabelValues(provider, c.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(provider, c.model).Observe(duration.Seconds())
	metrics.LLMTokensTotal.WithLabelValues(provider, c.model, "input").Add(float64(resp.Usage.InputTokens))
	metrics.LLMTokensTotal.WithLabelValues(provider, c.model, "output").Add(float64(resp.Usage.OutputTokens))

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())

	if c.logger != nil {
		c.logger.Debug("Claude completion",
			zap.String("model", c.model),
			zap.Int("output_chars", len(text)),
			zap.Duration("duration", duration),
			zap.String("stop_reason", string(resp.StopReason)),
		)
	}
	return text, nil
}

func wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("claude request: %w: %w", err, domain.ErrLLMProviderError)
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("claude API error %d: %w", apiErr.StatusCode, domain.ErrLLMProviderError)
	}
	return fmt.Errorf("claude request failed: %v: %w", err, domain.ErrLLMProviderError)
}
