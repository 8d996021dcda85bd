package factlens

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	keyPrefix      string
	knowledgeIndex string

	embedder      Embedder
	imageEmbedder ImageEmbedder
	completer     Completer

	limit       int
	concurrency int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix namespaces knowledge base and profile keys. Default: "factlens:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithKnowledgeIndex names the search index over the knowledge base.
// Default: key prefix + "kb:idx".
func WithKnowledgeIndex(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.knowledgeIndex = name
	})
}

// WithEmbedder sets the text embedding provider. Required.
// Queries and profile summaries are framed with "query: " and "passage: ".
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithImageEmbedder enables image plan steps.
func WithImageEmbedder(e ImageEmbedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.imageEmbedder = e
	})
}

// WithCompleter sets the language model used for planning, answers and profiles. Required.
func WithCompleter(c Completer) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.completer = c
	})
}

// WithRetrieval sets the results kept per step and the number of steps run at once.
// Defaults: 5 and 4.
func WithRetrieval(limit, concurrency int) Option {
	return optionFunc(func(c *clientConfig) {
		c.limit = limit
		c.concurrency = concurrency
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
