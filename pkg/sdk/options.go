package veccoll

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey", "redis" or "" for in-memory
	addrs    []string
	password string

	provider  string
	model     string
	providers map[string]ProviderFunc
	cache     bool

	hnswM           int
	hnswEFConstruct int
	distance        string

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithValkey stores collections in a Valkey instance with valkey-search.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis stores collections in a Redis 8+ instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithProvider registers an embedding provider under name.
// A later registration under the same name replaces the earlier one.
func WithProvider(name string, fn ProviderFunc) Option {
	return optionFunc(func(c *clientConfig) {
		if c.providers == nil {
			c.providers = make(map[string]ProviderFunc)
		}
		c.providers[name] = fn
	})
}

// WithDefaults sets the provider and model used when a collection names neither.
// Defaults: openai, text-embedding-3-small.
func WithDefaults(provider, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.provider = provider
		c.model = model
	})
}

// WithEmbeddingCache caches embeddings in the database, keyed by model and text.
// Ignored for in-memory clients.
func WithEmbeddingCache() Option {
	return optionFunc(func(c *clientConfig) {
		c.cache = true
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=32, EFConstruct=400.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithDistance sets the vector distance metric: COSINE (default), L2 or IP.
func WithDistance(metric string) Option {
	return optionFunc(func(c *clientConfig) {
		c.distance = metric
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
