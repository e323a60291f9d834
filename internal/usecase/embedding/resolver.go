package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/veccoll/internal/domain"
	"github.com/kailas-cloud/veccoll/internal/usecase/store"
)

// Defaults applied when neither the caller nor the collection names a provider or model.
const (
	DefaultProvider = "openai"
	DefaultModel    = "text-embedding-3-small"
)

// Settings are the process-wide embedding defaults.
type Settings struct {
	Provider string
	Model    string
}

// ProviderFunc builds a raw provider client for a model.
type ProviderFunc func(model string) (domain.Embedder, error)

// Decorator wraps a raw provider client, e.g. with an embedding cache.
type Decorator func(domain.Embedder) domain.Embedder

// Resolver turns (provider, model) pairs into ready embedders.
// It memoises per binding and is meant to live for one run.
type Resolver struct {
	settings   Settings
	providers  map[string]ProviderFunc
	decorators []Decorator
	logger     *zap.Logger

	mu   sync.Mutex
	memo map[domain.Binding]domain.Embedder
}

// NewResolver creates a resolver with the given defaults and no providers registered.
func NewResolver(settings Settings, logger *zap.Logger) *Resolver {
	if strings.TrimSpace(settings.Provider) == "" {
		settings.Provider = DefaultProvider
	}
	if strings.TrimSpace(settings.Model) == "" {
		settings.Model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		settings:  settings,
		providers: make(map[string]ProviderFunc),
		logger:    logger,
		memo:      make(map[domain.Binding]domain.Embedder),
	}
}

// Register makes a provider resolvable under name (case-insensitive).
func (r *Resolver) Register(name string, fn ProviderFunc) *Resolver {
	r.providers[normalizeProvider(name)] = fn
	return r
}

// Wrap adds a decorator applied directly around every raw provider client.
func (r *Resolver) Wrap(d Decorator) *Resolver {
	r.decorators = append(r.decorators, d)
	return r
}

// Settings returns the effective defaults.
func (r *Resolver) Settings() Settings { return r.settings }

// Resolve picks provider and model from the explicit values, then the existing
// collection metadata, then the settings defaults.
func (r *Resolver) Resolve(provider, model string, existing map[string]string) (domain.Embedder, error) {
	provider = normalizeProvider(firstNonBlank(provider, existing[domain.MetaProvider], r.settings.Provider))
	model = strings.TrimSpace(firstNonBlank(model, existing[domain.MetaEmbeddingModel], r.settings.Model))

	key := domain.Binding{Provider: provider, Model: model}

	r.mu.Lock()
	defer r.mu.Unlock()

	if emb, ok := r.memo[key]; ok {
		return emb, nil
	}

	build, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %q: %w", provider, domain.ErrUnsupportedProvider)
	}
	raw, err := build(model)
	if err != nil {
		return nil, fmt.Errorf("build %s embedder: %w", key, err)
	}

	var chain domain.Embedder = raw
	for _, d := range r.decorators {
		chain = d(chain)
	}
	chain = NewInstrumentedEmbedder(chain, provider, model, r.logger)
	emb := domain.NewGuardEmbedder(chain)

	r.memo[key] = emb
	r.logger.Debug("Resolved embedder", zap.String("provider", provider), zap.String("model", model))
	return emb, nil
}

// Factory exposes Resolve for stores rebuilding a collection's stored binding.
func (r *Resolver) Factory() store.EmbedderFactory {
	return func(provider, model string) (domain.Embedder, error) {
		return r.Resolve(provider, model, nil)
	}
}

// Attach opens name bound to the resolved embedder. When the collection is
// already bound to another embedding function, it falls back to that binding.
func (r *Resolver) Attach(ctx context.Context, st store.Store, name, provider, model string) (store.Collection, error) {
	existing := map[string]string{}
	col, err := st.GetCollection(ctx, name, nil)
	switch {
	case err == nil:
		existing = col.Metadata()
	case errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("attach %s: %w", name, err)
	}

	emb, err := r.Resolve(provider, model, existing)
	if err != nil {
		return nil, err
	}

	col, err = st.GetCollection(ctx, name, emb)
	if errors.Is(err, domain.ErrStoreConflict) {
		r.logger.Warn("Collection bound to another embedding function, using its binding",
			zap.String("collection", name), zap.Error(err))
		col, err = st.GetCollection(ctx, name, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", name, err)
	}
	return col, nil
}

// HealthCheck resolves the default embedder and checks its provider.
func (r *Resolver) HealthCheck(ctx context.Context) error {
	emb, err := r.Resolve("", "", nil)
	if err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	if hc, ok := emb.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

func normalizeProvider(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
