package veccoll

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/veccoll/internal/domain"
	openaiEmb "github.com/kailas-cloud/veccoll/internal/transport/openai"
)

// Embedder maps texts to vectors, one per input, preserving order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ProviderFunc builds an Embedder for a model. It is called at most once
// per model for the lifetime of a Client.
type ProviderFunc func(model string) (Embedder, error)

// embedderAdapter binds a public Embedder to the provider and model it was built for.
type embedderAdapter struct {
	inner   Embedder
	binding domain.Binding
}

func (a *embedderAdapter) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := a.inner.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	return vecs, nil
}

func (a *embedderAdapter) Binding() domain.Binding { return a.binding }

func (a *embedderAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // passthrough
	}
	return nil
}

// WithOpenAI registers the "openai" provider against the OpenAI API or any
// compatible endpoint when baseURL is set.
func WithOpenAI(apiKey, baseURL string) Option {
	return WithProvider("openai", func(model string) (Embedder, error) {
		if apiKey == "" {
			return nil, fmt.Errorf("OpenAI API key missing: %w", domain.ErrInvalidConfiguration)
		}
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:   apiKey,
			BaseURL:  baseURL,
			Model:    model,
			Provider: "openai",
		}), nil
	})
}
