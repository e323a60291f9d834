package domain

import (
	"context"
	"strings"
)

// Embedder maps texts to fixed-length vectors, one per input, preserving order.
// An empty input yields an empty result.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Binding identifies the embedding configuration of an embedder or a collection.
type Binding struct {
	Provider string
	Model    string
}

// String renders the binding as provider/model.
func (b Binding) String() string {
	return b.Provider + "/" + b.Model
}

// IsZero reports whether neither provider nor model is set.
func (b Binding) IsZero() bool {
	return b.Provider == "" && b.Model == ""
}

// Equal compares two bindings ignoring case and surrounding whitespace.
func (b Binding) Equal(o Binding) bool {
	return strings.EqualFold(strings.TrimSpace(b.Provider), strings.TrimSpace(o.Provider)) &&
		strings.EqualFold(strings.TrimSpace(b.Model), strings.TrimSpace(o.Model))
}

// Bound is implemented by embedders that know their provider and model.
type Bound interface {
	Binding() Binding
}

// Dimensioner is implemented by embedders with a configured output dimensionality.
type Dimensioner interface {
	Dimensions() int
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// BindingOf returns the binding of e, or a zero Binding when e does not expose one.
func BindingOf(e Embedder) Binding {
	if b, ok := e.(Bound); ok {
		return b.Binding()
	}
	return Binding{}
}

// GuardEmbedder short-circuits empty input so no provider is ever called with nothing to embed.
type GuardEmbedder struct {
	inner Embedder
}

// NewGuardEmbedder wraps inner with the empty-input guard.
func NewGuardEmbedder(inner Embedder) *GuardEmbedder {
	return &GuardEmbedder{inner: inner}
}

// Embed returns an empty result for empty input, otherwise delegates.
func (g *GuardEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vecs, err := g.inner.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, ErrEmbeddingCountMismatch
	}
	return vecs, nil
}

// Binding forwards the inner embedder's binding.
func (g *GuardEmbedder) Binding() Binding { return BindingOf(g.inner) }

// Dimensions forwards the inner embedder's dimensions, 0 when unknown.
func (g *GuardEmbedder) Dimensions() int {
	if d, ok := g.inner.(Dimensioner); ok {
		return d.Dimensions()
	}
	return 0
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (g *GuardEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := g.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
