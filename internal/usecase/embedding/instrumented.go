package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/veccoll/internal/domain"
	"github.com/kailas-cloud/veccoll/internal/metrics"
)

// DefaultMaxAPIBatchSize is the largest number of texts sent in one provider request.
const DefaultMaxAPIBatchSize = 256

// InstrumentedEmbedder splits large inputs into API-sized chunks, logs each call
// and records per-call metrics for any provider. Request-level transport
// metrics (tokens, HTTP latency) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner     domain.Embedder
	provider  string
	model     string
	chunkSize int
	logger    *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with chunking and logging.
func NewInstrumentedEmbedder(inner domain.Embedder, provider, model string, logger *zap.Logger) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{
		inner:     inner,
		provider:  provider,
		model:     model,
		chunkSize: DefaultMaxAPIBatchSize,
		logger:    logger,
	}
}

// Embed delegates to the inner embedder in chunks of at most chunkSize texts.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	start := time.Now()
	out := make([][]float32, 0, len(texts))

	for offset := 0; offset < len(texts); offset += p.chunkSize {
		end := min(offset+p.chunkSize, len(texts))
		chunk := texts[offset:end]

		vecs, err := p.inner.Embed(ctx, chunk)
		if err != nil {
			p.logger.Error("Embedding request failed",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			p.observe(start, "error")
			return nil, fmt.Errorf("embed chunk at %d: %w", offset, err)
		}
		if len(vecs) != len(chunk) {
			p.observe(start, "error")
			return nil, fmt.Errorf("embed chunk at %d: got %d vectors for %d texts: %w",
				offset, len(vecs), len(chunk), domain.ErrEmbeddingCountMismatch)
		}
		out = append(out, vecs...)
	}

	p.observe(start, "success")

	dims := 0
	if len(out) > 0 {
		dims = len(out[0])
	}
	p.logger.Debug("Embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("texts", len(texts)),
		zap.Int("dimensions", dims),
	)
	return out, nil
}

func (p *InstrumentedEmbedder) observe(start time.Time, status string) {
	metrics.EmbedCallsTotal.WithLabelValues(p.provider, p.model, status).Inc()
	metrics.EmbedCallDuration.WithLabelValues(p.provider, p.model).Observe(time.Since(start).Seconds())
}

// Binding reports the provider and model this embedder was resolved for.
func (p *InstrumentedEmbedder) Binding() domain.Binding {
	return domain.Binding{Provider: p.provider, Model: p.model}
}

// Dimensions forwards the inner embedder's configured dimensions.
func (p *InstrumentedEmbedder) Dimensions() int {
	if d, ok := p.inner.(domain.Dimensioner); ok {
		return d.Dimensions()
	}
	return 0
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
