package collection

import (
	"context"

	"github.com/kailas-cloud/veccoll/internal/domain"
	"github.com/kailas-cloud/veccoll/internal/usecase/store"
)

// Resolver resolves embedders and attaches collections to them.
type Resolver interface {
	Resolve(provider, model string, existing map[string]string) (domain.Embedder, error)
	Attach(ctx context.Context, st store.Store, name, provider, model string) (store.Collection, error)
}

// Ingester streams a collection's source into it.
type Ingester interface {
	Ingest(ctx context.Context, col store.Collection, batchSize int) (int, error)
}
