package health

import (
	"context"

	"github.com/kailas-cloud/veccoll/internal/usecase/store"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// CollectionLister lists the collections of the vector store.
type CollectionLister interface {
	ListCollections(ctx context.Context) ([]store.Info, error)
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
