// Package store declares the vector-store capability the application consumes.
package store

import (
	"context"

	"github.com/kailas-cloud/veccoll/internal/domain"
)

// Info is a listed collection: its name and stored metadata.
type Info struct {
	Name     string
	Metadata map[string]string
}

// Match is one nearest-neighbour hit for a query text.
type Match struct {
	ID       string            `json:"id"`
	Document string            `json:"document"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Distance float64           `json:"distance"`
	Score    float64           `json:"score"`
}

// EmbedderFactory rebuilds the embedder for a collection's stored binding.
type EmbedderFactory func(provider, model string) (domain.Embedder, error)

// Store manages named collections.
//
// GetCollection with a non-nil embedder whose binding differs from the
// collection's returns domain.ErrStoreConflict. With a nil embedder the
// store rebuilds the collection's own binding.
type Store interface {
	ListCollections(ctx context.Context) ([]Info, error)
	GetCollection(ctx context.Context, name string, emb domain.Embedder) (Collection, error)
	GetOrCreateCollection(ctx context.Context, name string, meta map[string]string, emb domain.Embedder) (Collection, error)
	DeleteCollection(ctx context.Context, name string) error
}

// Collection is a handle to one collection bound to an embedder.
type Collection interface {
	Name() string
	Metadata() map[string]string
	// Add embeds documents and upserts them by id. Slices are index-aligned.
	Add(ctx context.Context, ids, documents []string, metadatas []map[string]string) error
	Count(ctx context.Context) (int, error)
	// Query returns up to n matches per text, best first.
	Query(ctx context.Context, texts []string, n int) ([][]Match, error)
	// Dimension reports the vector dimensionality as known to the store.
	Dimension(ctx context.Context) (int, bool)
}

// Bound is implemented by collection handles that expose their embedder.
type Bound interface {
	Embedder() domain.Embedder
}
