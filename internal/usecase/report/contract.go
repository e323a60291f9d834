package report

import (
	"context"

	"github.com/kailas-cloud/veccoll/internal/usecase/store"
)

// Attacher opens a collection bound to the embedder its metadata names.
type Attacher interface {
	Attach(ctx context.Context, st store.Store, name, provider, model string) (store.Collection, error)
}

// Counter counts data rows in a tabular source.
type Counter func(path string) (int, error)
