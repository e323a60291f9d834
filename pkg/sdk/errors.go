package veccoll

import "github.com/kailas-cloud/veccoll/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidConfiguration   = domain.ErrInvalidConfiguration
	ErrSourceNotFound         = domain.ErrSourceNotFound
	ErrUnsupportedProvider    = domain.ErrUnsupportedProvider
	ErrStoreConflict          = domain.ErrStoreConflict
	ErrNotFound               = domain.ErrNotFound
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrDimensionMismatch      = domain.ErrDimensionMismatch
)
