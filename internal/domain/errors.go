package domain

import (
	"errors"
)

var (
	// ErrInvalidConfiguration signals a malformed or incomplete configuration entry.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrSourceNotFound signals a missing tabular source file.
	ErrSourceNotFound = errors.New("source not found")
	// ErrUnsupportedProvider signals an embedding provider that cannot be resolved.
	ErrUnsupportedProvider = errors.New("unsupported embedding provider")
	// ErrStoreConflict signals that a collection already has a different embedding binding.
	ErrStoreConflict = errors.New("embedding function already exists")
	// ErrNotFound signals a missing collection.
	ErrNotFound = errors.New("not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingCountMismatch signals a provider returning a different number of vectors than inputs.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")
	// ErrDimensionMismatch signals vectors whose length differs from the collection's dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// ConflictError wraps ErrStoreConflict with the binding already present on the collection.
type ConflictError struct {
	Collection string
	Bound      Binding
	Requested  Binding
}

func (e *ConflictError) Error() string {
	return ErrStoreConflict.Error() + ": collection " + e.Collection +
		" is bound to " + e.Bound.String() + ", requested " + e.Requested.String()
}

func (e *ConflictError) Unwrap() error { return ErrStoreConflict }
