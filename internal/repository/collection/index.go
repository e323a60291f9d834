package collection

import (
	"github.com/kailas-cloud/veccoll/internal/db"
)

// buildIndex creates the FT index definition for a collection's documents.
// The TEXT field is only sent to backends with text search (Redis 8+).
func buildIndex(name string, vectorDim int, distance db.DistanceMetric, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	idx, err := db.NewIndex(indexName(name)).
		Prefix(collectionPrefix(name)).
		Text(docFieldContent).
		VectorHNSW(docFieldVector, "vector", vectorDim, distance, hnsw.M, hnsw.EFConstruct).
		Build()
	if err != nil {
		return nil, err //nolint:wrapcheck // caller wraps with collection name
	}
	return idx, nil
}
