package collection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/veccoll/internal/db"
	"github.com/kailas-cloud/veccoll/internal/domain"
	"github.com/kailas-cloud/veccoll/internal/usecase/store"
)

// Compile-time check: Collection implements store.Collection.
var _ store.Collection = (*Collection)(nil)

// Collection is a handle on one collection, bound to an embedder.
type Collection struct {
	repo       *Repo
	name       string
	metadata   map[string]string
	embedder   domain.Embedder
	vectorDim  int
	indexReady bool
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Metadata returns a copy of the collection metadata.
func (c *Collection) Metadata() map[string]string { return copyMap(c.metadata) }

// Embedder returns the embedder the handle is bound to.
func (c *Collection) Embedder() domain.Embedder { return c.embedder }

// Add embeds documents in one call and upserts them with a pipelined HSET.
// The FT index is created on the first Add, sized by the first vector.
func (c *Collection) Add(ctx context.Context, ids, documents []string, metadatas []map[string]string) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) {
		return fmt.Errorf("add to %s: %d ids, %d documents, %d metadatas: %w",
			c.name, len(ids), len(documents), len(metadatas), domain.ErrInvalidConfiguration)
	}
	if len(ids) == 0 {
		return nil
	}

	vecs, err := c.embedder.Embed(ctx, documents)
	if err != nil {
		return fmt.Errorf("embed documents for %s: %w", c.name, err)
	}
	if len(vecs) != len(documents) {
		return fmt.Errorf("embed documents for %s: %w", c.name, domain.ErrEmbeddingCountMismatch)
	}

	dim := len(vecs[0])
	for i, v := range vecs {
		if len(v) != dim {
			return fmt.Errorf("document %s has %d dimensions, expected %d: %w", ids[i], len(v), dim, domain.ErrDimensionMismatch)
		}
	}
	if err := c.ensureIndex(ctx, dim); err != nil {
		return err
	}

	items := make([]db.HashSetItem, len(ids))
	for i, id := range ids {
		items[i] = db.HashSetItem{
			Key:     docKey(c.name, id),
			Fields:  documentToHash(id, documents[i], db.EncodeVector(vecs[i]), metadatas[i]),
			Replace: true,
		}
	}
	if err := c.repo.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset documents for %s: %w", c.name, err)
	}
	return nil
}

func (c *Collection) ensureIndex(ctx context.Context, dim int) error {
	if c.vectorDim > 0 && c.vectorDim != dim {
		return fmt.Errorf("collection %s expects %d dimensions, got %d: %w", c.name, c.vectorDim, dim, domain.ErrDimensionMismatch)
	}
	if c.indexReady {
		return nil
	}

	def, err := buildIndex(c.name, dim, c.repo.distance, c.repo.hnsw)
	if err != nil {
		return fmt.Errorf("build index for %s: %w", c.name, err)
	}
	if err := c.repo.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index for %s: %w", c.name, err)
	}

	if c.vectorDim == 0 {
		err := c.repo.store.HSet(ctx, metaKey(c.name), map[string]string{fieldVectorDim: strconv.Itoa(dim)})
		if err != nil {
			return fmt.Errorf("record vector dim for %s: %w", c.name, err)
		}
		c.vectorDim = dim
	}
	c.indexReady = true
	return nil
}

// Count returns the number of indexed documents; 0 before the first Add.
func (c *Collection) Count(ctx context.Context) (int, error) {
	n, err := c.repo.store.SearchCount(ctx, indexName(c.name), "*")
	if errors.Is(err, db.ErrIndexNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.name, err)
	}
	return n, nil
}

// Query runs one KNN search per text and hydrates each hit's metadata.
func (c *Collection) Query(ctx context.Context, texts []string, n int) ([][]store.Match, error) {
	if n < 1 {
		return nil, fmt.Errorf("query %s: n must be at least 1: %w", c.name, domain.ErrInvalidConfiguration)
	}
	out := make([][]store.Match, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	vecs, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed query for %s: %w", c.name, err)
	}

	for i, vec := range vecs {
		res, err := c.repo.store.SearchKNN(ctx, &db.KNNQuery{
			IndexName:    indexName(c.name),
			Vector:       vec,
			K:            n,
			ReturnFields: []string{docFieldID, docFieldContent},
			Distance:     c.repo.distance,
		})
		if errors.Is(err, db.ErrIndexNotFound) {
			out[i] = []store.Match{}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", c.name, err)
		}

		matches, err := c.hydrate(ctx, res.Entries)
		if err != nil {
			return nil, err
		}
		out[i] = matches
	}
	return out, nil
}

func (c *Collection) hydrate(ctx context.Context, entries []db.SearchEntry) ([]store.Match, error) {
	matches := make([]store.Match, len(entries))
	if len(entries) == 0 {
		return matches, nil
	}

	keys := make([]string, len(entries))
	for i := range entries {
		keys[i] = entries[i].Key
	}
	hashes, err := c.repo.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load matches for %s: %w", c.name, err)
	}

	prefix := collectionPrefix(c.name)
	for i, e := range entries {
		id := e.Fields[docFieldID]
		if id == "" {
			id = strings.TrimPrefix(e.Key, prefix)
		}
		matches[i] = store.Match{
			ID:       id,
			Document: e.Fields[docFieldContent],
			Distance: e.Distance,
			Score:    e.Score,
		}
		if i < len(hashes) {
			matches[i].Metadata = documentMetadata(hashes[i])
		}
	}
	return matches, nil
}

// Dimension prefers FT.INFO and falls back to the dimension recorded at index creation.
func (c *Collection) Dimension(ctx context.Context) (int, bool) {
	if info, err := c.repo.store.IndexInfo(ctx, indexName(c.name)); err == nil && info.VectorDim > 0 {
		return info.VectorDim, true
	}
	if c.vectorDim > 0 {
		return c.vectorDim, true
	}
	return 0, false
}
