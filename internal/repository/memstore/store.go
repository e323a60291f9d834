// Package memstore is an in-process store.Store used by tests and --dry-run.
package memstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kailas-cloud/veccoll/internal/domain"
	"github.com/kailas-cloud/veccoll/internal/usecase/store"
)

// Compile-time check: Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store keeps collections in memory. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	factory store.EmbedderFactory
	cols    map[string]*collectionData
	seq     int
}

type collectionData struct {
	name     string
	metadata map[string]string
	binding  domain.Binding
	seq      int
	dim      int
	order    []string
	docs     map[string]document
}

type document struct {
	text     string
	metadata map[string]string
	vector   []float32
}

// New creates an empty store. factory may be nil when callers always pass an embedder.
func New(factory store.EmbedderFactory) *Store {
	return &Store{factory: factory, cols: make(map[string]*collectionData)}
}

// ListCollections returns collections in creation order.
func (s *Store) ListCollections(_ context.Context) ([]store.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := make([]*collectionData, 0, len(s.cols))
	for _, c := range s.cols {
		data = append(data, c)
	}
	sort.Slice(data, func(i, j int) bool { return data[i].seq < data[j].seq })

	out := make([]store.Info, len(data))
	for i, c := range data {
		out[i] = store.Info{Name: c.name, Metadata: copyMap(c.metadata)}
	}
	return out, nil
}

// GetCollection opens an existing collection.
func (s *Store) GetCollection(_ context.Context, name string, emb domain.Embedder) (store.Collection, error) {
	s.mu.Lock()
	c, ok := s.cols[name]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	return s.bind(c, emb)
}

// GetOrCreateCollection opens name, creating it when absent. Existing metadata is kept.
func (s *Store) GetOrCreateCollection(
	_ context.Context, name string, meta map[string]string, emb domain.Embedder,
) (store.Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("collection name is required: %w", domain.ErrInvalidConfiguration)
	}

	s.mu.Lock()
	c, ok := s.cols[name]
	if !ok {
		s.seq++
		c = &collectionData{
			name:     name,
			metadata: copyMap(meta),
			binding:  domain.BindingOf(emb),
			seq:      s.seq,
			docs:     make(map[string]document),
		}
		s.cols[name] = c
	}
	s.mu.Unlock()

	return s.bind(c, emb)
}

// DeleteCollection removes a collection and its documents.
func (s *Store) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cols[name]; !ok {
		return fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	delete(s.cols, name)
	return nil
}

func (s *Store) bind(c *collectionData, emb domain.Embedder) (store.Collection, error) {
	if emb == nil {
		if s.factory == nil {
			return nil, fmt.Errorf("collection %s: no embedder factory configured", c.name)
		}
		rebuilt, err := s.factory(c.binding.Provider, c.binding.Model)
		if err != nil {
			return nil, fmt.Errorf("rebuild embedder for %s: %w", c.name, err)
		}
		emb = rebuilt
	} else if requested := domain.BindingOf(emb); !c.binding.IsZero() && !requested.IsZero() && !requested.Equal(c.binding) {
		return nil, &domain.ConflictError{Collection: c.name, Bound: c.binding, Requested: requested}
	}
	return &Collection{store: s, data: c, embedder: emb}, nil
}

// Collection is a handle on an in-memory collection.
type Collection struct {
	store    *Store
	data     *collectionData
	embedder domain.Embedder
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.data.name }

// Embedder returns the embedder the handle is bound to.
func (c *Collection) Embedder() domain.Embedder { return c.embedder }

// Metadata returns a copy of the collection metadata.
func (c *Collection) Metadata() map[string]string {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return copyMap(c.data.metadata)
}

// Add embeds documents and upserts them by id.
func (c *Collection) Add(ctx context.Context, ids, documents []string, metadatas []map[string]string) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) {
		return fmt.Errorf("add to %s: misaligned slices: %w", c.data.name, domain.ErrInvalidConfiguration)
	}
	if len(ids) == 0 {
		return nil
	}

	vecs, err := c.embedder.Embed(ctx, documents)
	if err != nil {
		return fmt.Errorf("embed documents for %s: %w", c.data.name, err)
	}
	if len(vecs) != len(ids) {
		return fmt.Errorf("embed documents for %s: %w", c.data.name, domain.ErrEmbeddingCountMismatch)
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	d := c.data
	for i, v := range vecs {
		want := d.dim
		if want == 0 {
			want = len(vecs[0])
		}
		if len(v) != want {
			return fmt.Errorf("document %s has %d dimensions, expected %d: %w", ids[i], len(v), want, domain.ErrDimensionMismatch)
		}
	}
	if d.dim == 0 {
		d.dim = len(vecs[0])
	}

	for i, id := range ids {
		if _, exists := d.docs[id]; !exists {
			d.order = append(d.order, id)
		}
		d.docs[id] = document{text: documents[i], metadata: copyMap(metadatas[i]), vector: vecs[i]}
	}
	return nil
}

// Count returns the number of stored documents.
func (c *Collection) Count(_ context.Context) (int, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return len(c.data.docs), nil
}

// Query ranks documents by cosine distance to each text, best first.
func (c *Collection) Query(ctx context.Context, texts []string, n int) ([][]store.Match, error) {
	if n < 1 {
		return nil, fmt.Errorf("query %s: n must be at least 1: %w", c.data.name, domain.ErrInvalidConfiguration)
	}
	vecs, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed query for %s: %w", c.data.name, err)
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	out := make([][]store.Match, len(vecs))
	for qi, q := range vecs {
		matches := make([]store.Match, 0, len(c.data.order))
		for _, id := range c.data.order {
			doc := c.data.docs[id]
			dist := cosineDistance(q, doc.vector)
			matches = append(matches, store.Match{
				ID:       id,
				Document: doc.text,
				Metadata: copyMap(doc.metadata),
				Distance: dist,
				Score:    math.Max(0, 1-dist),
			})
		}
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
		if len(matches) > n {
			matches = matches[:n]
		}
		out[qi] = matches
	}
	return out, nil
}

// Dimension reports the dimension of the stored vectors, unknown before the first Add.
func (c *Collection) Dimension(_ context.Context) (int, bool) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return c.data.dim, c.data.dim > 0
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
