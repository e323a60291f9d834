package collection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/veccoll/internal/db"
	"github.com/kailas-cloud/veccoll/internal/domain"
	"github.com/kailas-cloud/veccoll/internal/usecase/store"
)

// Compile-time check: Repo implements store.Store.
var _ store.Store = (*Repo)(nil)

// kvStore is the consumer interface for collections (ISP).
//
//nolint:interfacebloat // collection repo needs hash, index and search operations
type kvStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	DelMulti(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements store.Store on Valkey/Redis hashes with one FT index per collection.
type Repo struct {
	store    kvStore
	factory  store.EmbedderFactory
	hnsw     HNSWConfig
	distance db.DistanceMetric
	now      func() time.Time
}

// New creates a collection repository. factory rebuilds a collection's
// embedder when GetCollection is called without one.
func New(s kvStore, factory store.EmbedderFactory) *Repo {
	return &Repo{
		store:    s,
		factory:  factory,
		hnsw:     HNSWConfig{M: 32, EFConstruct: 400},
		distance: db.DistanceCosine,
		now:      time.Now,
	}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// WithDistance sets the distance metric for newly created indexes.
func (r *Repo) WithDistance(d db.DistanceMetric) *Repo {
	if d != "" {
		r.distance = d
	}
	return r
}

// ListCollections returns all collections sorted by creation time.
func (r *Repo) ListCollections(ctx context.Context) ([]store.Info, error) {
	keys, err := r.store.Scan(ctx, metaKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan collections: %w", err)
	}
	if len(keys) == 0 {
		return []store.Info{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi collections: %w", err)
	}

	rows := make([]collectionRow, 0, len(results))
	for _, m := range results {
		if len(m) == 0 {
			continue
		}
		rows = append(rows, collectionFromHash(m))
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].createdAt != rows[j].createdAt {
			return rows[i].createdAt < rows[j].createdAt
		}
		return rows[i].name < rows[j].name
	})

	out := make([]store.Info, len(rows))
	for i, row := range rows {
		out[i] = store.Info{Name: row.name, Metadata: row.metadata}
	}
	return out, nil
}

// GetCollection opens an existing collection.
func (r *Repo) GetCollection(ctx context.Context, name string, emb domain.Embedder) (store.Collection, error) {
	row, err := r.load(ctx, name)
	if err != nil {
		return nil, err
	}
	return r.openHandle(row, emb)
}

// GetOrCreateCollection opens name, creating its metadata hash when absent.
// Metadata of an existing collection is left untouched.
func (r *Repo) GetOrCreateCollection(
	ctx context.Context, name string, meta map[string]string, emb domain.Embedder,
) (store.Collection, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	row, err := r.load(ctx, name)
	switch {
	case err == nil:
		return r.openHandle(row, emb)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	binding := domain.BindingOf(emb)
	createdAt := r.now().UnixNano()
	if err := r.store.HSet(ctx, metaKey(name), collectionToHash(name, meta, binding, createdAt)); err != nil {
		return nil, fmt.Errorf("hset collection %s: %w", name, err)
	}

	return r.openHandle(collectionRow{
		name:      name,
		metadata:  copyMap(meta),
		binding:   binding,
		createdAt: createdAt,
	}, emb)
}

// DeleteCollection drops the index, then the documents, then the metadata hash.
func (r *Repo) DeleteCollection(ctx context.Context, name string) error {
	if _, err := r.load(ctx, name); err != nil {
		return err
	}

	if err := r.store.DropIndex(ctx, indexName(name)); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", name, err)
	}

	keys, err := r.store.Scan(ctx, collectionPrefix(name)+"*")
	if err != nil {
		return fmt.Errorf("scan documents %s: %w", name, err)
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return fmt.Errorf("del documents %s: %w", name, err)
	}

	if err := r.store.Del(ctx, metaKey(name)); err != nil {
		return fmt.Errorf("del collection %s: %w", name, err)
	}
	return nil
}

func (r *Repo) load(ctx context.Context, name string) (collectionRow, error) {
	m, err := r.store.HGetAll(ctx, metaKey(name))
	if err != nil {
		return collectionRow{}, fmt.Errorf("hgetall collection %s: %w", name, err)
	}
	if len(m) == 0 {
		return collectionRow{}, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	row := collectionFromHash(m)
	if row.name == "" {
		row.name = name
	}
	return row, nil
}

func (r *Repo) openHandle(row collectionRow, emb domain.Embedder) (store.Collection, error) {
	col, err := r.open(row, emb)
	if err != nil {
		return nil, err
	}
	return col, nil
}

// open binds a loaded collection to emb, or to its stored binding when emb is nil.
func (r *Repo) open(row collectionRow, emb domain.Embedder) (*Collection, error) {
	if emb == nil {
		if r.factory == nil {
			return nil, fmt.Errorf("collection %s: no embedder factory configured", row.name)
		}
		rebuilt, err := r.factory(row.binding.Provider, row.binding.Model)
		if err != nil {
			return nil, fmt.Errorf("rebuild embedder for %s: %w", row.name, err)
		}
		emb = rebuilt
	} else if requested := domain.BindingOf(emb); !row.binding.IsZero() && !requested.IsZero() && !requested.Equal(row.binding) {
		return nil, &domain.ConflictError{Collection: row.name, Bound: row.binding, Requested: requested}
	}

	return &Collection{
		repo:      r,
		name:      row.name,
		metadata:  row.metadata,
		embedder:  emb,
		vectorDim: row.vectorDim,
	}, nil
}

// validateName rejects names that would escape the collection's key namespace.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is required: %w", domain.ErrInvalidConfiguration)
	}
	if len(name) > 200 {
		return fmt.Errorf("collection name %q is too long: %w", name, domain.ErrInvalidConfiguration)
	}
	for _, c := range name {
		ok := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
			c == '_' || c == '-' || c == '.'
		if !ok {
			return fmt.Errorf("collection name %q contains %q: %w", name, c, domain.ErrInvalidConfiguration)
		}
	}
	if name == "collection" || name == "emb_cache" {
		return fmt.Errorf("collection name %q is reserved: %w", name, domain.ErrInvalidConfiguration)
	}
	return nil
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
