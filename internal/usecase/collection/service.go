// Package collection orchestrates collection sync, deletion and querying.
package collection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/veccoll/internal/domain"
	domcol "github.com/kailas-cloud/veccoll/internal/domain/collection"
	"github.com/kailas-cloud/veccoll/internal/logger"
	"github.com/kailas-cloud/veccoll/internal/source"
	"github.com/kailas-cloud/veccoll/internal/usecase/store"
)

// Outcome is the result of syncing one collection.
type Outcome struct {
	Name string
	Rows int
	Err  error
}

// SyncResult lists per-collection outcomes in configuration order.
type SyncResult struct {
	Outcomes []Outcome
}

// Failed returns the outcomes that ended in an error.
func (r SyncResult) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Service handles collection lifecycle operations.
type Service struct {
	store    store.Store
	resolver Resolver
	ingester Ingester
}

// New creates a collection service.
func New(st store.Store, resolver Resolver, ingester Ingester) *Service {
	return &Service{store: st, resolver: resolver, ingester: ingester}
}

// Sync creates or refreshes every spec's collection and ingests its source.
// Identities and embedders are resolved for all specs before the store is
// touched, so a configuration or provider error aborts with nothing applied.
// A missing source or an ingestion failure is recorded for that collection
// and the run continues; store errors abort.
func (s *Service) Sync(ctx context.Context, specs []domcol.Spec, rebuild bool) (SyncResult, error) {
	log := logger.FromContext(ctx)
	var res SyncResult

	plans := make([]plan, 0, len(specs))
	for _, spec := range specs {
		id, err := spec.Identity()
		if err != nil {
			return res, fmt.Errorf("collection identity: %w", err)
		}
		emb, err := s.resolver.Resolve(spec.Provider(), spec.EmbeddingModel(), nil)
		if err != nil {
			return res, fmt.Errorf("resolve embedder for %s: %w", id.Name, err)
		}
		plans = append(plans, plan{spec: spec, id: id, emb: emb})
	}

	for _, p := range plans {
		name := p.id.Name
		if err := source.Exists(p.spec.SourcePath()); err != nil {
			log.Error("Source missing, skipping collection", zap.String("collection", name), zap.Error(err))
			res.Outcomes = append(res.Outcomes, Outcome{Name: name, Err: fmt.Errorf("collection %s: %w", name, err)})
			continue
		}

		log.Info("Preparing collection",
			zap.String("collection", name),
			zap.String("source", p.spec.SourcePath()),
			zap.String("provider", p.spec.Provider()),
			zap.String("model", p.spec.EmbeddingModel()),
			zap.String("variant", p.spec.Variant()),
			zap.Int("batch_size", p.spec.BatchSize()),
		)

		if rebuild {
			deleted, err := s.Delete(ctx, name)
			if err != nil {
				return res, err
			}
			if deleted {
				log.Info("Deleted existing collection", zap.String("collection", name))
			}
		}

		col, err := s.store.GetOrCreateCollection(ctx, name, p.id.Metadata, p.emb)
		if err != nil {
			return res, fmt.Errorf("get or create collection %s: %w", name, err)
		}

		rows, err := s.ingester.Ingest(ctx, col, p.spec.BatchSize())
		if err != nil {
			log.Error("Ingestion failed", zap.String("collection", name), zap.Int("rows", rows), zap.Error(err))
		} else {
			log.Info("Ingestion complete", zap.String("collection", name), zap.Int("rows", rows))
		}
		res.Outcomes = append(res.Outcomes, Outcome{Name: name, Rows: rows, Err: err})
	}
	return res, nil
}

// plan is a spec whose identity and embedder are already resolved.
type plan struct {
	spec domcol.Spec
	id   domcol.Identity
	emb  domain.Embedder
}

// Delete removes a collection. A missing collection is not an error and reports false.
func (s *Service) Delete(ctx context.Context, name string) (bool, error) {
	if err := s.store.DeleteCollection(ctx, name); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("delete collection %s: %w", name, err)
	}
	return true, nil
}

// DeleteAll removes every listed collection, continuing past failures.
// It returns the deleted names and the joined failures.
func (s *Service) DeleteAll(ctx context.Context) ([]string, error) {
	infos, err := s.store.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	var (
		deleted []string
		errs    []error
	)
	for _, info := range infos {
		ok, err := s.Delete(ctx, info.Name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			deleted = append(deleted, info.Name)
		}
	}
	return deleted, errors.Join(errs...)
}

// Query returns up to limit matches for text in the selected collection.
// A numeric selector picks the n-th listed collection (1-based, 0 means the first).
func (s *Service) Query(ctx context.Context, selector, text string, limit int) (string, []store.Match, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil, fmt.Errorf("query text cannot be empty: %w", domain.ErrInvalidConfiguration)
	}
	if limit < 1 {
		return "", nil, fmt.Errorf("limit must be at least 1: %w", domain.ErrInvalidConfiguration)
	}

	name, err := s.selectCollection(ctx, strings.TrimSpace(selector))
	if err != nil {
		return "", nil, err
	}

	col, err := s.resolver.Attach(ctx, s.store, name, "", "")
	if err != nil {
		return name, nil, fmt.Errorf("attach collection %s: %w", name, err)
	}

	results, err := col.Query(ctx, []string{text}, limit)
	if err != nil {
		return name, nil, fmt.Errorf("query collection %s: %w", name, err)
	}
	if len(results) == 0 {
		return name, []store.Match{}, nil
	}
	return name, results[0], nil
}

func (s *Service) selectCollection(ctx context.Context, selector string) (string, error) {
	if selector == "" {
		return "", fmt.Errorf("collection name cannot be empty: %w", domain.ErrInvalidConfiguration)
	}
	idx, err := strconv.Atoi(selector)
	if err != nil || idx < 0 || strings.ContainsAny(selector, "+-") {
		return selector, nil
	}

	infos, err := s.store.ListCollections(ctx)
	if err != nil {
		return "", fmt.Errorf("list collections: %w", err)
	}
	pos := idx - 1
	if idx == 0 {
		pos = 0
	}
	if pos >= len(infos) {
		return "", fmt.Errorf("collection index %d is out of range (found %d collection(s)): %w",
			idx, len(infos), domain.ErrNotFound)
	}
	return infos[pos].Name, nil
}
