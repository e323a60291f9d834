// Package report reconciles stored collections against their tabular sources.
package report

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/veccoll/internal/domain"
	"github.com/kailas-cloud/veccoll/internal/logger"
	"github.com/kailas-cloud/veccoll/internal/metrics"
	"github.com/kailas-cloud/veccoll/internal/source"
	"github.com/kailas-cloud/veccoll/internal/usecase/store"
)

// Row is the health of one collection.
type Row struct {
	Name     string
	Provider string
	Model    string
	Variant  string
	Source   string
	Metadata map[string]string

	Live      int
	Expected  *int
	Dimension *int

	// Err is set when the collection could not be attached or counted.
	Err error
	// SourceErr is set when the bound source could not be counted.
	SourceErr error
}

// Matched reports whether the expected row count is known and equals the live count.
func (r Row) Matched() bool {
	return r.Err == nil && r.Expected != nil && *r.Expected == r.Live
}

// Service builds collection reports.
type Service struct {
	store    store.Store
	attacher Attacher
	count    Counter
}

// New creates a report service.
func New(st store.Store, attacher Attacher) *Service {
	return &Service{store: st, attacher: attacher, count: source.Count}
}

// WithCounter overrides how source rows are counted.
func (s *Service) WithCounter(c Counter) *Service {
	s.count = c
	return s
}

// Report returns one row per collection in store listing order.
// Per-collection failures are recorded on the row; only a listing failure is returned.
func (s *Service) Report(ctx context.Context) ([]Row, error) {
	infos, err := s.store.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	log := logger.FromContext(ctx)
	rows := make([]Row, 0, len(infos))
	for _, info := range infos {
		row := s.row(ctx, info)
		if row.Err != nil {
			log.Warn("Collection unavailable", zap.String("collection", info.Name), zap.Error(row.Err))
		} else {
			metrics.CollectionDocuments.WithLabelValues(row.Name).Set(float64(row.Live))
			if row.Expected != nil {
				metrics.CollectionExpectedDocuments.WithLabelValues(row.Name).Set(float64(*row.Expected))
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Service) row(ctx context.Context, info store.Info) Row {
	meta := info.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	row := Row{
		Name:     info.Name,
		Provider: meta[domain.MetaProvider],
		Model:    meta[domain.MetaEmbeddingModel],
		Variant:  meta[domain.MetaVariant],
		Source:   meta[domain.MetaSource],
		Metadata: meta,
	}

	col, err := s.attacher.Attach(ctx, s.store, info.Name, "", "")
	if err != nil {
		row.Err = err
		return row
	}

	live, err := col.Count(ctx)
	if err != nil {
		row.Err = fmt.Errorf("count: %w", err)
		return row
	}
	row.Live = live
	row.Dimension = dimension(ctx, col, meta)

	if row.Source != "" {
		n, err := s.count(row.Source)
		if err != nil {
			row.SourceErr = err
		} else {
			row.Expected = &n
		}
	}
	return row
}

// dimension tries the store, then metadata, then the bound embedder.
func dimension(ctx context.Context, col store.Collection, meta map[string]string) *int {
	if d, ok := col.Dimension(ctx); ok && d > 0 {
		return &d
	}
	for _, key := range []string{domain.MetaDimension, domain.MetaEmbeddingDimensions} {
		if d, err := strconv.Atoi(meta[key]); err == nil && d > 0 {
			return &d
		}
	}
	if b, ok := col.(store.Bound); ok {
		if dm, ok := b.Embedder().(domain.Dimensioner); ok && dm.Dimensions() > 0 {
			d := dm.Dimensions()
			return &d
		}
	}
	return nil
}
