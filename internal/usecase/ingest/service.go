// Package ingest streams tabular source rows into a collection in batches.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/veccoll/internal/domain"
	"github.com/kailas-cloud/veccoll/internal/domain/record"
	"github.com/kailas-cloud/veccoll/internal/logger"
	"github.com/kailas-cloud/veccoll/internal/metrics"
	"github.com/kailas-cloud/veccoll/internal/source"
	"github.com/kailas-cloud/veccoll/internal/usecase/store"
)

// Opener opens a tabular source for reading.
type Opener func(path string) (source.Reader, error)

// Service ingests source rows into collections.
type Service struct {
	open         Opener
	defaultModel string
}

// New creates an ingestion service. defaultModel is stamped on records when
// the collection metadata carries no embedding model.
func New(defaultModel string) *Service {
	return &Service{open: source.Open, defaultModel: defaultModel}
}

// WithOpener overrides how sources are opened.
func (s *Service) WithOpener(open Opener) *Service {
	s.open = open
	return s
}

// Ingest reads the collection's bound source and adds its rows in batches of
// at most batchSize, in source order. It returns the number of rows submitted.
// A failed batch stops the run; earlier batches stay written.
func (s *Service) Ingest(ctx context.Context, col store.Collection, batchSize int) (int, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batch size must be positive, got %d: %w", batchSize, domain.ErrInvalidConfiguration)
	}

	meta := col.Metadata()
	path, ok := meta[domain.MetaSource]
	if !ok || path == "" {
		return 0, fmt.Errorf("collection %s has no source bound: %w", col.Name(), domain.ErrSourceNotFound)
	}
	if err := source.Exists(path); err != nil {
		return 0, err
	}

	r, err := s.open(path)
	if err != nil {
		return 0, fmt.Errorf("open source %s: %w", path, err)
	}
	defer func() { _ = r.Close() }()

	ctx, log := logger.With(ctx, zap.String("collection", col.Name()))

	total := 0
	batchNo := 0
	batch := record.NewBatch(batchSize)

	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		batchNo++
		start := time.Now()
		if err := col.Add(ctx, batch.IDs, batch.Texts, batch.Metadatas); err != nil {
			metrics.IngestBatchesTotal.WithLabelValues(col.Name(), "error").Inc()
			return fmt.Errorf("add batch %d to %s: %w", batchNo, col.Name(), err)
		}
		metrics.IngestBatchesTotal.WithLabelValues(col.Name(), "success").Inc()
		metrics.IngestBatchDuration.WithLabelValues(col.Name()).Observe(time.Since(start).Seconds())
		metrics.IngestRowsTotal.WithLabelValues(col.Name()).Add(float64(batch.Len()))

		total += batch.Len()
		log.Debug("Batch added",
			zap.Int("batch", batchNo),
			zap.Int("rows", batch.Len()),
			zap.Int("total", total),
			zap.Duration("duration", time.Since(start)),
		)
		batch = record.NewBatch(batchSize)
		return nil
	}

	for index := 0; ; index++ {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, fmt.Errorf("read %s row %d: %w", path, index, err)
		}

		batch.Append(record.Transform(row, index, meta, s.defaultModel))
		if batch.Len() >= batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}

	if err := flush(); err != nil {
		return total, err
	}

	log.Info("Ingestion finished", zap.Int("rows", total), zap.Int("batches", batchNo))
	return total, nil
}
