package veccoll

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/veccoll/internal/db"
	dbRedis "github.com/kailas-cloud/veccoll/internal/db/redis"
	"github.com/kailas-cloud/veccoll/internal/domain"
	domcol "github.com/kailas-cloud/veccoll/internal/domain/collection"
	logpkg "github.com/kailas-cloud/veccoll/internal/logger"
	collectionrepo "github.com/kailas-cloud/veccoll/internal/repository/collection"
	"github.com/kailas-cloud/veccoll/internal/repository/embcache"
	"github.com/kailas-cloud/veccoll/internal/repository/memstore"
	collectionuc "github.com/kailas-cloud/veccoll/internal/usecase/collection"
	embeddinguc "github.com/kailas-cloud/veccoll/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/veccoll/internal/usecase/health"
	"github.com/kailas-cloud/veccoll/internal/usecase/ingest"
	reportuc "github.com/kailas-cloud/veccoll/internal/usecase/report"
	"github.com/kailas-cloud/veccoll/internal/usecase/store"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the veccoll library entry point.
type Client struct {
	db          *dbRedis.Store // nil for in-memory clients
	collections *collectionuc.Service
	report      *reportuc.Service
	health      *healthuc.Service
	logger      *zap.Logger
	obs         *observer
}

// New creates a Client. With WithValkey or WithRedis it connects and waits
// for the database using ctx; otherwise collections live in memory.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	resolver := embeddinguc.NewResolver(embeddinguc.Settings{
		Provider: cfg.provider,
		Model:    cfg.model,
	}, logger)
	for name, fn := range cfg.providers {
		resolver.Register(name, adaptProvider(name, fn))
	}

	c := &Client{logger: logger, obs: obs}

	var st store.Store
	switch cfg.driver {
	case "":
		st = memstore.New(resolver.Factory())
	case "valkey", "redis":
		repo, err := c.connect(ctx, cfg, resolver)
		if err != nil {
			c.Close()
			return nil, err
		}
		st = repo
	default:
		return nil, fmt.Errorf("veccoll: unknown driver %q", cfg.driver)
	}

	c.collections = collectionuc.New(st, resolver, ingest.New(resolver.Settings().Model))
	c.report = reportuc.New(st, resolver)

	var pinger healthuc.DBPinger
	if c.db != nil {
		pinger = c.db
	}
	c.health = healthuc.New(pinger, st, resolver)
	return c, nil
}

func (c *Client) connect(ctx context.Context, cfg *clientConfig, resolver *embeddinguc.Resolver) (store.Store, error) {
	distance, err := db.ParseDistance(strings.ToUpper(cfg.distance))
	if err != nil {
		return nil, fmt.Errorf("veccoll: %w", err)
	}

	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.addrs,
		Password:   cfg.password,
		TextSearch: cfg.driver == "redis",
	})
	if err != nil {
		return nil, fmt.Errorf("veccoll: create %s store: %w", cfg.driver, err)
	}
	c.db = s

	if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		return nil, fmt.Errorf("veccoll: database not ready: %w", err)
	}

	if cfg.cache {
		resolver.Wrap(func(inner domain.Embedder) domain.Embedder {
			return embcache.New(inner, s, nil, c.logger)
		})
	}

	repo := collectionrepo.New(s, resolver.Factory()).WithDistance(distance)
	if cfg.hnswM > 0 || cfg.hnswEFConstruct > 0 {
		repo = repo.WithHNSW(collectionrepo.HNSWConfig{
			M:           cfg.hnswM,
			EFConstruct: cfg.hnswEFConstruct,
		})
	}
	return repo, nil
}

// adaptProvider binds embedders built by fn to (name, model).
func adaptProvider(name string, fn ProviderFunc) embeddinguc.ProviderFunc {
	provider := strings.ToLower(strings.TrimSpace(name))
	return func(model string) (domain.Embedder, error) {
		e, err := fn(model)
		if err != nil {
			return nil, err
		}
		return &embedderAdapter{inner: e, binding: domain.Binding{Provider: provider, Model: model}}, nil
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.db != nil {
		c.db.Close()
	}
}

func (c *Client) ctx(ctx context.Context) context.Context {
	return logpkg.ContextWithLogger(ctx, c.logger)
}

// SyncFile declares and ingests every collection listed in the JSON config at path.
func (c *Client) SyncFile(ctx context.Context, path string, rebuild bool) (res SyncResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("sync", start, err) }()

	doc, err := domcol.LoadDocument(path)
	if err != nil {
		return SyncResult{}, fmt.Errorf("load collections config: %w", err)
	}
	return c.sync(ctx, doc.Specs(), rebuild)
}

// Sync is SyncFile for an in-memory config; relative source paths resolve against baseDir.
func (c *Client) Sync(ctx context.Context, config []byte, baseDir string, rebuild bool) (res SyncResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("sync", start, err) }()

	specs, err := domcol.ParseDocument(config, baseDir)
	if err != nil {
		return SyncResult{}, fmt.Errorf("parse collections config: %w", err)
	}
	return c.sync(ctx, specs, rebuild)
}

func (c *Client) sync(ctx context.Context, specs []domcol.Spec, rebuild bool) (SyncResult, error) {
	r, err := c.collections.Sync(c.ctx(ctx), specs, rebuild)
	res := SyncResult{Outcomes: make([]SyncOutcome, 0, len(r.Outcomes))}
	for _, o := range r.Outcomes {
		res.Outcomes = append(res.Outcomes, SyncOutcome(o))
	}
	if err != nil {
		return res, fmt.Errorf("sync: %w", err)
	}
	return res, nil
}

// Report lists every collection with its live and expected record counts.
func (c *Client) Report(ctx context.Context) (rows []ReportRow, err error) {
	start := time.Now()
	defer func() { c.obs.observe("report", start, err) }()

	raw, err := c.report.Report(c.ctx(ctx))
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	rows = make([]ReportRow, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, newReportRow(r))
	}
	return rows, nil
}

// Query returns the limit nearest records to text. collection is a name,
// a 1-based position in the listing, or empty for the first collection.
// The resolved collection name is returned alongside the matches.
func (c *Client) Query(ctx context.Context, collection, text string, limit int) (name string, matches []Match, err error) {
	start := time.Now()
	defer func() { c.obs.observe("query", start, err) }()

	if strings.TrimSpace(collection) == "" {
		collection = "0"
	}
	name, raw, err := c.collections.Query(c.ctx(ctx), collection, text, limit)
	if err != nil {
		return name, nil, fmt.Errorf("query: %w", err)
	}
	matches = make([]Match, 0, len(raw))
	for _, m := range raw {
		matches = append(matches, Match(m))
	}
	return name, matches, nil
}

// Delete removes a collection. It reports false when there was nothing to delete.
func (c *Client) Delete(ctx context.Context, name string) (deleted bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete", start, err) }()

	deleted, err = c.collections.Delete(c.ctx(ctx), name)
	if err != nil {
		return false, fmt.Errorf("delete: %w", err)
	}
	return deleted, nil
}

// DeleteAll removes every collection and returns the names deleted,
// including on partial failure.
func (c *Client) DeleteAll(ctx context.Context) (deleted []string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_all", start, err) }()

	deleted, err = c.collections.DeleteAll(c.ctx(ctx))
	if err != nil {
		return deleted, fmt.Errorf("delete all: %w", err)
	}
	return deleted, nil
}
