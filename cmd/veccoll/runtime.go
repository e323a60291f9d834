package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/veccoll/internal/config"
	"github.com/kailas-cloud/veccoll/internal/db"
	dbRedis "github.com/kailas-cloud/veccoll/internal/db/redis"
	"github.com/kailas-cloud/veccoll/internal/domain"
	logpkg "github.com/kailas-cloud/veccoll/internal/logger"
	"github.com/kailas-cloud/veccoll/internal/metrics"
	collectionrepo "github.com/kailas-cloud/veccoll/internal/repository/collection"
	"github.com/kailas-cloud/veccoll/internal/repository/embcache"
	"github.com/kailas-cloud/veccoll/internal/repository/memstore"
	openaiEmb "github.com/kailas-cloud/veccoll/internal/transport/openai"
	collectionuc "github.com/kailas-cloud/veccoll/internal/usecase/collection"
	embeddinguc "github.com/kailas-cloud/veccoll/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/veccoll/internal/usecase/health"
	"github.com/kailas-cloud/veccoll/internal/usecase/ingest"
	reportuc "github.com/kailas-cloud/veccoll/internal/usecase/report"
	"github.com/kailas-cloud/veccoll/internal/usecase/store"
)

// runtime is the composition root of one command invocation.
type runtime struct {
	cfg      config.Config
	logger   *zap.Logger
	db       *dbRedis.Store // nil with --dry-run
	store    store.Store
	resolver *embeddinguc.Resolver

	collections *collectionuc.Service
	report      *reportuc.Service
	health      *healthuc.Service
}

// loadSettings reads --settings, else config/<env>.yaml. It touches no network.
func loadSettings(c *cli.Context) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if path := c.String("settings"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(c.String("env"))
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("load settings: %w", err)
	}
	return cfg, nil
}

// openRuntime loads settings and builds the runtime from them.
func openRuntime(c *cli.Context) (context.Context, *runtime, error) {
	cfg, err := loadSettings(c)
	if err != nil {
		return nil, nil, err
	}
	return newRuntime(c, cfg)
}

// newRuntime builds the logger, connects the store and wires the services
// for already loaded settings. Callers must call close.
func newRuntime(c *cli.Context, cfg config.Config) (context.Context, *runtime, error) {
	env := c.String("env")

	level := cfg.Logging.Level
	if l := c.String("log-level"); l != "" {
		level = l
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	ctx := logpkg.ContextWithLogger(c.Context, logger)
	rt := &runtime{cfg: cfg, logger: logger}

	rt.resolver = embeddinguc.NewResolver(embeddinguc.Settings{
		Provider: cfg.Embedding.Provider,
		Model:    cfg.Embedding.Model,
	}, logger)
	rt.resolver.Register("openai", openAIProvider(cfg.Embedding, logger))

	if c.Bool("dry-run") {
		logger.Info("Dry run: using in-memory store")
		rt.store = memstore.New(rt.resolver.Factory())
	} else {
		if err := rt.connect(ctx); err != nil {
			rt.close()
			return nil, nil, err
		}
	}

	rt.collections = collectionuc.New(rt.store, rt.resolver, ingest.New(rt.resolver.Settings().Model))
	rt.report = reportuc.New(rt.store, rt.resolver)

	var pinger healthuc.DBPinger
	if rt.db != nil {
		pinger = rt.db
	}
	rt.health = healthuc.New(pinger, rt.store, rt.resolver)

	return ctx, rt, nil
}

func (rt *runtime) connect(ctx context.Context) error {
	cfg := rt.cfg
	rt.logger.Info("Connecting to database",
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.Database.Addrs,
		Username:   cfg.Database.Username,
		Password:   cfg.Database.Password,
		DB:         cfg.Database.DB,
		TextSearch: cfg.Database.TextSearch(),
	})
	if err != nil {
		return fmt.Errorf("create database store: %w", err)
	}
	rt.db = s

	if err := s.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	if cfg.Embedding.Cache.Enabled {
		rt.resolver.Wrap(func(inner domain.Embedder) domain.Embedder {
			return embcache.New(inner, s, metrics.EmbeddingCacheTotal, rt.logger)
		})
	}

	distance, err := db.ParseDistance(strings.ToUpper(cfg.Index.Distance))
	if err != nil {
		return fmt.Errorf("index distance: %w", err)
	}
	rt.store = collectionrepo.New(s, rt.resolver.Factory()).
		WithHNSW(collectionrepo.HNSWConfig{M: cfg.Index.HNSWM, EFConstruct: cfg.Index.HNSWEFConstruct}).
		WithDistance(distance)

	rt.logger.Info("Connected to database")
	return nil
}

func (rt *runtime) close() {
	if rt.db != nil {
		rt.db.Close()
	}
	_ = rt.logger.Sync()
}

// openAIProvider builds OpenAI-compatible embedders. The configured
// dimensions apply only to the default model.
func openAIProvider(cfg config.EmbeddingConfig, logger *zap.Logger) embeddinguc.ProviderFunc {
	return func(model string) (domain.Embedder, error) {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key missing, set OPENAI_API_KEY or embedding.api_key: %w",
				domain.ErrInvalidConfiguration)
		}
		dims := 0
		if strings.EqualFold(model, cfg.Model) {
			dims = cfg.Dimensions
		}
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      model,
			Dimensions: dims,
			User:       cfg.User,
			Provider:   "openai",
			Logger:     logger,
		}), nil
	}
}
