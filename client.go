// Package poemdex indexes classical poems in a vector store and answers
// semantic queries over them.
//
// A Client is built from a config.Config: it owns the store connection, the
// embedder chain, the collection manager, the ingestion pipeline and the
// search engine.
package poemdex

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/poemdex/internal/config"
	"github.com/kailas-cloud/poemdex/internal/db"
	dbRedis "github.com/kailas-cloud/poemdex/internal/db/redis"
	dbValkey "github.com/kailas-cloud/poemdex/internal/db/valkey"
	"github.com/kailas-cloud/poemdex/internal/domain"
	domcol "github.com/kailas-cloud/poemdex/internal/domain/collection"
	"github.com/kailas-cloud/poemdex/internal/domain/poem"
	"github.com/kailas-cloud/poemdex/internal/domain/search/request"
	"github.com/kailas-cloud/poemdex/internal/domain/search/result"
	"github.com/kailas-cloud/poemdex/internal/metrics"
	collectionrepo "github.com/kailas-cloud/poemdex/internal/repository/collection"
	"github.com/kailas-cloud/poemdex/internal/repository/embcache"
	"github.com/kailas-cloud/poemdex/internal/repository/keyspace"
	"github.com/kailas-cloud/poemdex/internal/repository/memory"
	"github.com/kailas-cloud/poemdex/internal/repository/qdrant"
	recordrepo "github.com/kailas-cloud/poemdex/internal/repository/record"
	searchrepo "github.com/kailas-cloud/poemdex/internal/repository/search"
	"github.com/kailas-cloud/poemdex/internal/retry"
	"github.com/kailas-cloud/poemdex/internal/transport/delegate"
	"github.com/kailas-cloud/poemdex/internal/transport/hash"
	openaiEmb "github.com/kailas-cloud/poemdex/internal/transport/openai"
	collectionuc "github.com/kailas-cloud/poemdex/internal/usecase/collection"
	embeddinguc "github.com/kailas-cloud/poemdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/poemdex/internal/usecase/health"
	"github.com/kailas-cloud/poemdex/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/poemdex/internal/usecase/search"
)

// Client is the poemdex entry point.
type Client struct {
	cfg     config.Config
	manager *collectionuc.Manager
	engine  *searchuc.Engine
	health  *healthuc.Service
	close   func()
	logger  *zap.Logger
}

// backend bundles the store ports of one driver.
type backend struct {
	admin  collectionuc.Store
	writer ingest.Writer
	search searchuc.Store
	pinger healthuc.StorePinger
	kv     kvStore // nil when the driver has no key-value side for the embedding cache
	close  func()
}

type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// New connects to the configured store and wires every component.
// cfg must already be defaulted and validated.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Client, error) {
	metrics.Register()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider, providerName, err := buildProvider(cfg.Embedding, logger)
	if err != nil {
		be.close()
		return nil, err
	}
	docEmbedder, queryEmbedder := buildEmbedders(cfg, provider, providerName, be.kv, logger)

	pipeline := ingest.New(docEmbedder, be.writer, ingest.Config{
		BatchSize: cfg.Ingest.BatchSize,
		Policy:    poem.ParagraphPolicy(cfg.Ingest.ParagraphPolicy),
		Progress: func(file string, inserted, total int) {
			logger.Debug("Ingest progress",
				zap.String("file", file),
				zap.Int("inserted", inserted),
				zap.Int("total", total),
			)
		},
	}, logger)

	manager := collectionuc.New(be.admin, pipeline, collectionuc.Config{
		Shards: cfg.Collection.Shards,
		Index: domcol.IndexSpec{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
			EFRuntime:   cfg.Index.HNSWEFRuntime,
		},
		Retry: retry.Policy{
			Attempts: cfg.Retry.Attempts,
			Interval: time.Duration(cfg.Retry.IntervalMS) * time.Millisecond,
		},
	}, logger)

	var d searchuc.Delegate
	if cfg.Delegate.Enabled() {
		dc, err := delegate.NewClient(delegate.Config{
			URL:     cfg.Delegate.URL,
			APIKey:  cfg.Delegate.APIKey,
			Timeout: time.Duration(cfg.Delegate.TimeoutSec) * time.Second,
		})
		if err != nil {
			be.close()
			return nil, fmt.Errorf("%w: %w", domain.ErrConfig, err)
		}
		d = dc
	}

	engine := searchuc.New(be.search, queryEmbedder, d, searchuc.Config{
		Collection: cfg.Collection.Name,
		Params: request.Params{
			Metric:      request.MetricCosine,
			NProbe:      cfg.Search.NProbe,
			Radius:      cfg.Search.Radius,
			RangeFilter: cfg.Search.RangeFilter,
			Limit:       cfg.Search.Limit,
		},
	}, logger)

	var checker healthuc.EmbeddingChecker
	if hc, ok := provider.(domain.HealthChecker); ok {
		checker = hc
	}

	logger.Info("poemdex client ready",
		zap.String("driver", cfg.Database.Driver),
		zap.String("collection", cfg.Collection.Name),
		zap.String("embedding_provider", providerName),
		zap.Bool("delegate", d != nil),
	)

	return &Client{
		cfg:     cfg,
		manager: manager,
		engine:  engine,
		health:  healthuc.New(be.pinger, checker, manager, cfg.Collection.Name),
		close:   be.close,
		logger:  logger,
	}, nil
}

func openBackend(ctx context.Context, cfg config.Config) (backend, error) {
	switch cfg.Database.Driver {
	case config.DriverValkey, config.DriverRedis:
		return openRedisBackend(ctx, cfg)
	case config.DriverQdrant:
		s, err := qdrant.NewStore(qdrant.Config{
			Host:   cfg.Qdrant.Host,
			Port:   cfg.Qdrant.Port,
			APIKey: cfg.Qdrant.APIKey,
			UseTLS: cfg.Qdrant.UseTLS,
		})
		if err != nil {
			return backend{}, fmt.Errorf("poemdex: create qdrant store: %w", err)
		}
		return backend{admin: s, writer: s, search: s, pinger: s, close: s.Close}, nil
	case config.DriverMemory:
		s := memory.NewStore()
		return backend{admin: s, writer: s, search: s, pinger: s, close: s.Close}, nil
	default:
		return backend{}, fmt.Errorf("%w: unknown driver %q", domain.ErrConfig, cfg.Database.Driver)
	}
}

func openRedisBackend(ctx context.Context, cfg config.Config) (backend, error) {
	rc := dbRedis.Config{Addrs: cfg.Database.Addrs, Password: cfg.Database.Password}

	var (
		store db.Store
		err   error
	)
	if cfg.Database.Driver == config.DriverValkey {
		store, err = dbValkey.NewStore(rc)
	} else {
		store, err = dbRedis.NewStore(rc)
	}
	if err != nil {
		return backend{}, fmt.Errorf("poemdex: create %s store: %w", cfg.Database.Driver, err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return backend{}, fmt.Errorf("poemdex: %s not ready: %w", cfg.Database.Driver, err)
	}

	keys := keyspace.New(cfg.Storage.KeyPrefix)
	return backend{
		admin:  collectionrepo.New(store, keys),
		writer: recordrepo.New(store, keys),
		search: searchrepo.New(store, keys),
		pinger: store,
		kv:     store,
		close:  store.Close,
	}, nil
}

// buildProvider picks the base embedder. "auto" means OpenAI when a key is set, else hash.
func buildProvider(cfg config.EmbeddingConfig, logger *zap.Logger) (domain.Embedder, string, error) {
	name := cfg.Provider
	if name == config.ProviderAuto || name == "" {
		name = config.ProviderHash
		if cfg.APIKey != "" {
			name = config.ProviderOpenAI
		}
	}

	switch name {
	case config.ProviderOpenAI:
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Logger:     logger,
		}), name, nil
	case config.ProviderHash:
		logger.Warn("Using the offline hash embedder: similarity is lexical, not semantic")
		return hash.NewEmbedder(cfg.Dimensions), name, nil
	default:
		return nil, "", fmt.Errorf("%w: unknown embedding provider %q", domain.ErrConfig, name)
	}
}

// buildEmbedders assembles provider -> cache -> instrumented for documents, and adds the
// query instruction on top for queries, so cached vectors never mix the two.
func buildEmbedders(
	cfg config.Config, provider domain.Embedder, providerName string, kv kvStore, logger *zap.Logger,
) (doc, query domain.Embedder) {
	inner := provider
	if cfg.Embedding.Cache && kv != nil {
		ns := fmt.Sprintf("%s/%s/%d", providerName, cfg.Embedding.Model, cfg.Embedding.Dimensions)
		inner = embcache.New(provider, kv, keyspace.New(cfg.Storage.KeyPrefix), ns, metrics.EmbeddingCacheTotal, logger)
	}

	doc = embeddinguc.NewInstrumentedEmbedder(inner, providerName, cfg.Embedding.Model, cfg.Embedding.Dimensions, logger)
	query = doc
	if cfg.Embedding.QueryInstruction != "" {
		query = domain.NewInstructionEmbedder(doc, cfg.Embedding.QueryInstruction)
	}
	return doc, query
}

// CreateVectorDB recreates collection name, ingests every JSON file under dir,
// then builds the index and loads it.
func (c *Client) CreateVectorDB(ctx context.Context, name, dir string) (ingest.Report, error) {
	return c.manager.CreateVectorDB(ctx, name, dir)
}

// DeleteCollection drops collection name. A missing collection is OutcomeNotFound, not an error.
func (c *Client) DeleteCollection(ctx context.Context, name string) (collectionuc.Outcome, error) {
	return c.manager.DeleteCollection(ctx, name)
}

// Search returns poems similar to query.
func (c *Client) Search(ctx context.Context, query string) ([]result.Result, error) {
	return c.engine.Search(ctx, query)
}

// SearchByAuthor returns poems similar to query written by author.
func (c *Client) SearchByAuthor(ctx context.Context, query, author string) ([]result.Result, error) {
	return c.engine.SearchByAuthor(ctx, query, author)
}

// Do runs a prepared request.
func (c *Client) Do(ctx context.Context, req request.Request) ([]result.Result, error) {
	return c.engine.Do(ctx, req)
}

// Health probes the store, the embedding provider and the collection.
func (c *Client) Health(ctx context.Context) healthuc.Report {
	return c.health.Check(ctx)
}

// Config returns the configuration the client was built from.
func (c *Client) Config() config.Config { return c.cfg }

// Close releases the store connection.
func (c *Client) Close() {
	if c.close != nil {
		c.close()
	}
}
