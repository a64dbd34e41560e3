package collection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/poemdex/internal/domain"
	domcol "github.com/kailas-cloud/poemdex/internal/domain/collection"
	"github.com/kailas-cloud/poemdex/internal/domain/poem"
	"github.com/kailas-cloud/poemdex/internal/retry"
	"github.com/kailas-cloud/poemdex/internal/usecase/ingest"
)

// Outcome is the result of DeleteCollection.
type Outcome string

const (
	// OutcomeDeleted means the collection existed and was dropped.
	OutcomeDeleted Outcome = "deleted"
	// OutcomeNotFound means there was nothing to drop.
	OutcomeNotFound Outcome = "not_found"
)

// Config holds the manager settings.
type Config struct {
	Shards int
	Index  domcol.IndexSpec
	Retry  retry.Policy
}

// Manager owns the collection lifecycle: recreate, index, load and drop.
// Administrative calls must not run concurrently with ingestion or search on the same collection.
type Manager struct {
	store    Store
	ingester Ingester
	cfg      Config
	logger   *zap.Logger
}

// New creates a collection manager. ingester may be nil when CreateVectorDB is not used.
func New(store Store, ingester Ingester, cfg Config, logger *zap.Logger) *Manager {
	if cfg.Shards <= 0 {
		cfg.Shards = poem.ShardCount
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = retry.DefaultPolicy()
	}
	return &Manager{store: store, ingester: ingester, cfg: cfg, logger: logger}
}

// CreateCollection drops any collection with the same name, creates it with the poem schema,
// and waits until the store reports it.
func (m *Manager) CreateCollection(ctx context.Context, name string) error {
	col, err := domcol.New(name, poem.Schema, m.cfg.Shards)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreAdmin, err)
	}

	exists, err := m.store.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: check %s: %w", domain.ErrStoreAdmin, name, err)
	}
	if exists {
		if err := m.store.Drop(ctx, name); err != nil && !errors.Is(err, domain.ErrCollectionNotFound) {
			m.logger.Warn("Dropping existing collection failed, creating anyway",
				zap.String("collection", name), zap.Error(err))
		} else {
			m.logger.Info("Dropped existing collection", zap.String("collection", name))
		}
	}

	createErr := m.store.Create(ctx, col)
	policy := m.cfg.Retry
	if createErr != nil {
		m.logger.Error("Create collection request failed",
			zap.String("collection", name), zap.Error(createErr))
		policy.Attempts = 1
	}

	pollErr := retry.Until(ctx, policy, func(ctx context.Context) (bool, error) {
		ok, err := m.store.Exists(ctx, name)
		if err == nil && !ok {
			m.logger.Debug("Waiting for collection", zap.String("collection", name))
		}
		return ok, err
	})

	switch {
	case createErr != nil:
		m.logger.Info("Collection visibility after failed create",
			zap.String("collection", name), zap.Bool("visible", pollErr == nil))
		return fmt.Errorf("%w: create %s: %w", domain.ErrStoreAdmin, name, createErr)
	case pollErr != nil:
		return fmt.Errorf("%w: wait for %s: %w", domain.ErrStoreAdmin, name, pollErr)
	}

	m.logger.Info("Collection created",
		zap.String("collection", name),
		zap.Int("shards", col.Shards()),
		zap.Int("dim", col.VectorDim()),
	)
	return nil
}

// CreateIndex builds the ANN index, loads the collection and verifies it reaches Loaded.
// A build failure matches domain.ErrStoreAdmin; a load failure also matches domain.ErrLoadVerify.
func (m *Manager) CreateIndex(ctx context.Context, name string) error {
	if err := m.store.CreateIndex(ctx, name, m.cfg.Index); err != nil {
		return fmt.Errorf("%w: build index on %s: %w", domain.ErrStoreAdmin, name, err)
	}
	m.logger.Info("Index created",
		zap.String("collection", name),
		zap.String("field", poem.FieldVector),
		zap.Int("m", m.cfg.Index.M),
		zap.Int("ef_construction", m.cfg.Index.EFConstruct),
	)

	if err := m.store.Load(ctx, name); err != nil {
		return fmt.Errorf("%w: load %s: %w", domain.ErrLoadVerify, name, err)
	}

	state := domcol.StateNotExist
	err := retry.Until(ctx, m.cfg.Retry, func(ctx context.Context) (bool, error) {
		s, err := m.store.LoadState(ctx, name)
		if err != nil {
			return false, err
		}
		state = s
		return s == domcol.StateLoaded, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s is %s: %w", domain.ErrLoadVerify, name, state, err)
	}

	m.logger.Info("Collection loaded", zap.String("collection", name), zap.Stringer("state", state))
	return nil
}

// DeleteCollection drops the collection. A missing collection is OutcomeNotFound, not an error.
func (m *Manager) DeleteCollection(ctx context.Context, name string) (Outcome, error) {
	err := m.store.Drop(ctx, name)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		m.logger.Info("Collection does not exist", zap.String("collection", name))
		return OutcomeNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: drop %s: %w", domain.ErrStoreAdmin, name, err)
	}
	m.logger.Info("Collection dropped", zap.String("collection", name))
	return OutcomeDeleted, nil
}

// State reports the load state of a collection.
func (m *Manager) State(ctx context.Context, name string) (domcol.LoadState, error) {
	s, err := m.store.LoadState(ctx, name)
	if err != nil {
		return domcol.StateNotExist, fmt.Errorf("%w: state of %s: %w", domain.ErrStoreAdmin, name, err)
	}
	return s, nil
}

// CreateVectorDB recreates the collection, ingests dir into it, then indexes and loads it.
func (m *Manager) CreateVectorDB(ctx context.Context, name, dir string) (ingest.Report, error) {
	if m.ingester == nil {
		return ingest.Report{}, fmt.Errorf("create vector db: no ingester configured")
	}
	if err := m.CreateCollection(ctx, name); err != nil {
		return ingest.Report{}, err
	}

	start := time.Now()
	report, err := m.ingester.Ingest(ctx, name, dir)
	if err != nil {
		return report, fmt.Errorf("ingest %s: %w", dir, err)
	}
	m.logger.Info("Ingestion finished",
		zap.String("collection", name),
		zap.Int("records", report.Records),
		zap.Int("files_failed", len(report.Failures)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if err := m.CreateIndex(ctx, name); err != nil {
		return report, err
	}
	return report, nil
}
