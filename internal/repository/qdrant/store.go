// Package qdrant stores poem collections in Qdrant.
//
// A poem collection maps onto one Qdrant collection with a single unnamed
// cosine vector. Records become points keyed by their numeric id with the
// text fields in the payload. Author filtering uses a keyword payload index.
package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// api is the subset of *qdrant.Client the store uses.
//
//nolint:interfacebloat // mirrors the SDK surface one-to-one
type api interface {
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
	CollectionExists(ctx context.Context, name string) (bool, error)
	GetCollectionInfo(ctx context.Context, name string) (*qdrant.CollectionInfo, error)
	CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error
	UpdateCollection(ctx context.Context, req *qdrant.UpdateCollection) error
	DeleteCollection(ctx context.Context, name string) error
	CreateFieldIndex(ctx context.Context, req *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error)
	Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
}

// Config holds Qdrant connection settings.
type Config struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// Store implements the collection, record and search ports on Qdrant.
type Store struct {
	api    api
	closer func() error
}

// NewStore connects to Qdrant over gRPC.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}
	port := cfg.Port
	if port == 0 {
		port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   cfg.Host,
		Port:                   port,
		APIKey:                 cfg.APIKey,
		UseTLS:                 cfg.UseTLS,
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	return &Store{api: client, closer: client.Close}, nil
}

func newStoreWithAPI(a api) *Store {
	return &Store{api: a}
}

// Ping runs the Qdrant health check.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.api.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health: %w", err)
	}
	return nil
}

// Close releases the gRPC connection.
func (s *Store) Close() {
	if s.closer != nil {
		_ = s.closer()
	}
}
