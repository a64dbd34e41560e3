// Package valkey adapts the rueidis store to valkey-search, whose FT.INFO
// reports backfill progress under different attribute names than RediSearch.
package valkey

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/poemdex/internal/db"
	"github.com/kailas-cloud/poemdex/internal/db/redis"
)

var _ db.Store = (*Store)(nil)

// Store is a redis.Store with valkey-search specific index introspection.
type Store struct {
	*redis.Store
}

// NewStore connects to a Valkey server with the search module loaded.
func NewStore(cfg redis.Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{Store: redis.NewStoreFromClient(client)}, nil
}

// IndexInfo maps valkey-search backfill attributes onto db.IndexInfo.
func (s *Store) IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error) {
	raw, err := s.RawIndexInfo(ctx, name)
	if err != nil {
		return nil, err
	}

	info := &db.IndexInfo{
		Name:                 raw["index_name"],
		NumDocs:              redis.ParseInfoInt(raw["num_docs"]),
		Indexing:             redis.ParseInfoBool(raw["backfill_in_progress"]),
		PercentIndexed:       redis.ParseInfoFloat(raw["backfill_complete_percent"], 1),
		HashIndexingFailures: redis.ParseInfoInt(raw["hash_indexing_failures"]),
	}
	if info.Name == "" {
		info.Name = name
	}
	// "state" is authoritative when present: anything but ready means still building.
	if state, ok := raw["state"]; ok && state != "ready" {
		info.Indexing = true
		if info.PercentIndexed >= 1 {
			info.PercentIndexed = 0.99
		}
	}
	return info, nil
}
