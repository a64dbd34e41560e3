// Package record writes poem records into a Redis/Valkey collection.
package record

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/poemdex/internal/db"
	"github.com/kailas-cloud/poemdex/internal/domain"
	"github.com/kailas-cloud/poemdex/internal/domain/poem"
	"github.com/kailas-cloud/poemdex/internal/repository/keyspace"
)

// store is the consumer interface for record writes (ISP).
type store interface {
	Exists(ctx context.Context, key string) (bool, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
}

// Repo implements usecase/ingest.Writer.
type Repo struct {
	store store
	keys  keyspace.Keyspace
}

// New creates a record repository.
func New(s store, keys keyspace.Keyspace) *Repo {
	return &Repo{store: s, keys: keys}
}

// Insert writes one batch in a single pipelined round-trip.
// Every record must carry a vector of the schema width.
func (r *Repo) Insert(ctx context.Context, collection string, records []poem.Record) error {
	if len(records) == 0 {
		return nil
	}

	exists, err := r.store.Exists(ctx, r.keys.Meta(collection))
	if err != nil {
		return fmt.Errorf("check collection %s: %w", collection, err)
	}
	if !exists {
		return fmt.Errorf("insert into %s: %w", collection, domain.ErrCollectionNotFound)
	}

	items := make([]db.HashSetItem, len(records))
	for i, rec := range records {
		if !rec.HasVector() {
			return fmt.Errorf("%w: record %d has no %d-dim vector", domain.ErrInvalidRecord, rec.ID(), poem.VectorDim)
		}
		items[i] = db.HashSetItem{
			Key:    r.keys.Record(collection, rec.ID()),
			Fields: recordToHash(rec),
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("insert %d records into %s: %w", len(items), collection, err)
	}
	return nil
}
