package collection

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/poemdex/internal/db"
	"github.com/kailas-cloud/poemdex/internal/domain"
	domcol "github.com/kailas-cloud/poemdex/internal/domain/collection"
	"github.com/kailas-cloud/poemdex/internal/repository/keyspace"
)

// delChunk bounds the number of keys per DEL while dropping records.
const delChunk = 500

// store is the consumer interface for collections (ISP).
//
//nolint:interfacebloat // collection repo needs hash + index management operations
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error)
}

// Repo implements usecase/collection.Store on Redis/Valkey.
type Repo struct {
	store store
	keys  keyspace.Keyspace
}

// New creates a collection repository.
func New(s store, keys keyspace.Keyspace) *Repo {
	return &Repo{store: s, keys: keys}
}

// Exists reports whether the collection metadata hash is present.
func (r *Repo) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := r.store.Exists(ctx, r.keys.Meta(name))
	if err != nil {
		return false, fmt.Errorf("exists collection %s: %w", name, err)
	}
	return ok, nil
}

// Create stores the collection metadata. Records written under the record prefix
// before CreateIndex are picked up by the index backfill.
func (r *Repo) Create(ctx context.Context, col domcol.Collection) error {
	name := col.Name()
	metaKey := r.keys.Meta(name)

	exists, err := r.store.Exists(ctx, metaKey)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return fmt.Errorf("collection %s already exists", name)
	}

	hashData, err := collectionToHash(col)
	if err != nil {
		return err
	}
	if err := r.store.HSet(ctx, metaKey, hashData); err != nil {
		return fmt.Errorf("hset collection %s: %w", name, err)
	}
	return nil
}

// Get retrieves a collection by name.
func (r *Repo) Get(ctx context.Context, name string) (domcol.Collection, error) {
	m, err := r.store.HGetAll(ctx, r.keys.Meta(name))
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("hgetall collection %s: %w", name, err)
	}
	if len(m) == 0 {
		return domcol.Collection{}, domain.ErrCollectionNotFound
	}
	return collectionFromHash(m)
}

// Drop removes the index, every record hash and the metadata.
// A collection with neither metadata nor index is ErrCollectionNotFound.
func (r *Repo) Drop(ctx context.Context, name string) error {
	metaExists, err := r.store.Exists(ctx, r.keys.Meta(name))
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}

	indexDropped := true
	if err := r.store.DropIndex(ctx, r.keys.Index(name)); err != nil {
		if !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop index %s: %w", name, err)
		}
		indexDropped = false
	}

	if !metaExists && !indexDropped {
		return domain.ErrCollectionNotFound
	}

	keys, err := r.store.Scan(ctx, r.keys.RecordPrefix(name)+"*")
	if err != nil {
		return fmt.Errorf("scan records %s: %w", name, err)
	}
	for start := 0; start < len(keys); start += delChunk {
		end := min(start+delChunk, len(keys))
		if err := r.store.Del(ctx, keys[start:end]...); err != nil {
			return fmt.Errorf("del records %s: %w", name, err)
		}
	}

	if err := r.store.Del(ctx, r.keys.Meta(name)); err != nil {
		return fmt.Errorf("del collection %s: %w", name, err)
	}
	return nil
}

// CreateIndex issues FT.CREATE for the collection schema. An existing index is kept.
func (r *Repo) CreateIndex(ctx context.Context, name string, spec domcol.IndexSpec) error {
	col, err := r.Get(ctx, name)
	if err != nil {
		return err
	}

	def, err := buildIndex(r.keys.Index(name), r.keys.RecordPrefix(name), col, spec)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// Load is a presence check: an FT index serves queries as soon as it exists,
// backfill progress is reported by LoadState.
func (r *Repo) Load(ctx context.Context, name string) error {
	ok, err := r.store.IndexExists(ctx, r.keys.Index(name))
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	if !ok {
		return fmt.Errorf("load %s: %w", name, db.ErrIndexNotFound)
	}
	return nil
}

// LoadState derives the serving state from metadata presence and FT.INFO backfill progress.
func (r *Repo) LoadState(ctx context.Context, name string) (domcol.LoadState, error) {
	exists, err := r.Exists(ctx, name)
	if err != nil {
		return domcol.StateNotExist, err
	}
	if !exists {
		return domcol.StateNotExist, nil
	}

	info, err := r.store.IndexInfo(ctx, r.keys.Index(name))
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return domcol.StateNotLoad, nil
		}
		return domcol.StateNotExist, fmt.Errorf("index info %s: %w", name, err)
	}
	if info.Ready() {
		return domcol.StateLoaded, nil
	}
	return domcol.StateLoading, nil
}
