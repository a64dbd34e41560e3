// Package search runs KNN queries against a Redis/Valkey poem index.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/poemdex/internal/db"
	"github.com/kailas-cloud/poemdex/internal/domain"
	"github.com/kailas-cloud/poemdex/internal/domain/poem"
	"github.com/kailas-cloud/poemdex/internal/domain/search/filter"
	"github.com/kailas-cloud/poemdex/internal/domain/search/request"
	"github.com/kailas-cloud/poemdex/internal/domain/search/result"
	"github.com/kailas-cloud/poemdex/internal/repository/keyspace"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements usecase/search.Store.
type Repo struct {
	store store
	keys  keyspace.Keyspace
}

// New creates a search repository.
func New(s store, keys keyspace.Keyspace) *Repo {
	return &Repo{store: s, keys: keys}
}

// Search returns up to params.Limit hits, best first. NProbe becomes the per-query
// HNSW candidate list size. The filter is evaluated by the index before ranking.
// Hits keep the store's similarity; band filtering is left to the caller.
func (r *Repo) Search(
	ctx context.Context, collection string,
	vector []float32, params request.Params, expr filter.Expression, outputFields []string,
) ([]result.Result, error) {
	q := &db.KNNQuery{
		IndexName:    r.keys.Index(collection),
		VectorField:  poem.FieldVector,
		Filters:      expr,
		Vector:       vector,
		K:            params.Limit,
		EFRuntime:    params.NProbe,
		ReturnFields: outputFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("search %s: %w", collection, domain.ErrCollectionNotFound)
		}
		return nil, fmt.Errorf("search knn %s: %w", collection, err)
	}

	if sr == nil || len(sr.Entries) == 0 {
		return []result.Result{}, nil
	}

	out := make([]result.Result, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		out = append(out, result.FromFields(e.Fields, e.Score))
	}
	return out, nil
}
