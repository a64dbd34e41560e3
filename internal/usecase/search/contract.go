package search

import (
	"context"

	"github.com/kailas-cloud/poemdex/internal/domain/search/filter"
	"github.com/kailas-cloud/poemdex/internal/domain/search/request"
	"github.com/kailas-cloud/poemdex/internal/domain/search/result"
)

// Store runs similarity searches against a loaded collection.
// Hits come back best first with Distance set to the cosine similarity.
type Store interface {
	Search(
		ctx context.Context, collection string,
		vector []float32, params request.Params, expr filter.Expression, outputFields []string,
	) ([]result.Result, error)
}

// Delegate is an external search service tried before the local index.
type Delegate interface {
	Search(ctx context.Context, query, author string, limit int) ([]result.Result, error)
}
