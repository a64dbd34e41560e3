package cli

import (
	"context"

	"github.com/kailas-cloud/poemdex/internal/domain/search/result"
	"github.com/kailas-cloud/poemdex/internal/usecase/collection"
	"github.com/kailas-cloud/poemdex/internal/usecase/ingest"
)

// Admin runs collection lifecycle commands.
type Admin interface {
	CreateVectorDB(ctx context.Context, name, dir string) (ingest.Report, error)
	DeleteCollection(ctx context.Context, name string) (collection.Outcome, error)
}

// Searcher answers queries.
type Searcher interface {
	Search(ctx context.Context, query string) ([]result.Result, error)
	SearchByAuthor(ctx context.Context, query, author string) ([]result.Result, error)
}
