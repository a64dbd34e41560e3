package health

import (
	"context"

	domcol "github.com/kailas-cloud/poemdex/internal/domain/collection"
)

// StorePinger checks vector store connectivity.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks the embedding provider.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CollectionProber reports whether the poem collection is searchable.
type CollectionProber interface {
	State(ctx context.Context, name string) (domcol.LoadState, error)
}
