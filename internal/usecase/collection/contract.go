package collection

import (
	"context"

	domcol "github.com/kailas-cloud/poemdex/internal/domain/collection"
	"github.com/kailas-cloud/poemdex/internal/usecase/ingest"
)

// Store is the administrative contract of a vector store holding poem collections.
type Store interface {
	Exists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, col domcol.Collection) error
	// Drop returns domain.ErrCollectionNotFound when nothing was there.
	Drop(ctx context.Context, name string) error
	CreateIndex(ctx context.Context, name string, spec domcol.IndexSpec) error
	Load(ctx context.Context, name string) error
	LoadState(ctx context.Context, name string) (domcol.LoadState, error)
}

// Ingester fills a collection from a source directory.
type Ingester interface {
	Ingest(ctx context.Context, collection, dir string) (ingest.Report, error)
}
