package ingest

import (
	"context"

	"github.com/kailas-cloud/poemdex/internal/domain/poem"
)

// Writer inserts embedded records into a collection.
type Writer interface {
	Insert(ctx context.Context, collection string, records []poem.Record) error
}

// ProgressFunc is called after every inserted sub-batch.
type ProgressFunc func(file string, inserted, total int)
