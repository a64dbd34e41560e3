package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/poemdex/internal/domain"
	domcol "github.com/kailas-cloud/poemdex/internal/domain/collection"
	"github.com/kailas-cloud/poemdex/internal/domain/poem"
)

// Exists reports whether the Qdrant collection is present.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := s.api.CollectionExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("qdrant exists %s: %w", name, err)
	}
	return ok, nil
}

// Create creates the collection with a cosine vector of the schema width and the schema shard count.
func (s *Store) Create(ctx context.Context, col domcol.Collection) error {
	req := &qdrant.CreateCollection{
		CollectionName: col.Name(),
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(col.VectorDim()),
			Distance: qdrant.Distance_Cosine,
		}),
		ShardNumber: qdrant.PtrOf(uint32(col.Shards())),
	}
	if err := s.api.CreateCollection(ctx, req); err != nil {
		return fmt.Errorf("qdrant create %s: %w", col.Name(), err)
	}
	return nil
}

// Drop deletes the collection and its points.
func (s *Store) Drop(ctx context.Context, name string) error {
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrCollectionNotFound
	}
	if err := s.api.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("qdrant drop %s: %w", name, err)
	}
	return nil
}

// CreateIndex applies the HNSW parameters and adds a keyword index on the author payload.
func (s *Store) CreateIndex(ctx context.Context, name string, spec domcol.IndexSpec) error {
	hnsw := &qdrant.HnswConfigDiff{}
	if spec.M > 0 {
		hnsw.M = qdrant.PtrOf(uint64(spec.M))
	}
	if spec.EFConstruct > 0 {
		hnsw.EfConstruct = qdrant.PtrOf(uint64(spec.EFConstruct))
	}
	if err := s.api.UpdateCollection(ctx, &qdrant.UpdateCollection{
		CollectionName: name,
		HnswConfig:     hnsw,
	}); err != nil {
		return fmt.Errorf("qdrant hnsw config %s: %w", name, err)
	}

	if _, err := s.api.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: name,
		Wait:           qdrant.PtrOf(true),
		FieldName:      poem.FieldAuthor,
		FieldType:      qdrant.PtrOf(qdrant.FieldType_FieldTypeKeyword),
	}); err != nil {
		return fmt.Errorf("qdrant author index %s: %w", name, err)
	}
	return nil
}

// Load is a presence check: Qdrant serves a collection as soon as it exists.
func (s *Store) Load(ctx context.Context, name string) error {
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("load %s: %w", name, domain.ErrCollectionNotFound)
	}
	return nil
}

// LoadState maps the collection status: green is Loaded, yellow and grey are
// still optimizing, red is a failed collection.
func (s *Store) LoadState(ctx context.Context, name string) (domcol.LoadState, error) {
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return domcol.StateNotExist, err
	}
	if !ok {
		return domcol.StateNotExist, nil
	}

	info, err := s.api.GetCollectionInfo(ctx, name)
	if err != nil {
		return domcol.StateNotExist, fmt.Errorf("qdrant info %s: %w", name, err)
	}

	switch info.GetStatus() {
	case qdrant.CollectionStatus_Green:
		return domcol.StateLoaded, nil
	case qdrant.CollectionStatus_Yellow, qdrant.CollectionStatus_Grey:
		return domcol.StateLoading, nil
	default:
		return domcol.StateNotLoad, nil
	}
}
