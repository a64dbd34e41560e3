package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/poemdex/internal/domain"
	"github.com/kailas-cloud/poemdex/internal/domain/poem"
	"github.com/kailas-cloud/poemdex/internal/domain/search/filter"
	"github.com/kailas-cloud/poemdex/internal/domain/search/request"
	"github.com/kailas-cloud/poemdex/internal/domain/search/result"
)

// Insert upserts one batch of records and waits for it to be applied.
func (s *Store) Insert(ctx context.Context, collection string, records []poem.Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, r := range records {
		if r.ID() < 0 {
			return fmt.Errorf("%w: record %d: qdrant ids must be non-negative", domain.ErrInvalidRecord, r.ID())
		}
		if !r.HasVector() {
			return fmt.Errorf("%w: record %d has no %d-dim vector", domain.ErrInvalidRecord, r.ID(), poem.VectorDim)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(r.ID())),
			Vectors: qdrant.NewVectors(r.Vector()...),
			Payload: qdrant.NewValueMap(map[string]any{
				poem.FieldID:         r.ID(),
				poem.FieldTitle:      r.Title(),
				poem.FieldAuthor:     r.Author(),
				poem.FieldParagraphs: r.Paragraphs(),
				poem.FieldType:       r.Type(),
			}),
		})
	}

	if _, err := s.api.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	}); err != nil {
		return fmt.Errorf("qdrant upsert %d points into %s: %w", len(points), collection, err)
	}
	return nil
}

// Search runs a nearest-neighbour query. NProbe becomes hnsw_ef and Radius the score threshold;
// the author filter is a must-match on the keyword payload index.
func (s *Store) Search(
	ctx context.Context, collection string,
	vector []float32, params request.Params, expr filter.Expression, outputFields []string,
) ([]result.Result, error) {
	req := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(params.Limit)),
		Params:         &qdrant.SearchParams{HnswEf: qdrant.PtrOf(uint64(params.NProbe))},
		ScoreThreshold: qdrant.PtrOf(float32(params.Radius)),
		WithPayload:    qdrant.NewWithPayloadInclude(outputFields...),
	}
	if len(outputFields) == 0 {
		req.WithPayload = qdrant.NewWithPayload(true)
	}
	if !expr.IsEmpty() {
		must := make([]*qdrant.Condition, 0, len(expr.Must()))
		for _, c := range expr.Must() {
			must = append(must, qdrant.NewMatch(c.Key(), c.Match()))
		}
		req.Filter = &qdrant.Filter{Must: must}
	}

	points, err := s.api.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("qdrant query %s: %w", collection, err)
	}

	out := make([]result.Result, 0, len(points))
	for _, p := range points {
		fields := make(map[string]string, len(p.GetPayload()))
		for k, v := range p.GetPayload() {
			fields[k] = v.GetStringValue()
		}
		out = append(out, result.FromFields(fields, min(1, float64(p.GetScore()))))
	}
	return out, nil
}
