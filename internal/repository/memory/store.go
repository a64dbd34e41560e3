// Package memory is an in-process poem store with brute-force cosine search.
// It serves offline runs and tests; nothing is persisted.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kailas-cloud/poemdex/internal/domain"
	domcol "github.com/kailas-cloud/poemdex/internal/domain/collection"
	"github.com/kailas-cloud/poemdex/internal/domain/poem"
	"github.com/kailas-cloud/poemdex/internal/domain/search/filter"
	"github.com/kailas-cloud/poemdex/internal/domain/search/request"
	"github.com/kailas-cloud/poemdex/internal/domain/search/result"
)

type collection struct {
	meta    domcol.Collection
	indexed bool
	loaded  bool
	records map[int64]poem.Record
}

// Store implements the collection, record and search ports in memory.
type Store struct {
	mu    sync.RWMutex
	colls map[string]*collection
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{colls: make(map[string]*collection)}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// Exists reports whether the collection is present.
func (s *Store) Exists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.colls[name]
	return ok, nil
}

// Create adds an empty, unindexed collection.
func (s *Store) Create(_ context.Context, col domcol.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.colls[col.Name()]; ok {
		return fmt.Errorf("collection %q already exists", col.Name())
	}
	s.colls[col.Name()] = &collection{meta: col, records: make(map[int64]poem.Record)}
	return nil
}

// Drop removes the collection and its records.
func (s *Store) Drop(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.colls[name]; !ok {
		return domain.ErrCollectionNotFound
	}
	delete(s.colls, name)
	return nil
}

// CreateIndex marks the collection as indexed. HNSW parameters do not apply to a linear scan.
func (s *Store) CreateIndex(_ context.Context, name string, _ domcol.IndexSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.colls[name]
	if !ok {
		return domain.ErrCollectionNotFound
	}
	c.indexed = true
	return nil
}

// Load makes an indexed collection searchable.
func (s *Store) Load(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.colls[name]
	if !ok {
		return domain.ErrCollectionNotFound
	}
	if !c.indexed {
		return fmt.Errorf("collection %q has no index", name)
	}
	c.loaded = true
	return nil
}

// LoadState reports NotExist, NotLoad or Loaded.
func (s *Store) LoadState(_ context.Context, name string) (domcol.LoadState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.colls[name]
	switch {
	case !ok:
		return domcol.StateNotExist, nil
	case c.loaded:
		return domcol.StateLoaded, nil
	default:
		return domcol.StateNotLoad, nil
	}
}

// Count returns the number of records in a collection.
func (s *Store) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.colls[name]; ok {
		return len(c.records)
	}
	return 0
}

// Insert adds records. Ids are immutable: inserting an existing id fails the whole batch.
func (s *Store) Insert(_ context.Context, name string, records []poem.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.colls[name]
	if !ok {
		return domain.ErrCollectionNotFound
	}
	for _, r := range records {
		if !r.HasVector() {
			return fmt.Errorf("%w: record %d has no %d-dim vector", domain.ErrInvalidRecord, r.ID(), poem.VectorDim)
		}
		if _, dup := c.records[r.ID()]; dup {
			return fmt.Errorf("%w: record %d already exists", domain.ErrInvalidRecord, r.ID())
		}
	}
	for _, r := range records {
		c.records[r.ID()] = r
	}
	return nil
}

// Search scores every matching record by cosine similarity and returns the best params.Limit.
func (s *Store) Search(
	_ context.Context, name string,
	vector []float32, params request.Params, expr filter.Expression, outputFields []string,
) ([]result.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.colls[name]
	if !ok {
		return nil, domain.ErrCollectionNotFound
	}
	if !c.loaded {
		return nil, fmt.Errorf("collection %q is not loaded", name)
	}

	out := make([]result.Result, 0)
	for _, r := range c.records {
		fields := fieldsOf(r)
		if !matches(fields, expr) {
			continue
		}
		out = append(out, result.FromFields(project(fields, outputFields), cosine(vector, r.Vector())))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Distance > out[j].Distance })
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func fieldsOf(r poem.Record) map[string]string {
	return map[string]string{
		poem.FieldTitle:      r.Title(),
		poem.FieldAuthor:     r.Author(),
		poem.FieldParagraphs: r.Paragraphs(),
		poem.FieldType:       r.Type(),
	}
}

func matches(fields map[string]string, expr filter.Expression) bool {
	for _, cond := range expr.Must() {
		if fields[cond.Key()] != cond.Match() {
			return false
		}
	}
	return true
}

func project(fields map[string]string, keep []string) map[string]string {
	if len(keep) == 0 {
		return fields
	}
	out := make(map[string]string, len(keep))
	for _, k := range keep {
		if v, ok := fields[k]; ok {
			out[k] = v
		}
	}
	return out
}

// cosine is clamped to [0, 1] like the similarity the index-backed stores report.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return math.Max(0, math.Min(1, dot/(math.Sqrt(na)*math.Sqrt(nb))))
}
