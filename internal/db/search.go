package db

import "github.com/kailas-cloud/poemdex/internal/domain/search/filter"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string // defaults to "vector"
	Filters      filter.Expression
	Vector       []float32
	K            int
	EFRuntime    int // per-query HNSW candidate list size, 0 keeps the index default
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hit. Score is cosine similarity (1 - distance), clamped at 0.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
