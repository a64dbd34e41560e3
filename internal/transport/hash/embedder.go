// Package hash is a local, deterministic embedding provider.
//
// Each text is split into character unigrams and bigrams. Every feature is hashed into one
// of Dim buckets with a hash-derived sign, then the vector is L2-normalized. Texts that share
// characters score a positive cosine similarity. It is not a semantic model; it exists for
// offline runs and tests.
package hash

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/poemdex/internal/domain"
	"github.com/kailas-cloud/poemdex/internal/metrics"
)

const (
	providerName = "hash"
	bigramWeight = 2.0
)

// Embedder hashes character n-grams into fixed-width vectors.
type Embedder struct {
	dim int
}

// NewEmbedder creates a hash embedder producing dim-wide vectors.
func NewEmbedder(dim int) *Embedder {
	if dim <= 0 {
		dim = domain.DefaultDimensions
	}
	return &Embedder{dim: dim}
}

// Dim returns the output width.
func (e *Embedder) Dim() int { return e.dim }

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, texts []string) (domain.EmbeddingResult, error) {
	dense := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return domain.EmbeddingResult{}, fmt.Errorf("hash embed: %w", err)
		}
		v, err := e.vector(t)
		if err != nil {
			metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, providerName, "invalid_input").Inc()
			return domain.EmbeddingResult{}, fmt.Errorf("text [%d]: %w", i, err)
		}
		dense[i] = v
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, providerName, "success").Inc()
	return domain.EmbeddingResult{Dense: dense}, nil
}

// HealthCheck always succeeds.
func (e *Embedder) HealthCheck(context.Context) error { return nil }

func (e *Embedder) vector(text string) ([]float32, error) {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) == 0 {
		return nil, fmt.Errorf("%w: empty text", domain.ErrEmbedding)
	}

	acc := make([]float64, e.dim)
	for i, r := range runes {
		e.add(acc, string(r), 1)
		if i+1 < len(runes) {
			e.add(acc, string(runes[i:i+2]), bigramWeight)
		}
	}

	var norm float64
	for _, x := range acc {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return nil, fmt.Errorf("%w: text hashes to a zero vector", domain.ErrEmbedding)
	}

	out := make([]float32, e.dim)
	for i, x := range acc {
		out[i] = float32(x / norm)
	}
	return out, nil
}

func (e *Embedder) add(acc []float64, feature string, weight float64) {
	h := xxhash.Sum64String(feature)
	bucket := h % uint64(e.dim)
	if h>>63 == 1 {
		weight = -weight
	}
	acc[bucket] += weight
}
