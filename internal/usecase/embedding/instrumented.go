// Package embedding holds the provider-independent embedding decorators.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/poemdex/internal/domain"
	"github.com/kailas-cloud/poemdex/internal/metrics"
)

// DefaultMaxAPIBatchSize is the largest chunk forwarded to the provider in one call.
const DefaultMaxAPIBatchSize = 256

// InstrumentedEmbedder validates input, splits it into provider-sized chunks,
// checks every chunk's shape and records metrics and logs.
type InstrumentedEmbedder struct {
	inner     domain.Embedder
	provider  string
	model     string
	dim       int
	chunkSize int
	logger    *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder. dim <= 0 disables the width check.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string, dim int, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:     inner,
		provider:  provider,
		model:     model,
		dim:       dim,
		chunkSize: DefaultMaxAPIBatchSize,
		logger:    logger,
	}
}

// Embed implements domain.Embedder. Malformed input fails before any provider call.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, texts []string) (domain.EmbeddingResult, error) {
	if err := domain.ValidateTexts(texts); err != nil {
		metrics.EmbeddingErrorsTotal.WithLabelValues(p.provider, p.model, "invalid_input").Inc()
		return domain.EmbeddingResult{}, err
	}

	start := time.Now()
	out := domain.EmbeddingResult{Dense: make([][]float32, 0, len(texts))}

	for offset := 0; offset < len(texts); offset += p.chunkSize {
		end := min(offset+p.chunkSize, len(texts))
		chunk := texts[offset:end]

		res, err := p.inner.Embed(ctx, chunk)
		if err == nil {
			err = domain.CheckResult(res, len(chunk), p.dim)
		}
		if err != nil {
			metrics.EmbeddingErrorsTotal.WithLabelValues(p.provider, p.model, "provider").Inc()
			p.logger.Error("Embedding request failed",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.EmbeddingResult{}, fmt.Errorf("embed chunk at %d: %w", offset, asEmbeddingError(err))
		}

		out.Dense = append(out.Dense, res.Dense...)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}

	metrics.EmbeddingTextsTotal.WithLabelValues(p.provider).Add(float64(len(texts)))
	p.logger.Debug("Embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Int("texts", len(texts)),
		zap.Duration("duration", time.Since(start)),
		zap.Int("total_tokens", out.TotalTokens),
	)

	return out, nil
}

// asEmbeddingError makes sure provider failures match domain.ErrEmbedding.
func asEmbeddingError(err error) error {
	if errors.Is(err, domain.ErrEmbedding) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
}
