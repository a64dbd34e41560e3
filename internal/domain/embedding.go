package domain

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Embedder is the shared text vectorization contract between layers.
// Output is one vector per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries dense vectors and token usage through the decorator chain.
type EmbeddingResult struct {
	Dense        [][]float32
	PromptTokens int
	TotalTokens  int
}

// ValidateTexts rejects empty batches and texts that are blank or not valid UTF-8.
func ValidateTexts(texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("%w: no input texts", ErrEmbedding)
	}
	for i, t := range texts {
		if !utf8.ValidString(t) {
			return fmt.Errorf("%w: text [%d] is not valid UTF-8", ErrEmbedding, i)
		}
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("%w: text [%d] is empty", ErrEmbedding, i)
		}
	}
	return nil
}

// CheckResult verifies that a provider returned n vectors of width dim.
// dim <= 0 skips the width check.
func CheckResult(res EmbeddingResult, n, dim int) error {
	if len(res.Dense) != n {
		return fmt.Errorf("%w: expected %d vectors, got %d", ErrEmbedding, n, len(res.Dense))
	}
	if dim <= 0 {
		return nil
	}
	for i, v := range res.Dense {
		if len(v) != dim {
			return fmt.Errorf("%w: vector [%d] has %d dimensions, expected %d", ErrEmbedding, i, len(v), dim)
		}
	}
	return nil
}

// InstructionEmbedder is a domain decorator that prepends instruction text before embedding.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder creates a decorator that prepends instruction text.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed prepends the instruction to each text and delegates to inner.
func (e *InstructionEmbedder) Embed(ctx context.Context, texts []string) (EmbeddingResult, error) {
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = e.instruction + t
	}
	result, err := e.inner.Embed(ctx, prefixed)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}
