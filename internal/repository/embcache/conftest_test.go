package embcache

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/poemdex/internal/db"
	"github.com/kailas-cloud/poemdex/internal/domain"
	"github.com/kailas-cloud/poemdex/internal/repository/keyspace"
)

// mockEmbedder returns vector {len(text), i} for each input and records every call.
type mockEmbedder struct {
	err   error
	calls [][]string
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) (domain.EmbeddingResult, error) {
	m.calls = append(m.calls, texts)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	dense := make([][]float32, len(texts))
	for i, t := range texts {
		dense[i] = []float32{float32(len(t)), float32(i)}
	}
	return domain.EmbeddingResult{Dense: dense, PromptTokens: len(texts), TotalTokens: len(texts)}, nil
}

// memKV is an in-memory KV store.
type memKV struct {
	data map[string][]byte
	gets int
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.gets++
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder) (*CachedEmbedder, *memKV) {
	t.Helper()
	kv := &memKV{data: map[string][]byte{}}
	return New(inner, kv, keyspace.New(""), "test/512", nil, zap.NewNop()), kv
}
