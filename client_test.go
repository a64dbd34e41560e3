package poemdex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/poemdex/internal/config"
	"github.com/kailas-cloud/poemdex/internal/domain"
	"github.com/kailas-cloud/poemdex/internal/transport/hash"
	openaiEmb "github.com/kailas-cloud/poemdex/internal/transport/openai"
	collectionuc "github.com/kailas-cloud/poemdex/internal/usecase/collection"
	healthuc "github.com/kailas-cloud/poemdex/internal/usecase/health"
)

func memoryConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Config{
		Database:  config.DatabaseConfig{Driver: config.DriverMemory},
		Embedding: config.EmbeddingConfig{Provider: config.ProviderHash},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func writePoems(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "poet.tang.0.json"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir
}

const tangPoems = `[
  {"id": 1, "title": "静夜思", "author": "李白", "paragraphs": ["床前明月光，疑是地上霜。", "举头望明月，低头思故乡。"], "type": "poem"},
  {"id": 2, "title": "春望", "author": "杜甫", "paragraphs": ["国破山河在，城春草木深。"], "type": "poem"},
  {"id": 3, "title": "春晓", "author": "孟浩然", "paragraphs": ["春眠不觉晓，处处闻啼鸟。"], "type": "poem"}
]`

func TestClient_EndToEnd(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, memoryConfig(t), zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if h := c.Health(ctx); h.Checks[healthuc.ComponentCollection] != healthuc.CheckMissing {
		t.Errorf("collection must be missing before create, got %+v", h)
	}

	report, err := c.CreateVectorDB(ctx, "poems", writePoems(t, tangPoems))
	if err != nil {
		t.Fatalf("CreateVectorDB: %v", err)
	}
	if report.Records != 3 || report.Ingested != 1 {
		t.Fatalf("report = %+v", report)
	}
	if h := c.Health(ctx); h.Status != healthuc.Healthy {
		t.Errorf("health after create = %+v", h)
	}

	hits, err := c.Search(ctx, "床前明月光，疑是地上霜。")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 || hits[0].Title != "静夜思" || hits[0].Distance < 0.99 {
		t.Fatalf("own paragraph must rank first with similarity near 1, got %+v", hits)
	}

	hits, err = c.SearchByAuthor(ctx, "春", "杜甫")
	if err != nil {
		t.Fatalf("SearchByAuthor: %v", err)
	}
	for _, h := range hits {
		if h.Author != "杜甫" {
			t.Errorf("author filter leaked %+v", h)
		}
	}

	out, err := c.DeleteCollection(ctx, "poems")
	if err != nil || out != collectionuc.OutcomeDeleted {
		t.Fatalf("DeleteCollection = %v, %v", out, err)
	}
	out, err = c.DeleteCollection(ctx, "poems")
	if err != nil || out != collectionuc.OutcomeNotFound {
		t.Fatalf("second DeleteCollection = %v, %v", out, err)
	}

	_, err = c.Search(ctx, "明月")
	if !errors.Is(err, domain.ErrQuery) {
		t.Errorf("search on a dropped collection: expected ErrQuery, got %v", err)
	}
}

func TestClient_RecreateLeavesOneEmptyCollection(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, memoryConfig(t), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.CreateVectorDB(ctx, "poems", writePoems(t, tangPoems)); err != nil {
		t.Fatal(err)
	}
	report, err := c.CreateVectorDB(ctx, "poems", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if report.Records != 0 {
		t.Fatalf("report = %+v", report)
	}
	hits, err := c.Search(ctx, "床前明月光，疑是地上霜。")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("recreated collection must be empty, got %+v", hits)
	}
}

func TestBuildProvider(t *testing.T) {
	log := zap.NewNop()
	tests := []struct {
		name     string
		cfg      config.EmbeddingConfig
		wantName string
	}{
		{"auto without key", config.EmbeddingConfig{Provider: config.ProviderAuto, Dimensions: 512}, config.ProviderHash},
		{"auto with key", config.EmbeddingConfig{Provider: config.ProviderAuto, APIKey: "sk", Dimensions: 512}, config.ProviderOpenAI},
		{"explicit hash", config.EmbeddingConfig{Provider: config.ProviderHash, APIKey: "sk", Dimensions: 512}, config.ProviderHash},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb, name, err := buildProvider(tt.cfg, log)
			if err != nil {
				t.Fatal(err)
			}
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
			switch name {
			case config.ProviderHash:
				if _, ok := emb.(*hash.Embedder); !ok {
					t.Errorf("got %T", emb)
				}
			case config.ProviderOpenAI:
				if _, ok := emb.(*openaiEmb.Embedder); !ok {
					t.Errorf("got %T", emb)
				}
			}
		})
	}

	if _, _, err := buildProvider(config.EmbeddingConfig{Provider: "bert"}, log); !errors.Is(err, domain.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}
