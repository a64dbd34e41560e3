package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/poemdex/internal/domain"
)

type embeddingItem struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// embeddingResponse mirrors the OpenAI-compatible API embedding response.
type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingItem `json:"data"`
	Model  string          `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

type capturedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

// newServer answers with one 2-dim vector per input, {index, len(input)}, in reverse order.
func newServer(t *testing.T, got *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		var req capturedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if got != nil {
			*got = req
		}

		resp := embeddingResponse{Object: "list", Model: req.Model}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, embeddingItem{
				Object:    "embedding",
				Embedding: []float32{float32(i), float32(len(req.Input[i]))},
				Index:     i,
			})
		}
		resp.Usage.PromptTokens = 3 * len(req.Input)
		resp.Usage.TotalTokens = 3 * len(req.Input)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newEmbedder(url string) *Embedder {
	return NewEmbedder(&Config{
		APIKey:     "test-key",
		BaseURL:    url,
		Model:      "text-embedding-3-small",
		Dimensions: 512,
		Logger:     zap.NewNop(),
	})
}

func TestEmbedder_Embed_RequestShape(t *testing.T) {
	var got capturedRequest
	server := newServer(t, &got)
	defer server.Close()

	_, err := newEmbedder(server.URL).Embed(context.Background(), []string{"床前明月光", "疑是地上霜"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if got.Dimensions != 512 {
		t.Errorf("dimensions = %d, want 512", got.Dimensions)
	}
	if got.Model != "text-embedding-3-small" {
		t.Errorf("model = %q", got.Model)
	}
	if len(got.Input) != 2 || got.Input[0] != "床前明月光" {
		t.Errorf("input = %v", got.Input)
	}
}

func TestEmbedder_Embed_RestoresOrderAndUsage(t *testing.T) {
	server := newServer(t, nil)
	defer server.Close()

	res, err := newEmbedder(server.URL).Embed(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(res.Dense) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(res.Dense))
	}
	for i, v := range res.Dense {
		if v[0] != float32(i) || v[1] != float32(i+1) {
			t.Errorf("vector %d = %v, out of order", i, v)
		}
	}
	if res.PromptTokens != 9 || res.TotalTokens != 9 {
		t.Errorf("usage = %d/%d, want 9/9", res.PromptTokens, res.TotalTokens)
	}
}

func TestEmbedder_Embed_Empty(t *testing.T) {
	res, err := newEmbedder("http://unused").Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Dense != nil {
		t.Errorf("expected no vectors, got %v", res.Dense)
	}
}

func TestEmbedder_Embed_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := embeddingResponse{Object: "list", Model: "m"}
		resp.Data = []embeddingItem{{Object: "embedding", Embedding: []float32{0.1}, Index: 0}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	_, err := newEmbedder(server.URL).Embed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
}

func TestEmbedder_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "rate limit exceeded",
				"type":    "rate_limit_error",
			},
		})
	}))
	defer server.Close()

	_, err := newEmbedder(server.URL).Embed(context.Background(), []string{"hello"})
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status in error, got %q", err)
	}
}

func TestExtractDetail(t *testing.T) {
	if got := extractDetail([]byte(`{"detail":"model not found"}`)); got != "model not found" {
		t.Errorf("extractDetail = %q", got)
	}
	if got := extractDetail([]byte(`not json`)); got != "" {
		t.Errorf("extractDetail on garbage = %q", got)
	}
}

func TestEmbedder_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	defer server.Close()

	if err := newEmbedder(server.URL).HealthCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
