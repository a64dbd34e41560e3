package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/poemdex/internal/domain"
)

func validConfig() Config {
	cfg := Config{
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Driver != DriverValkey {
		t.Errorf("expected Driver=valkey, got %q", cfg.Database.Driver)
	}
	if cfg.Collection.Name != "poems" || cfg.Collection.Shards != 2 {
		t.Errorf("unexpected collection defaults: %+v", cfg.Collection)
	}
	if cfg.Embedding.Provider != ProviderAuto || cfg.Embedding.Dimensions != 512 {
		t.Errorf("unexpected embedding defaults: %+v", cfg.Embedding)
	}
	if cfg.Search.NProbe != 16 || cfg.Search.Radius != 0.1 || cfg.Search.RangeFilter != 1 {
		t.Errorf("unexpected search defaults: %+v", cfg.Search)
	}
	if cfg.Ingest.BatchSize != 1000 || cfg.Ingest.ParagraphPolicy != "first" || cfg.Ingest.InputDir != "data" {
		t.Errorf("unexpected ingest defaults: %+v", cfg.Ingest)
	}
	if cfg.Retry.Attempts != 30 || cfg.Retry.IntervalMS != 1000 {
		t.Errorf("unexpected retry defaults: %+v", cfg.Retry)
	}
	if cfg.Storage.KeyPrefix != "poemdex:" {
		t.Errorf("expected KeyPrefix=poemdex:, got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Delegate.Enabled() {
		t.Error("delegate must be disabled by default")
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"invalid port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"missing addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "milvus" }, "database.driver"},
		{"qdrant without host", func(c *Config) { c.Database.Driver = DriverQdrant }, "qdrant.host"},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "bert" }, "embedding.provider"},
		{"openai without key", func(c *Config) { c.Embedding.Provider = ProviderOpenAI }, "embedding.api_key"},
		{"wrong dimensions", func(c *Config) { c.Embedding.Dimensions = 768 }, "embedding.dimensions"},
		{"unknown policy", func(c *Config) { c.Ingest.ParagraphPolicy = "split" }, "paragraph_policy"},
		{"inverted band", func(c *Config) { c.Search.Radius = 0.9; c.Search.RangeFilter = 0.5 }, "search band"},
		{"bad delegate url", func(c *Config) { c.Delegate.URL = "ftp://x" }, "delegate.url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, domain.ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_QdrantDriver(t *testing.T) {
	cfg := Config{
		Database: DatabaseConfig{Driver: DriverQdrant},
		Qdrant:   QdrantConfig{Host: "localhost"},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Qdrant.Port != 6334 {
		t.Errorf("expected qdrant port 6334, got %d", cfg.Qdrant.Port)
	}
}

func TestValidate_MemoryDriverNeedsNoAddrs(t *testing.T) {
	cfg := Config{Database: DatabaseConfig{Driver: DriverMemory}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("POEMDEX_TEST_ADDR", "valkey:6379")
	t.Setenv("POEMDEX_TEST_KEY", "")

	cfg, err := Parse([]byte(`
database:
  addrs: ["${POEMDEX_TEST_ADDR}"]
delegate:
  url: "${POEMDEX_TEST_URL:-http://upstream:8080/v1/search}"
  api_key: "${POEMDEX_TEST_KEY}"
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Addrs[0] != "valkey:6379" {
		t.Errorf("addr = %q", cfg.Database.Addrs[0])
	}
	if cfg.Delegate.URL != "http://upstream:8080/v1/search" {
		t.Errorf("delegate url = %q", cfg.Delegate.URL)
	}
	if cfg.Delegate.Enabled() {
		t.Error("delegate without api key must be disabled")
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("database: [unterminated"))
	if !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := Load("does-not-exist")
	if !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o750); err != nil {
		t.Fatal(err)
	}
	body := "database:\n  driver: redis\n  addrs: [\"localhost:6380\"]\n"
	if err := os.WriteFile(filepath.Join(dir, "config", "unit.yaml"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load("unit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Driver != DriverRedis {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q, want local", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q, want prod", got)
	}
}
