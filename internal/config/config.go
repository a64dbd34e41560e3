package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/poemdex/internal/domain"
	"github.com/kailas-cloud/poemdex/internal/domain/poem"
)

// Embedding provider names.
const (
	ProviderAuto   = "auto"
	ProviderOpenAI = "openai"
	ProviderHash   = "hash"
)

// Database driver names.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverQdrant = "qdrant"
	DriverMemory = "memory"
)

// Config holds the poemdex configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Qdrant     QdrantConfig     `yaml:"qdrant"`
	Collection CollectionConfig `yaml:"collection"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Index      IndexConfig      `yaml:"index"`
	Search     SearchConfig     `yaml:"search"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Retry      RetryConfig      `yaml:"retry"`
	Delegate   DelegateConfig   `yaml:"delegate"`
	Event      EventConfig      `yaml:"event"`
	Auth       AuthConfig       `yaml:"auth"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds vector store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, qdrant, memory (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// QdrantConfig holds Qdrant settings, used when database.driver is qdrant.
type QdrantConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
	UseTLS bool   `yaml:"use_tls"`
}

// CollectionConfig names the poem collection.
type CollectionConfig struct {
	Name   string `yaml:"name"`
	Shards int    `yaml:"shards"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"` // auto, openai, hash
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	Cache            bool   `yaml:"cache"`
}

// IndexConfig holds HNSW index settings.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
	HNSWEFRuntime   int `yaml:"hnsw_ef_runtime"`
}

// SearchConfig holds the similarity search band and result bound.
type SearchConfig struct {
	Limit       int     `yaml:"limit"`
	NProbe      int     `yaml:"nprobe"`
	Radius      float64 `yaml:"radius"`
	RangeFilter float64 `yaml:"range_filter"`
}

// IngestConfig holds ingestion settings.
type IngestConfig struct {
	InputDir        string `yaml:"input_dir"`
	BatchSize       int    `yaml:"batch_size"`
	ParagraphPolicy string `yaml:"paragraph_policy"` // first, join
}

// RetryConfig bounds administrative polls.
type RetryConfig struct {
	Attempts   int `yaml:"attempts"`
	IntervalMS int `yaml:"interval_ms"`
}

// DelegateConfig enables the external search service when both fields are set.
type DelegateConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// Enabled reports whether the delegate is configured.
func (d DelegateConfig) Enabled() bool { return d.URL != "" && d.APIKey != "" }

// EventConfig holds GitHub event handler settings.
type EventConfig struct {
	GitHubAPIURL string `yaml:"github_api_url"`
	GitHubToken  string `yaml:"github_token"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("%w: read %s: %w", domain.ErrConfig, configPath, err)
	}
	return Parse(data)
}

// Parse expands env variables in a YAML document, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse: %w", domain.ErrConfig, err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Qdrant.Port == 0 {
		c.Qdrant.Port = 6334
	}
	if c.Collection.Name == "" {
		c.Collection.Name = "poems"
	}
	if c.Collection.Shards <= 0 {
		c.Collection.Shards = poem.ShardCount
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderAuto
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = domain.DefaultDimensions
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Index.HNSWEFRuntime <= 0 {
		c.Index.HNSWEFRuntime = 16
	}
	if c.Search.Limit <= 0 {
		c.Search.Limit = 10
	}
	if c.Search.NProbe <= 0 {
		c.Search.NProbe = 16
	}
	if c.Search.Radius == 0 && c.Search.RangeFilter == 0 {
		c.Search.Radius = 0.1
		c.Search.RangeFilter = 1
	}
	if c.Ingest.InputDir == "" {
		c.Ingest.InputDir = "data"
	}
	if c.Ingest.BatchSize <= 0 {
		c.Ingest.BatchSize = 1000
	}
	if c.Ingest.ParagraphPolicy == "" {
		c.Ingest.ParagraphPolicy = string(poem.PolicyFirst)
	}
	if c.Retry.Attempts <= 0 {
		c.Retry.Attempts = 30
	}
	if c.Retry.IntervalMS <= 0 {
		c.Retry.IntervalMS = 1000
	}
	if c.Delegate.TimeoutSec <= 0 {
		c.Delegate.TimeoutSec = 10
	}
	if c.Event.GitHubAPIURL == "" {
		c.Event.GitHubAPIURL = "https://api.github.com"
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = domain.DefaultKeyPrefix
	}
}

// Validate checks the configuration for correctness. Every failure matches domain.ErrConfig.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverQdrant:
		if c.Qdrant.Host == "" {
			return fmt.Errorf("qdrant.host is required for driver %q", DriverQdrant)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be valkey, redis, qdrant or memory, got %q", c.Database.Driver)
	}
	switch c.Embedding.Provider {
	case ProviderAuto, ProviderHash:
	case ProviderOpenAI:
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("embedding.api_key is required for provider %q", ProviderOpenAI)
		}
	default:
		return fmt.Errorf("embedding.provider must be auto, openai or hash, got %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions != poem.VectorDim {
		return fmt.Errorf("embedding.dimensions must be %d, got %d", poem.VectorDim, c.Embedding.Dimensions)
	}
	if !poem.ParagraphPolicy(c.Ingest.ParagraphPolicy).IsValid() {
		return fmt.Errorf("ingest.paragraph_policy must be first or join, got %q", c.Ingest.ParagraphPolicy)
	}
	if c.Search.Radius < 0 || c.Search.RangeFilter > 1 || c.Search.Radius >= c.Search.RangeFilter {
		return fmt.Errorf("search band must satisfy 0 <= radius < range_filter <= 1, got (%g, %g]",
			c.Search.Radius, c.Search.RangeFilter)
	}
	if c.Delegate.URL != "" && !strings.HasPrefix(c.Delegate.URL, "http") {
		return fmt.Errorf("delegate.url must be an http(s) URL, got %q", c.Delegate.URL)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
