// Package config loads storyseek configuration from YAML files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete storyseek configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Ollama  OllamaConfig  `yaml:"ollama"`
	Search  SearchConfig  `yaml:"search"`
	Storage StorageConfig `yaml:"storage"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Addr is the listen address (host:port).
	Addr string `yaml:"addr"`
	// Mode is the gin mode: "debug" or "release".
	Mode string `yaml:"mode"`
}

// OllamaConfig configures the embedding and summarization providers.
type OllamaConfig struct {
	// Host is the Ollama API endpoint.
	Host string `yaml:"host"`
	// EmbedModel is the embedding model name.
	EmbedModel string `yaml:"embed_model"`
	// ChatModel is the summarization model name.
	ChatModel string `yaml:"chat_model"`
	// Dimensions is the embedding vector dimension.
	Dimensions int `yaml:"dimensions"`
	// EmbedTimeout bounds a single embedding request.
	EmbedTimeout time.Duration `yaml:"embed_timeout"`
	// SummarizeTimeout bounds a single summarization request.
	SummarizeTimeout time.Duration `yaml:"summarize_timeout"`
}

// SearchConfig configures retrieval behavior.
type SearchConfig struct {
	// DefaultLimit is the result count used when the request omits one.
	DefaultLimit int `yaml:"default_limit"`
	// MaxLimit caps the per-request result count.
	MaxLimit int `yaml:"max_limit"`
	// Timeout bounds a single search request end to end.
	Timeout time.Duration `yaml:"timeout"`
	// CacheSize is the number of query embeddings kept in the LRU cache.
	CacheSize int `yaml:"cache_size"`
}

// StorageConfig configures on-disk index and database locations.
type StorageConfig struct {
	// DataDir holds the SQLite database and both search indexes.
	DataDir string `yaml:"data_dir"`
}

// IngestConfig configures the ingestion pipeline inputs.
type IngestConfig struct {
	// CorpusDir contains metadata.json and the raw story .txt files.
	CorpusDir string `yaml:"corpus_dir"`
	// WatchDebounce is the settle time before a watched change re-runs
	// ingestion.
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	FilePath string `yaml:"file_path"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
			Mode: "release",
		},
		Ollama: OllamaConfig{
			Host:             "http://localhost:11434",
			EmbedModel:       "nomic-embed-text",
			ChatModel:        "gemma3:1b",
			Dimensions:       768,
			EmbedTimeout:     60 * time.Second,
			SummarizeTimeout: 120 * time.Second,
		},
		Search: SearchConfig{
			DefaultLimit: 5,
			MaxLimit:     50,
			Timeout:      10 * time.Second,
			CacheSize:    1000,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Ingest: IngestConfig{
			CorpusDir:     "stories",
			WatchDebounce: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// expandHome resolves a leading ~/ against the user's home directory.
func expandHome(path string) string {
	if len(path) < 2 || path[0] != '~' || path[1] != filepath.Separator {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "storyseek")
	}
	return filepath.Join(home, ".storyseek")
}

// Load builds the configuration with increasing precedence:
//  1. Hardcoded defaults
//  2. YAML file at path (optional; empty path checks storyseek.yaml)
//  3. Environment variables (STORYSEEK_*)
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat("storyseek.yaml"); err == nil {
			path = "storyseek.yaml"
		}
	}
	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()
	cfg.Storage.DataDir = expandHome(cfg.Storage.DataDir)
	cfg.Ingest.CorpusDir = expandHome(cfg.Ingest.CorpusDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadYAML merges values from a YAML file over the current config.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies STORYSEEK_* environment variables.
func (c *Config) applyEnvOverrides() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("STORYSEEK_ADDR", &c.Server.Addr)
	setString("STORYSEEK_MODE", &c.Server.Mode)
	setString("STORYSEEK_OLLAMA_HOST", &c.Ollama.Host)
	setString("STORYSEEK_EMBED_MODEL", &c.Ollama.EmbedModel)
	setString("STORYSEEK_CHAT_MODEL", &c.Ollama.ChatModel)
	setInt("STORYSEEK_EMBED_DIMENSIONS", &c.Ollama.Dimensions)
	setInt("STORYSEEK_DEFAULT_LIMIT", &c.Search.DefaultLimit)
	setInt("STORYSEEK_MAX_LIMIT", &c.Search.MaxLimit)
	setString("STORYSEEK_DATA_DIR", &c.Storage.DataDir)
	setString("STORYSEEK_CORPUS_DIR", &c.Ingest.CorpusDir)
	setString("STORYSEEK_LOG_LEVEL", &c.Logging.Level)
	setString("STORYSEEK_LOG_FILE", &c.Logging.FilePath)
}

// Validate checks invariants the rest of the system depends on.
func (c *Config) Validate() error {
	if c.Ollama.Dimensions <= 0 {
		return fmt.Errorf("ollama.dimensions must be positive, got %d", c.Ollama.Dimensions)
	}
	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search.default_limit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("search.max_limit (%d) must be >= search.default_limit (%d)",
			c.Search.MaxLimit, c.Search.DefaultLimit)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir must not be empty")
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Storage.DataDir, "stories.db")
}

// LexicalIndexPath returns the bleve index location.
func (c *Config) LexicalIndexPath() string {
	return filepath.Join(c.Storage.DataDir, "lexical.bleve")
}

// VectorIndexPath returns the HNSW index location.
func (c *Config) VectorIndexPath() string {
	return filepath.Join(c.Storage.DataDir, "vectors.hnsw")
}

// IngestLockPath returns the ingestion single-writer lock file location.
func (c *Config) IngestLockPath() string {
	return filepath.Join(c.Storage.DataDir, "ingest.lock")
}
