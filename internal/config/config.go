// Package config provides configuration loading and structs for the ronbun server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Locale     string           `yaml:"locale"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	LLM        LLMConfig        `yaml:"llm"`
	VectorDB   VectorDBConfig   `yaml:"vectordb"`
	RAG        RAGConfig        `yaml:"rag"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Watch      WatchConfig      `yaml:"watch"`
}

// Duration parses yaml durations written like "2s" or "500ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database and file artifacts.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	UploadsDir   string `yaml:"uploads_dir"`
	SummariesDir string `yaml:"summaries_dir"`
}

// LLMConfig holds provider settings. The API key is read from the named
// environment variable, never from the file itself.
type LLMConfig struct {
	Provider        string   `yaml:"provider"`
	BaseURL         string   `yaml:"base_url"`
	APIKeyEnv       string   `yaml:"api_key_env"`
	GenerationModel string   `yaml:"generation_model"`
	EmbeddingModel  string   `yaml:"embedding_model"`
	Dimensions      int      `yaml:"dimensions"`
	MaxInputChars   int      `yaml:"max_input_chars"`
	MaxOutputTokens int      `yaml:"max_output_tokens"`
	Timeout         Duration `yaml:"timeout"`
}

// APIKey resolves the provider API key from the environment.
func (l *LLMConfig) APIKey() string {
	if l.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(l.APIKeyEnv)
}

// VectorDBConfig holds vector store settings.
type VectorDBConfig struct {
	Type      string `yaml:"type"`
	URL       string `yaml:"url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// APIKey resolves the vector store API key from the environment.
func (v *VectorDBConfig) APIKey() string {
	if v.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(v.APIKeyEnv)
}

// RAGConfig holds chunking and retrieval settings.
type RAGConfig struct {
	ChunkSize        int     `yaml:"chunk_size"`
	ChunkOverlap     int     `yaml:"chunk_overlap"`
	DefaultLimit     int     `yaml:"default_limit"`
	MinScore         float64 `yaml:"min_score"`
	FusionEnabled    *bool   `yaml:"fusion_enabled"`
	FusionQueries    int     `yaml:"fusion_queries"`
	EmbedConcurrency int     `yaml:"embed_concurrency"`
	UpsertBatchSize  int     `yaml:"upsert_batch_size"`
}

// FusionOrDefault returns whether fusion search is enabled; defaults to true
// when unset.
func (r *RAGConfig) FusionOrDefault() bool {
	if r.FusionEnabled != nil {
		return *r.FusionEnabled
	}
	return true
}

// SummarizerConfig holds summarization settings.
type SummarizerConfig struct {
	Mode         string   `yaml:"mode"`
	SectionDelay Duration `yaml:"section_delay"`
}

// WatchConfig holds uploads directory watch settings.
type WatchConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Extensions []string `yaml:"extensions"`
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.UploadsDir = expandPath(cfg.Storage.UploadsDir, configDir)
	cfg.Storage.SummariesDir = expandPath(cfg.Storage.SummariesDir, configDir)

	return &cfg, nil
}

// Default returns a configuration with all defaults applied, for running
// without a config file.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
