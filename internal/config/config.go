// Package config provides unified configuration for semfind.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (SEMFIND_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import (
	"time"

	"github.com/MereWhiplash/semfind/internal/types"
)

// Config holds all configuration for semfind.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
	Indexer   IndexerConfig   `yaml:"indexer"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`   // "onnx", "ollama" or "openai", default: "onnx"
	Dimensions int    `yaml:"dimensions"` // default: 768

	// onnx
	ModelPath        string   `yaml:"model_path"`         // default: assets/nomic-embed-quantized.onnx
	TokenizerPath    string   `yaml:"tokenizer_path"`     // default: assets/tokenizer.json
	LibraryPath      string   `yaml:"library_path"`       // onnxruntime shared library, optional
	IntraOpThreads   int      `yaml:"intra_op_threads"`   // default: 4
	AddSpecialTokens bool     `yaml:"add_special_tokens"` // default: true
	InputNames       []string `yaml:"input_names"`
	OutputName       string   `yaml:"output_name"`

	// ollama and openai
	Model      string `yaml:"model"` // default: nomic-embed-text
	OllamaURL  string `yaml:"ollama_url"`
	OpenAIURL  string `yaml:"openai_url"`
	APIKey     string `yaml:"api_key"`
	APIKeyFile string `yaml:"api_key_file"` // _file variant for api_key
}

// StorageConfig holds index storage settings.
type StorageConfig struct {
	Driver     string         `yaml:"driver"`      // "sqlite", "postgres" or "mongodb", default: "sqlite"
	SQLitePath string         `yaml:"sqlite_path"` // default: semfind.db
	Postgres   PostgresConfig `yaml:"postgres"`
	MongoDB    MongoDBConfig  `yaml:"mongodb"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN     string `yaml:"dsn"`
	DSNFile string `yaml:"dsn_file"` // _file variant for dsn
}

// MongoDBConfig holds MongoDB-specific settings.
type MongoDBConfig struct {
	URI      string `yaml:"uri"`
	URIFile  string `yaml:"uri_file"` // _file variant for uri
	Database string `yaml:"database"` // default: semfind
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`   // default: false
	Path     string `yaml:"path"`      // default: .semfind-cache
	InMemory bool   `yaml:"in_memory"` // default: false
}

// ServerConfig holds HTTP server and shim settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`          // default: :8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 120s
	APIURL       string        `yaml:"api_url"`       // used by the shim, default: http://localhost:8080
}

// IndexerConfig holds batch indexing settings.
type IndexerConfig struct {
	Workers int `yaml:"workers"` // default: 4
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error", default: "info"
	Format string `yaml:"format"` // "text" or "json", default: "text"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Embedding: EmbeddingConfig{
			Provider:         "onnx",
			Dimensions:       types.DefaultDimensions,
			ModelPath:        "assets/nomic-embed-quantized.onnx",
			TokenizerPath:    "assets/tokenizer.json",
			IntraOpThreads:   4,
			AddSpecialTokens: true,
			Model:            "nomic-embed-text",
			OllamaURL:        "http://localhost:11434",
			OpenAIURL:        "http://localhost:8000/v1",
		},
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: "semfind.db",
			MongoDB: MongoDBConfig{
				Database: "semfind",
			},
		},
		Cache: CacheConfig{
			Path: ".semfind-cache",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			APIURL:       "http://localhost:8080",
		},
		Indexer: IndexerConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
