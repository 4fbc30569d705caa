package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, SEMFIND_CONFIG env, ./semfind.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. SEMFIND_CONFIG environment variable
// 3. ./semfind.yaml in the current directory
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv("SEMFIND_CONFIG"); envPath != "" {
		return envPath
	}
	if _, err := os.Stat("semfind.yaml"); err == nil {
		return "semfind.yaml"
	}
	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps SEMFIND_* environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
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
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setString("SEMFIND_EMBEDDING_PROVIDER", &cfg.Embedding.Provider)
	setInt("SEMFIND_DIMENSIONS", &cfg.Embedding.Dimensions)
	setString("SEMFIND_MODEL_PATH", &cfg.Embedding.ModelPath)
	setString("SEMFIND_TOKENIZER_PATH", &cfg.Embedding.TokenizerPath)
	setString("SEMFIND_ORT_LIBRARY", &cfg.Embedding.LibraryPath)
	setInt("SEMFIND_INTRA_OP_THREADS", &cfg.Embedding.IntraOpThreads)
	setBool("SEMFIND_ADD_SPECIAL_TOKENS", &cfg.Embedding.AddSpecialTokens)
	setString("SEMFIND_MODEL", &cfg.Embedding.Model)
	setString("SEMFIND_OLLAMA_URL", &cfg.Embedding.OllamaURL)
	setString("SEMFIND_OPENAI_URL", &cfg.Embedding.OpenAIURL)
	setString("SEMFIND_API_KEY", &cfg.Embedding.APIKey)
	setString("SEMFIND_API_KEY_FILE", &cfg.Embedding.APIKeyFile)

	setString("SEMFIND_STORAGE_DRIVER", &cfg.Storage.Driver)
	setString("SEMFIND_DB_PATH", &cfg.Storage.SQLitePath)
	setString("SEMFIND_POSTGRES_DSN", &cfg.Storage.Postgres.DSN)
	setString("SEMFIND_POSTGRES_DSN_FILE", &cfg.Storage.Postgres.DSNFile)
	setString("SEMFIND_MONGODB_URI", &cfg.Storage.MongoDB.URI)
	setString("SEMFIND_MONGODB_URI_FILE", &cfg.Storage.MongoDB.URIFile)
	setString("SEMFIND_MONGODB_DATABASE", &cfg.Storage.MongoDB.Database)

	setBool("SEMFIND_CACHE_ENABLED", &cfg.Cache.Enabled)
	setString("SEMFIND_CACHE_PATH", &cfg.Cache.Path)

	setString("SEMFIND_ADDR", &cfg.Server.Addr)
	setString("SEMFIND_API_URL", &cfg.Server.APIURL)

	setInt("SEMFIND_WORKERS", &cfg.Indexer.Workers)

	setString("SEMFIND_LOG_LEVEL", &cfg.Logging.Level)
	setString("SEMFIND_LOG_FORMAT", &cfg.Logging.Format)
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// The value field wins when both are set.
func resolveFileReferences(cfg *Config) error {
	refs := []struct {
		name string
		file string
		dst  *string
	}{
		{"embedding.api_key_file", cfg.Embedding.APIKeyFile, &cfg.Embedding.APIKey},
		{"storage.postgres.dsn_file", cfg.Storage.Postgres.DSNFile, &cfg.Storage.Postgres.DSN},
		{"storage.mongodb.uri_file", cfg.Storage.MongoDB.URIFile, &cfg.Storage.MongoDB.URI},
	}

	for _, ref := range refs {
		if ref.file == "" || *ref.dst != "" {
			continue
		}
		val, err := readSecretFile(ref.file)
		if err != nil {
			return fmt.Errorf("%s: %w", ref.name, err)
		}
		*ref.dst = val
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
