package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("embedding.dimensions must be > 0, got %d", c.Embedding.Dimensions))
	}

	switch c.Embedding.Provider {
	case "onnx":
		if c.Embedding.ModelPath == "" {
			errs = append(errs, fmt.Errorf("embedding.model_path is required when embedding.provider is \"onnx\""))
		}
		if c.Embedding.TokenizerPath == "" {
			errs = append(errs, fmt.Errorf("embedding.tokenizer_path is required when embedding.provider is \"onnx\""))
		}
	case "ollama":
		if c.Embedding.OllamaURL == "" {
			errs = append(errs, fmt.Errorf("embedding.ollama_url is required when embedding.provider is \"ollama\""))
		}
	case "openai":
		if c.Embedding.OpenAIURL == "" {
			errs = append(errs, fmt.Errorf("embedding.openai_url is required when embedding.provider is \"openai\""))
		}
	default:
		errs = append(errs, fmt.Errorf("embedding.provider must be \"onnx\", \"ollama\", or \"openai\", got %q", c.Embedding.Provider))
	}

	if c.Embedding.Provider != "onnx" && c.Embedding.Model == "" {
		errs = append(errs, fmt.Errorf("embedding.model is required when embedding.provider is %q", c.Embedding.Provider))
	}

	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			errs = append(errs, fmt.Errorf("storage.sqlite_path is required when storage.driver is \"sqlite\""))
		}
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.driver is \"postgres\""))
		}
	case "mongodb":
		if c.Storage.MongoDB.URI == "" {
			errs = append(errs, fmt.Errorf("storage.mongodb.uri or storage.mongodb.uri_file is required when storage.driver is \"mongodb\""))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be \"sqlite\", \"postgres\", or \"mongodb\", got %q", c.Storage.Driver))
	}

	if c.Cache.Enabled && !c.Cache.InMemory && c.Cache.Path == "" {
		errs = append(errs, fmt.Errorf("cache.path is required when cache.enabled is true"))
	}

	if c.Indexer.Workers <= 0 {
		errs = append(errs, fmt.Errorf("indexer.workers must be > 0, got %d", c.Indexer.Workers))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", c.Logging.Level))
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
