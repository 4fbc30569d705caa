// Package resources opens the long-lived resources a semfind process owns:
// the inference session, the tokenizer and the store connection.
package resources

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/MereWhiplash/semfind/internal/config"
	"github.com/MereWhiplash/semfind/internal/embedcache"
	"github.com/MereWhiplash/semfind/internal/embedder"
	"github.com/MereWhiplash/semfind/internal/service"
	"github.com/MereWhiplash/semfind/internal/storage"
	"github.com/MereWhiplash/semfind/internal/types"
)

// Resources holds the opened embedder and store. Ownership passes to the
// service returned by Service; close that instead of the fields.
type Resources struct {
	Embedder embedder.Embedder
	Store    storage.Storage
}

// Open initializes the inference session, then the tokenizer, then the store.
// Anything already opened is closed again if a later step fails.
func Open(ctx context.Context, cfg *config.Config) (*Resources, error) {
	logger := slog.Default().With("component", "resources")

	emb, err := openEmbedder(cfg.Embedding)
	if err != nil {
		return nil, err
	}

	store, err := storage.New(ctx, StorageConfig(cfg))
	if err != nil {
		closeQuietly(emb)
		return nil, err
	}

	if cfg.Cache.Enabled {
		cache, err := embedcache.Open(cfg.Cache.Path, cfg.Cache.InMemory)
		if err != nil {
			store.Close()
			closeQuietly(emb)
			return nil, err
		}
		emb = embedcache.Wrap(emb, cache, cacheNamespace(cfg.Embedding))
	}

	logger.Info("resources ready",
		"provider", cfg.Embedding.Provider,
		"dimensions", cfg.Embedding.Dimensions,
		"storage", cfg.Storage.Driver,
		"cache", cfg.Cache.Enabled,
	)

	return &Resources{Embedder: emb, Store: store}, nil
}

// Service wraps the resources in a Service that owns them
func (r *Resources) Service() *service.Service {
	return service.New(r.Store, r.Embedder)
}

// StorageConfig maps the storage section onto storage.Config
func StorageConfig(cfg *config.Config) storage.Config {
	return storage.Config{
		Driver:          cfg.Storage.Driver,
		Dimensions:      cfg.Embedding.Dimensions,
		SQLitePath:      cfg.Storage.SQLitePath,
		PostgresDSN:     cfg.Storage.Postgres.DSN,
		MongoDBURI:      cfg.Storage.MongoDB.URI,
		MongoDBDatabase: cfg.Storage.MongoDB.Database,
	}
}

func openEmbedder(cfg config.EmbeddingConfig) (embedder.Embedder, error) {
	switch cfg.Provider {
	case "onnx":
		return openPipeline(cfg)
	case "ollama":
		return embedder.NewOllama(cfg.OllamaURL, cfg.Model, cfg.Dimensions), nil
	case "openai":
		emb, err := embedder.NewOpenAI(cfg.OpenAIURL, cfg.Model, cfg.APIKey, cfg.Dimensions)
		if err != nil {
			return nil, types.EmbeddingError("open provider", err)
		}
		return emb, nil
	default:
		return nil, types.EmbeddingError("open provider", fmt.Errorf("unknown embedding provider: %s", cfg.Provider))
	}
}

func openPipeline(cfg config.EmbeddingConfig) (*embedder.Pipeline, error) {
	inputNames := cfg.InputNames
	if len(inputNames) == 0 {
		inputNames = embedder.DefaultInputNames
	}
	outputName := cfg.OutputName
	if outputName == "" {
		outputName = embedder.DefaultOutputName
	}

	engine, err := embedder.NewONNXEngine(embedder.ONNXConfig{
		ModelPath:      cfg.ModelPath,
		LibraryPath:    cfg.LibraryPath,
		IntraOpThreads: cfg.IntraOpThreads,
		InputNames:     inputNames,
		OutputName:     outputName,
		Dimensions:     cfg.Dimensions,
	})
	if err != nil {
		return nil, types.EmbeddingError("load model", err)
	}

	tok, err := embedder.NewHFTokenizer(cfg.TokenizerPath, cfg.AddSpecialTokens)
	if err != nil {
		engine.Close()
		return nil, types.EmbeddingError("load tokenizer", err)
	}

	return embedder.NewPipeline(tok, engine, cfg.Dimensions), nil
}

// cacheNamespace identifies the model so a cache is never shared across models
func cacheNamespace(cfg config.EmbeddingConfig) string {
	switch cfg.Provider {
	case "onnx":
		return fmt.Sprintf("onnx:%s:%d:%t", cfg.ModelPath, cfg.Dimensions, cfg.AddSpecialTokens)
	default:
		return fmt.Sprintf("%s:%s:%d", cfg.Provider, cfg.Model, cfg.Dimensions)
	}
}

func closeQuietly(v any) {
	if c, ok := v.(io.Closer); ok {
		c.Close()
	}
}
