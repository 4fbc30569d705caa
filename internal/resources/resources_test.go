package resources

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MereWhiplash/semfind/internal/config"
	"github.com/MereWhiplash/semfind/internal/embedcache"
	"github.com/MereWhiplash/semfind/internal/embedder"
	"github.com/MereWhiplash/semfind/internal/types"
)

func TestStorageConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Embedding.Dimensions = 384
	cfg.Storage.Driver = "postgres"
	cfg.Storage.Postgres.DSN = "postgres://x"

	sc := StorageConfig(&cfg)
	assert.Equal(t, "postgres", sc.Driver)
	assert.Equal(t, 384, sc.Dimensions)
	assert.Equal(t, "postgres://x", sc.PostgresDSN)
	assert.Equal(t, "semfind", sc.MongoDBDatabase)
}

func TestOpenEmbedder_Remote(t *testing.T) {
	cfg := config.Defaults().Embedding

	cfg.Provider = "ollama"
	emb, err := openEmbedder(cfg)
	require.NoError(t, err)
	assert.IsType(t, &embedder.Ollama{}, emb)
	assert.Equal(t, types.DefaultDimensions, emb.Dimensions())

	cfg.Provider = "openai"
	emb, err = openEmbedder(cfg)
	require.NoError(t, err)
	assert.IsType(t, &embedder.OpenAI{}, emb)
}

func TestOpenEmbedder_Errors(t *testing.T) {
	cfg := config.Defaults().Embedding

	cfg.Provider = "bert"
	_, err := openEmbedder(cfg)
	assert.ErrorIs(t, err, types.ErrEmbedding)

	cfg.Provider = "onnx"
	cfg.ModelPath = filepath.Join(t.TempDir(), "missing.onnx")
	_, err = openEmbedder(cfg)
	assert.ErrorIs(t, err, types.ErrEmbedding)
}

func TestCacheNamespace(t *testing.T) {
	a := config.Defaults().Embedding
	b := a
	b.Dimensions = 384
	assert.NotEqual(t, cacheNamespace(a), cacheNamespace(b))

	c := a
	c.Provider = "ollama"
	assert.True(t, strings.HasPrefix(cacheNamespace(c), "ollama:nomic-embed-text"))
}

func TestOpen_UnknownDriverFails(t *testing.T) {
	cfg := config.Defaults()
	cfg.Embedding.Provider = "ollama"
	cfg.Storage.Driver = "redis"

	_, err := Open(context.Background(), &cfg)
	assert.Error(t, err)
}

func TestOpen_WithCache(t *testing.T) {
	if !cgoEnabled {
		t.Skip("sqlite requires cgo")
	}

	cfg := config.Defaults()
	cfg.Embedding.Provider = "ollama"
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "index.db")
	cfg.Cache.Enabled = true
	cfg.Cache.InMemory = true

	res, err := Open(context.Background(), &cfg)
	require.NoError(t, err)

	assert.IsType(t, &embedcache.Embedder{}, res.Embedder)

	svc := res.Service()
	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, svc.Close())
}
