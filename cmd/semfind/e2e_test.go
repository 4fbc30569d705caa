//go:build cgo

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MereWhiplash/semfind/internal/config"
	"github.com/MereWhiplash/semfind/internal/embedder/embeddertest"
	"github.com/MereWhiplash/semfind/internal/service"
	"github.com/MereWhiplash/semfind/internal/storage"
)

// useFakeEmbedder swaps the model for the deterministic word-hash pipeline
func useFakeEmbedder(t *testing.T) {
	t.Helper()
	orig := openService
	openService = func(ctx context.Context, cfg *config.Config) (*service.Service, error) {
		store, err := storage.NewSQLite(cfg.Storage.SQLitePath, cfg.Embedding.Dimensions)
		if err != nil {
			return nil, err
		}
		pipeline, _, _ := embeddertest.NewPipeline(cfg.Embedding.Dimensions)
		return service.New(store, pipeline), nil
	}
	t.Cleanup(func() { openService = orig })
}

func TestIndexSearchList(t *testing.T) {
	useFakeEmbedder(t)
	app, stdout, stderr := testApp(t)

	docs := t.TempDir()
	files := map[string]string{
		"story.txt": "Once upon a time a little girl got lost in the forest and a friendly wolf helped her home.",
		"todo.txt":  "Buy milk. Call the plumber. Renew passport. Pay rent before Friday.",
		"code.txt":  "func main() { for i := 0; i < 10; i++ { fmt.Println(i) } }",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(docs, name), []byte(body), 0644))
	}
	db := filepath.Join(t.TempDir(), "index.db")

	require.NoError(t, app.Run([]string{"semfind", "--db", db, "index", "--workers", "2", docs}))
	assert.Contains(t, stdout.String(), "3 indexed, 0 failed")
	assert.Empty(t, stderr.String())

	stdout.Reset()
	require.NoError(t, app.Run([]string{"semfind", "--db", db, "search", "A", "story", "about", "a", "girl"}))
	assert.Equal(t, filepath.Join(docs, "story.txt"), strings.TrimSpace(stdout.String()))

	stdout.Reset()
	require.NoError(t, app.Run([]string{"semfind", "--db", db, "search", "--limit", "3", "forest", "wolf"}))
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "story.txt")

	stdout.Reset()
	require.NoError(t, app.Run([]string{"semfind", "--db", db, "list"}))
	assert.Contains(t, stdout.String(), "3 of 3 files")
}

func TestSearchEmptyIndex(t *testing.T) {
	useFakeEmbedder(t)
	app, _, _ := testApp(t)
	db := filepath.Join(t.TempDir(), "index.db")

	err := app.Run([]string{"semfind", "--db", db, "search", "anything"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files have been indexed")
}

func TestIndexPrintEmbedding(t *testing.T) {
	useFakeEmbedder(t)
	app, stdout, _ := testApp(t)

	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0644))
	db := filepath.Join(t.TempDir(), "index.db")

	require.NoError(t, app.Run([]string{"semfind", "--db", db, "index", "--print-embedding", path}))
	out := stdout.String()
	assert.True(t, strings.HasPrefix(out, path+"\t["), out)
}

func TestIndexMissingFileFails(t *testing.T) {
	useFakeEmbedder(t)
	app, _, stderr := testApp(t)
	db := filepath.Join(t.TempDir(), "index.db")

	err := app.Run([]string{"semfind", "--db", db, "index", filepath.Join(t.TempDir(), "missing.txt")})
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "missing.txt")
}
