//go:build cgo

package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MereWhiplash/semfind/internal/embedder/embeddertest"
	"github.com/MereWhiplash/semfind/internal/service"
	"github.com/MereWhiplash/semfind/internal/storage"
	"github.com/MereWhiplash/semfind/internal/types"
)

func newSQLiteService(t *testing.T) *service.Service {
	t.Helper()
	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "index.db"), types.DefaultDimensions)
	require.NoError(t, err)

	pipeline, _, _ := embeddertest.NewPipeline(types.DefaultDimensions)
	svc := service.New(store, pipeline)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestService_StoryTodoCode(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()
	dir := t.TempDir()

	story := writeFile(t, dir, "story.txt",
		"Once upon a time there was a little girl named Alice. "+
			"She got lost in the dark forest and a kind wolf helped the girl find her way home. "+
			"It is a story about courage.")
	todo := writeFile(t, dir, "todo.txt",
		"TODO: buy milk, renew passport, call plumber, pay electricity bill")
	code := writeFile(t, dir, "main.go",
		"package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hello world\")\n}\n")

	for _, p := range []string{story, todo, code} {
		res, err := svc.IndexFile(ctx, p)
		require.NoError(t, err)
		assert.Len(t, res.Embedding, types.DefaultDimensions)
	}

	got, err := svc.Search(ctx, "A story about a girl")
	require.NoError(t, err)
	assert.Equal(t, story, got)

	matches, err := svc.SearchN(ctx, "A story about a girl", 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, story, matches[0].Path)
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)
	assert.Greater(t, matches[0].Similarity, matches[2].Similarity)
}

func TestService_EmptyIndexNotFound(t *testing.T) {
	svc := newSQLiteService(t)

	_, err := svc.Search(context.Background(), "anything at all")
	assert.True(t, errors.Is(err, types.ErrNotFound), "expected not found, got %v", err)
}

func TestService_IndexedFileIsFoundByItsContent(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "recipe.txt", "whisk eggs sugar flour bake cake")
	_, err := svc.IndexFile(ctx, path)
	require.NoError(t, err)

	got, err := svc.Search(ctx, "bake a cake with eggs and flour")
	require.NoError(t, err)
	assert.Equal(t, path, got)
}
