package embedcache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MereWhiplash/semfind/internal/types"
)

type countingEmbedder struct {
	dims  int
	calls int
	err   error
}

func (c *countingEmbedder) Dimensions() int { return c.dims }

func (c *countingEmbedder) Embed(_ context.Context, text string, _ types.TaskPrefix) (types.Embedding, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	emb := make(types.Embedding, c.dims)
	emb[len(text)%c.dims] = 1
	return emb, nil
}

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_GetPut(t *testing.T) {
	s := openMemory(t)
	key := Key("model", types.TaskSearchDocument, "hello")

	_, ok, err := s.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)

	want := types.Embedding{0.25, -1, 3}
	require.NoError(t, s.Put(key, want))

	got, ok, err := s.Get(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestKey_SeparatesModelAndTask(t *testing.T) {
	base := Key("m1", types.TaskSearchDocument, "text")
	assert.Equal(t, base, Key("m1", types.TaskSearchDocument, "text"))
	assert.NotEqual(t, base, Key("m2", types.TaskSearchDocument, "text"))
	assert.NotEqual(t, base, Key("m1", types.TaskSearchQuery, "text"))
	assert.NotEqual(t, base, Key("m1", types.TaskSearchDocument, "other"))
}

func TestEmbedder_ReadThrough(t *testing.T) {
	next := &countingEmbedder{dims: 4}
	e := Wrap(next, openMemory(t), "m1")
	ctx := context.Background()

	first, err := e.Embed(ctx, "abc", types.TaskSearchDocument)
	require.NoError(t, err)
	second, err := e.Embed(ctx, "abc", types.TaskSearchDocument)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 4, e.Dimensions())

	// different task is a different key
	_, err = e.Embed(ctx, "abc", types.TaskSearchQuery)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestEmbedder_ErrorsAreNotCached(t *testing.T) {
	boom := errors.New("boom")
	next := &countingEmbedder{dims: 4, err: boom}
	store := openMemory(t)
	e := Wrap(next, store, "m1")

	_, err := e.Embed(context.Background(), "abc", types.TaskSearchDocument)
	assert.ErrorIs(t, err, boom)

	n, err := store.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestEmbedder_IgnoresWrongWidth(t *testing.T) {
	store := openMemory(t)
	key := Key("m1", types.TaskSearchDocument, "abc")
	require.NoError(t, store.Put(key, types.Embedding{1, 2}))

	next := &countingEmbedder{dims: 4}
	e := Wrap(next, store, "m1")

	emb, err := e.Embed(context.Background(), "abc", types.TaskSearchDocument)
	require.NoError(t, err)
	assert.Len(t, emb, 4)
	assert.Equal(t, 1, next.calls)
}

func TestOpen_OnDisk(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, false)
	require.NoError(t, err)
	key := Key("m", types.TaskSearchQuery, "q")
	require.NoError(t, s.Put(key, types.Embedding{1}))
	require.NoError(t, s.Close())

	s, err = Open(dir, false)
	require.NoError(t, err)
	defer s.Close()
	got, ok, err := s.Get(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.Embedding{1}, got)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("", false)
	assert.Error(t, err)
}
