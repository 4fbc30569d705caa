package types_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MereWhiplash/semfind/internal/types"
)

func TestTaskPrefix_Validate(t *testing.T) {
	for _, task := range []types.TaskPrefix{
		types.TaskSearchQuery, types.TaskSearchDocument, types.TaskClassification, types.TaskClustering,
	} {
		assert.NoError(t, task.Validate(), task)
	}
	assert.Error(t, types.TaskPrefix("summarize").Validate())
}

func TestTaskPrefix_ApplyUsesSeparator(t *testing.T) {
	assert.Equal(t, "search_document: Hello", types.TaskSearchDocument.Apply("Hello"))
	assert.Equal(t, "search_query: Hello", types.TaskSearchQuery.Apply("Hello"))
}

func TestEmbedding_String(t *testing.T) {
	assert.Equal(t, "[]", types.Embedding(nil).String())
	assert.Equal(t, "[0.5, -1, 3.25]", types.Embedding{0.5, -1, 3.25}.String())
}

func TestError_MatchesKindAndCause(t *testing.T) {
	err := types.IOError("read file", fs.ErrNotExist)

	assert.True(t, errors.Is(err, types.ErrIO))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.False(t, errors.Is(err, types.ErrStore))
	assert.Contains(t, err.Error(), "read file")

	nf := types.NotFoundError("search")
	assert.True(t, errors.Is(nf, types.ErrNotFound))
	assert.Equal(t, "search: not found", nf.Error())
}

func TestHasKind(t *testing.T) {
	assert.True(t, types.HasKind(types.StoreError("insert", errors.New("x"))))
	assert.True(t, types.HasKind(fmt.Errorf("wrapped: %w", types.NotFoundError("search"))))
	assert.False(t, types.HasKind(errors.New("plain")))
	assert.False(t, types.HasKind(nil))
}
