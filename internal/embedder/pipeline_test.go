package embedder_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MereWhiplash/semfind/internal/embedder"
	"github.com/MereWhiplash/semfind/internal/embedder/embeddertest"
	"github.com/MereWhiplash/semfind/internal/types"
)

type emptyTokenizer struct{}

func (emptyTokenizer) Encode(string) (embedder.Encoding, error) {
	return embedder.Encoding{}, nil
}

func TestMeanPool(t *testing.T) {
	emb, err := embedder.MeanPool(embedder.TokenVectors{
		Tokens: 2,
		Dims:   3,
		Data:   []float32{1, 2, 3, 3, 4, 5},
	})
	require.NoError(t, err)
	assert.Equal(t, types.Embedding{2, 3, 4}, emb)
}

func TestMeanPool_SingleToken(t *testing.T) {
	emb, err := embedder.MeanPool(embedder.TokenVectors{Tokens: 1, Dims: 2, Data: []float32{0.5, -0.25}})
	require.NoError(t, err)
	assert.Equal(t, types.Embedding{0.5, -0.25}, emb)
}

func TestMeanPool_Invalid(t *testing.T) {
	_, err := embedder.MeanPool(embedder.TokenVectors{})
	assert.Error(t, err)

	_, err = embedder.MeanPool(embedder.TokenVectors{Tokens: 2, Dims: 3, Data: []float32{1, 2, 3}})
	assert.Error(t, err)
}

func TestPipeline_AppliesTaskPrefix(t *testing.T) {
	p, tok, _ := embeddertest.NewPipeline(16)

	_, err := embedder.ForStorage(context.Background(), p, "The quick brown fox")
	require.NoError(t, err)
	_, err = embedder.ForSearch(context.Background(), p, "brown fox")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"search_document: The quick brown fox",
		"search_query: brown fox",
	}, tok.Inputs())
}

func TestPipeline_TaskPrefixChangesModelInput(t *testing.T) {
	p, tok, _ := embeddertest.NewPipeline(64)
	ctx := context.Background()

	doc, err := p.Embed(ctx, "hello", types.TaskSearchDocument)
	require.NoError(t, err)
	query, err := p.Embed(ctx, "hello", types.TaskSearchQuery)
	require.NoError(t, err)

	// the vectors themselves may coincide under mean pooling; the model input must not
	assert.Len(t, doc, 64)
	assert.Len(t, query, 64)
	inputs := tok.Inputs()
	require.Len(t, inputs, 2)
	assert.NotEqual(t, inputs[0], inputs[1])
}

func TestPipeline_Deterministic(t *testing.T) {
	p, _, _ := embeddertest.NewPipeline(32)
	ctx := context.Background()

	a, err := embedder.ForStorage(ctx, p, "same text")
	require.NoError(t, err)
	b, err := embedder.ForStorage(ctx, p, "same text")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPipeline_RejectsBadInput(t *testing.T) {
	p, _, eng := embeddertest.NewPipeline(8)
	ctx := context.Background()

	tests := []struct {
		name string
		text string
		task types.TaskPrefix
	}{
		{"empty text", "", types.TaskSearchQuery},
		{"blank text", " \n\t", types.TaskSearchQuery},
		{"invalid utf8", string([]byte{0xff, 0xfe}), types.TaskSearchDocument},
		{"unknown task", "hello", types.TaskPrefix("summarize")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Embed(ctx, tt.text, tt.task)
			assert.ErrorIs(t, err, types.ErrEmbedding)
		})
	}
	assert.Equal(t, 0, eng.Calls())
}

func TestPipeline_WrapsFailures(t *testing.T) {
	boom := errors.New("boom")

	t.Run("tokenizer", func(t *testing.T) {
		p := embedder.NewPipeline(&embeddertest.WordTokenizer{Err: boom}, &embeddertest.HashEngine{Dims: 4}, 4)
		_, err := embedder.ForSearch(context.Background(), p, "hello")
		assert.ErrorIs(t, err, types.ErrEmbedding)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("engine", func(t *testing.T) {
		p := embedder.NewPipeline(&embeddertest.WordTokenizer{}, &embeddertest.HashEngine{Dims: 4, Err: boom}, 4)
		_, err := embedder.ForSearch(context.Background(), p, "hello")
		assert.ErrorIs(t, err, types.ErrEmbedding)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("no tokens", func(t *testing.T) {
		eng := &embeddertest.HashEngine{Dims: 4}
		p := embedder.NewPipeline(emptyTokenizer{}, eng, 4)
		_, err := embedder.ForSearch(context.Background(), p, "hello")
		assert.ErrorIs(t, err, types.ErrEmbedding)
		assert.Equal(t, 0, eng.Calls())
	})
}

func TestPipeline_SerializesInference(t *testing.T) {
	tok := &embeddertest.WordTokenizer{}
	eng := &embeddertest.HashEngine{Dims: 8, Delay: 2 * time.Millisecond}
	p := embedder.NewPipeline(tok, eng, 8)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := embedder.ForStorage(context.Background(), p, "concurrent document text")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, eng.Calls())
	assert.Equal(t, 1, eng.MaxConcurrent())
}

func TestPipeline_Close(t *testing.T) {
	p, _, _ := embeddertest.NewPipeline(4)
	assert.NoError(t, p.Close())
}
