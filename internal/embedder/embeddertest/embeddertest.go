// Package embeddertest provides deterministic tokenizer and engine fakes
// for exercising the embedding pipeline without a model on disk.
package embeddertest

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/MereWhiplash/semfind/internal/embedder"
)

// WordTokenizer splits text into lowercase words and hashes each one to a token id
type WordTokenizer struct {
	mu     sync.Mutex
	inputs []string
	Err    error
}

func (w *WordTokenizer) Encode(text string) (embedder.Encoding, error) {
	w.mu.Lock()
	w.inputs = append(w.inputs, text)
	w.mu.Unlock()

	if w.Err != nil {
		return embedder.Encoding{}, w.Err
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	enc := embedder.Encoding{
		IDs:           make([]int64, len(words)),
		TypeIDs:       make([]int64, len(words)),
		AttentionMask: make([]int64, len(words)),
	}
	for i, word := range words {
		h := fnv.New32a()
		h.Write([]byte(word))
		enc.IDs[i] = int64(h.Sum32())
		enc.AttentionMask[i] = 1
	}
	return enc, nil
}

// Inputs returns every text passed to Encode, in call order
func (w *WordTokenizer) Inputs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.inputs...)
}

// HashEngine produces a one-hot row per token at id % Dims, so texts that
// share words produce embeddings pointing in similar directions.
type HashEngine struct {
	Dims  int
	Err   error
	Delay time.Duration

	active    atomic.Int32
	maxActive atomic.Int32
	calls     atomic.Int32
}

func (h *HashEngine) Infer(ctx context.Context, enc embedder.Encoding) (embedder.TokenVectors, error) {
	n := h.active.Add(1)
	defer h.active.Add(-1)
	for {
		m := h.maxActive.Load()
		if n <= m || h.maxActive.CompareAndSwap(m, n) {
			break
		}
	}
	h.calls.Add(1)

	if h.Delay > 0 {
		select {
		case <-time.After(h.Delay):
		case <-ctx.Done():
			return embedder.TokenVectors{}, ctx.Err()
		}
	}
	if h.Err != nil {
		return embedder.TokenVectors{}, h.Err
	}

	tv := embedder.TokenVectors{
		Tokens: enc.Len(),
		Dims:   h.Dims,
		Data:   make([]float32, enc.Len()*h.Dims),
	}
	for t, id := range enc.IDs {
		tv.Data[t*h.Dims+int(id%int64(h.Dims))] = 1
	}
	return tv, nil
}

// MaxConcurrent returns the highest number of simultaneous Infer calls seen
func (h *HashEngine) MaxConcurrent() int {
	return int(h.maxActive.Load())
}

// Calls returns the number of Infer calls
func (h *HashEngine) Calls() int {
	return int(h.calls.Load())
}

// NewPipeline returns a pipeline over a fresh WordTokenizer and HashEngine
func NewPipeline(dims int) (*embedder.Pipeline, *WordTokenizer, *HashEngine) {
	tok := &WordTokenizer{}
	eng := &HashEngine{Dims: dims}
	return embedder.NewPipeline(tok, eng, dims), tok, eng
}
