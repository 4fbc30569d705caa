package embedder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/MereWhiplash/semfind/internal/guard"
	"github.com/MereWhiplash/semfind/internal/metrics"
	"github.com/MereWhiplash/semfind/internal/types"
)

// Pipeline implements Embedder with a local tokenizer and inference engine.
// Each is used by one caller at a time; tokenization finishes and releases
// its lock before inference acquires the engine.
type Pipeline struct {
	tokenizer *guard.Mutex[Tokenizer]
	engine    *guard.Mutex[Engine]
	dims      int
	logger    *slog.Logger
}

// NewPipeline creates a pipeline producing dims-wide embeddings
func NewPipeline(tok Tokenizer, eng Engine, dims int) *Pipeline {
	return &Pipeline{
		tokenizer: guard.New[Tokenizer]("tokenizer", tok),
		engine:    guard.New[Engine]("inference_session", eng),
		dims:      dims,
		logger:    slog.Default().With("component", "embed-pipeline"),
	}
}

func (p *Pipeline) Dimensions() int {
	return p.dims
}

func (p *Pipeline) Embed(ctx context.Context, text string, task types.TaskPrefix) (types.Embedding, error) {
	if err := task.Validate(); err != nil {
		return nil, types.EmbeddingError("embed", err)
	}
	if err := checkText(text); err != nil {
		return nil, types.EmbeddingError("embed", err)
	}

	start := time.Now()

	enc, err := guard.With(p.tokenizer, func(tok Tokenizer) (Encoding, error) {
		return tok.Encode(task.Apply(text))
	})
	if err != nil {
		return nil, types.EmbeddingError("tokenize", err)
	}
	if err := enc.validate(); err != nil {
		return nil, types.EmbeddingError("tokenize", err)
	}

	out, err := guard.With(p.engine, func(eng Engine) (TokenVectors, error) {
		return eng.Infer(ctx, enc)
	})
	if err != nil {
		return nil, types.EmbeddingError("infer", err)
	}

	emb, err := MeanPool(out)
	if err != nil {
		return nil, types.EmbeddingError("pool", err)
	}

	metrics.EmbedDuration.WithLabelValues("onnx", string(task)).Observe(time.Since(start).Seconds())
	p.logger.Debug("embedded text", "task", task, "tokens", enc.Len(), "duration", time.Since(start))

	return emb, nil
}

// Close releases the engine and tokenizer if they hold native resources
func (p *Pipeline) Close() error {
	var firstErr error
	closeIfCloser := func(v any) error {
		if c, ok := v.(io.Closer); ok {
			return c.Close()
		}
		return nil
	}
	if err := p.engine.Do(func(e Engine) error { return closeIfCloser(e) }); err != nil {
		firstErr = err
	}
	if err := p.tokenizer.Do(func(t Tokenizer) error { return closeIfCloser(t) }); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// MeanPool averages the token vectors into a single vector
func MeanPool(tv TokenVectors) (types.Embedding, error) {
	if tv.Tokens <= 0 || tv.Dims <= 0 {
		return nil, fmt.Errorf("empty inference output: tokens=%d dims=%d", tv.Tokens, tv.Dims)
	}
	if len(tv.Data) != tv.Tokens*tv.Dims {
		return nil, fmt.Errorf("inference output has %d values, want %d (%d tokens x %d dims)",
			len(tv.Data), tv.Tokens*tv.Dims, tv.Tokens, tv.Dims)
	}

	sum := make([]float64, tv.Dims)
	for t := 0; t < tv.Tokens; t++ {
		row := tv.Data[t*tv.Dims : (t+1)*tv.Dims]
		for i, v := range row {
			sum[i] += float64(v)
		}
	}

	emb := make(types.Embedding, tv.Dims)
	n := float64(tv.Tokens)
	for i, s := range sum {
		emb[i] = float32(s / n)
	}
	return emb, nil
}
