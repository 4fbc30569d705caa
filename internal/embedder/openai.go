package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/MereWhiplash/semfind/internal/metrics"
	"github.com/MereWhiplash/semfind/internal/types"
)

// OpenAI implements Embedder using an OpenAI-compatible embeddings API
// (llama.cpp server, vLLM, LM Studio, OpenAI itself).
type OpenAI struct {
	embedder embeddings.Embedder
	dims     int
	logger   *slog.Logger
}

// NewOpenAI creates an embedder for baseURL. An empty token is sent as "none"
// for local services that don't require authentication.
func NewOpenAI(baseURL, model, token string, dims int) (*OpenAI, error) {
	if model == "" {
		return nil, fmt.Errorf("openai embedding model is required")
	}
	if token == "" {
		token = "none"
	}

	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithEmbeddingModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	emb, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(false))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &OpenAI{
		embedder: emb,
		dims:     dims,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

func (o *OpenAI) Dimensions() int {
	return o.dims
}

func (o *OpenAI) Embed(ctx context.Context, text string, task types.TaskPrefix) (types.Embedding, error) {
	if err := task.Validate(); err != nil {
		return nil, types.EmbeddingError("embed", err)
	}
	if err := checkText(text); err != nil {
		return nil, types.EmbeddingError("embed", err)
	}

	start := time.Now()
	vec, err := o.embedder.EmbedQuery(ctx, task.Apply(text))
	if err != nil {
		o.logger.Error("failed to generate embedding", "err", err)
		return nil, types.EmbeddingError("openai", err)
	}
	if len(vec) == 0 {
		return nil, types.EmbeddingError("openai", fmt.Errorf("empty embedding returned"))
	}
	metrics.EmbedDuration.WithLabelValues("openai", string(task)).Observe(time.Since(start).Seconds())

	return vec, nil
}
