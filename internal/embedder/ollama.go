// internal/embedder/ollama.go
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MereWhiplash/semfind/internal/metrics"
	"github.com/MereWhiplash/semfind/internal/types"
)

// Ollama implements Embedder using Ollama API
type Ollama struct {
	baseURL  string
	model    string
	dims     int
	prefixed bool
	http     *http.Client
	logger   *slog.Logger
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewOllama creates a new Ollama embedder. nomic-embed models get task
// prefixes; other models receive the text unchanged.
func NewOllama(baseURL, model string, dims int) *Ollama {
	return &Ollama{
		baseURL:  strings.TrimRight(baseURL, "/"),
		model:    model,
		dims:     dims,
		prefixed: strings.HasPrefix(model, "nomic-embed"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default().With("component", "ollama-embedder"),
	}
}

func (o *Ollama) Dimensions() int {
	return o.dims
}

func (o *Ollama) Embed(ctx context.Context, text string, task types.TaskPrefix) (types.Embedding, error) {
	if err := task.Validate(); err != nil {
		return nil, types.EmbeddingError("embed", err)
	}
	if err := checkText(text); err != nil {
		return nil, types.EmbeddingError("embed", err)
	}

	prompt := text
	if o.prefixed {
		prompt = task.Apply(text)
	}

	start := time.Now()
	emb, err := o.embed(ctx, prompt)
	if err != nil {
		o.logger.Error("embedding request failed", "model", o.model, "err", err)
		return nil, types.EmbeddingError("ollama", err)
	}
	metrics.EmbedDuration.WithLabelValues("ollama", string(task)).Observe(time.Since(start).Seconds())
	return emb, nil
}

func (o *Ollama) embed(ctx context.Context, prompt string) (types.Embedding, error) {
	reqBody := embeddingRequest{
		Model:  o.model,
		Prompt: prompt,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/embeddings", o.baseURL), bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var embResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(embResp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}

	return embResp.Embedding, nil
}
