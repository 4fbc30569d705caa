// internal/embedder/embedder.go
package embedder

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/MereWhiplash/semfind/internal/types"
)

// Embedder generates vector embeddings for text
type Embedder interface {
	// Embed creates an embedding of text in the space selected by task
	Embed(ctx context.Context, text string, task types.TaskPrefix) (types.Embedding, error)
	// Dimensions returns the configured embedding width
	Dimensions() int
}

// ForStorage creates an embedding optimized for document storage
func ForStorage(ctx context.Context, e Embedder, document string) (types.Embedding, error) {
	return e.Embed(ctx, document, types.TaskSearchDocument)
}

// ForSearch creates an embedding optimized for search queries
func ForSearch(ctx context.Context, e Embedder, query string) (types.Embedding, error) {
	return e.Embed(ctx, query, types.TaskSearchQuery)
}

// Encoding is the tokenizer output. All three slices have the same length.
type Encoding struct {
	IDs           []int64
	TypeIDs       []int64
	AttentionMask []int64
}

// Len returns the number of tokens
func (e Encoding) Len() int {
	return len(e.IDs)
}

func (e Encoding) validate() error {
	if len(e.IDs) == 0 {
		return fmt.Errorf("tokenizer produced no tokens")
	}
	if len(e.TypeIDs) != len(e.IDs) || len(e.AttentionMask) != len(e.IDs) {
		return fmt.Errorf("tokenizer produced mismatched lengths: ids=%d type_ids=%d mask=%d",
			len(e.IDs), len(e.TypeIDs), len(e.AttentionMask))
	}
	return nil
}

// TokenVectors holds one vector per token position, row-major
type TokenVectors struct {
	Tokens int
	Dims   int
	Data   []float32
}

// Tokenizer turns text into model inputs
type Tokenizer interface {
	Encode(text string) (Encoding, error)
}

// Engine runs the transformer over a single tokenized sequence
type Engine interface {
	Infer(ctx context.Context, enc Encoding) (TokenVectors, error)
}

// ONNXConfig configures the local ONNX Runtime engine
type ONNXConfig struct {
	ModelPath      string
	LibraryPath    string // onnxruntime shared library; empty uses the platform default
	IntraOpThreads int
	InputNames     []string // token ids, token type ids, attention mask
	OutputName     string
	Dimensions     int
}

// DefaultInputNames are the input names of BERT-style ONNX exports
var DefaultInputNames = []string{"input_ids", "token_type_ids", "attention_mask"}

// DefaultOutputName is the token-level output of BERT-style ONNX exports
const DefaultOutputName = "last_hidden_state"

func checkText(text string) error {
	if !utf8.ValidString(text) {
		return fmt.Errorf("text is not valid UTF-8")
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text is empty")
	}
	return nil
}
