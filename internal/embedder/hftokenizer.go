package embedder

import (
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// HFTokenizer implements Tokenizer from a HuggingFace tokenizer.json
type HFTokenizer struct {
	tk               *tokenizer.Tokenizer
	addSpecialTokens bool
}

// NewHFTokenizer loads a tokenizer.json file
func NewHFTokenizer(path string, addSpecialTokens bool) (*HFTokenizer, error) {
	if path == "" {
		return nil, fmt.Errorf("tokenizer path is required")
	}
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer %s: %w", path, err)
	}
	return &HFTokenizer{tk: tk, addSpecialTokens: addSpecialTokens}, nil
}

func (h *HFTokenizer) Encode(text string) (Encoding, error) {
	enc, err := h.tk.EncodeSingle(text, h.addSpecialTokens)
	if err != nil {
		return Encoding{}, fmt.Errorf("failed to encode text: %w", err)
	}
	return Encoding{
		IDs:           toInt64(enc.GetIds()),
		TypeIDs:       toInt64(enc.GetTypeIds()),
		AttentionMask: toInt64(enc.GetAttentionMask()),
	}, nil
}

func toInt64(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}
