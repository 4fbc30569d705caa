//go:build !cgo

package embedder

import (
	"context"
	"fmt"
)

// ONNXEngine is a stub for non-CGO builds
type ONNXEngine struct{}

var errNoCGO = fmt.Errorf("ONNX inference requires CGO (build with CGO_ENABLED=1)")

// NewONNXEngine returns an error in non-CGO builds
func NewONNXEngine(cfg ONNXConfig) (*ONNXEngine, error) {
	return nil, errNoCGO
}

func (e *ONNXEngine) Infer(ctx context.Context, enc Encoding) (TokenVectors, error) {
	return TokenVectors{}, errNoCGO
}

func (e *ONNXEngine) Close() error {
	return nil
}
