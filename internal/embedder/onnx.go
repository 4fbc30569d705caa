//go:build cgo

package embedder

import (
	"context"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXEngine implements Engine with ONNX Runtime
type ONNXEngine struct {
	session *ort.DynamicAdvancedSession
	dims    int
}

// NewONNXEngine loads the model and creates an inference session
func NewONNXEngine(cfg ONNXConfig) (*ONNXEngine, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("onnx model path is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("onnx output dimensions must be positive, got %d", cfg.Dimensions)
	}

	inputNames := cfg.InputNames
	if len(inputNames) == 0 {
		inputNames = DefaultInputNames
	}
	if len(inputNames) != 3 {
		return nil, fmt.Errorf("onnx engine needs 3 input names (ids, type ids, mask), got %d", len(inputNames))
	}
	outputName := cfg.OutputName
	if outputName == "" {
		outputName = DefaultOutputName
	}

	if !ort.IsInitialized() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize onnxruntime: %w", err)
		}
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer opts.Destroy()

	if cfg.IntraOpThreads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputNames, []string{outputName}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", cfg.ModelPath, err)
	}

	return &ONNXEngine{session: session, dims: cfg.Dimensions}, nil
}

func (e *ONNXEngine) Infer(ctx context.Context, enc Encoding) (TokenVectors, error) {
	if err := ctx.Err(); err != nil {
		return TokenVectors{}, err
	}

	n := int64(enc.Len())
	shape := ort.NewShape(1, n)

	ids, err := ort.NewTensor(shape, enc.IDs)
	if err != nil {
		return TokenVectors{}, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	defer ids.Destroy()

	typeIDs, err := ort.NewTensor(shape, enc.TypeIDs)
	if err != nil {
		return TokenVectors{}, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	defer typeIDs.Destroy()

	mask, err := ort.NewTensor(shape, enc.AttentionMask)
	if err != nil {
		return TokenVectors{}, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	defer mask.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, n, int64(e.dims)))
	if err != nil {
		return TokenVectors{}, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := e.session.Run([]ort.Value{ids, typeIDs, mask}, []ort.Value{out}); err != nil {
		return TokenVectors{}, fmt.Errorf("onnx run failed: %w", err)
	}

	// The tensor memory is freed by Destroy.
	data := make([]float32, len(out.GetData()))
	copy(data, out.GetData())

	return TokenVectors{Tokens: int(n), Dims: e.dims, Data: data}, nil
}

func (e *ONNXEngine) Close() error {
	return e.session.Destroy()
}
