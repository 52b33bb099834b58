package embedder

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv guards the process-wide ONNX Runtime environment.
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Only the first call has
// any effect, so a failed first load keeps failing for the process lifetime.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

var bertInputs = []string{"input_ids", "attention_mask", "token_type_ids"}

// onnxSession wraps a DynamicAdvancedSession for BERT-style encoders.
type onnxSession struct {
	session    *ort.DynamicAdvancedSession
	outputName string
	embedDim   int64
}

func newONNXSession(cfg ONNXConfig) (*onnxSession, error) {
	libPath := cfg.LibraryPath
	if libPath == "" {
		libPath = filepath.Join(filepath.Dir(cfg.ModelPath), "libonnxruntime.so")
	}
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: read model info: %w", err)
	}
	if err := checkInputs(inputs); err != nil {
		return nil, err
	}

	// Expect the token-level hidden states first: [batch, seq, dim].
	if len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: model has no outputs")
	}
	dims := outputs[0].Dimensions
	if len(dims) != 3 || dims[2] <= 0 {
		return nil, fmt.Errorf("onnx: expected [batch, seq, dim] output, got %v", dims)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: session options: %w", err)
	}
	defer opts.Destroy()
	threads := cfg.Threads
	if threads <= 0 {
		threads = 4
	}
	opts.SetIntraOpNumThreads(threads)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, bertInputs, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: create session: %w", err)
	}

	return &onnxSession{session: session, outputName: outputs[0].Name, embedDim: dims[2]}, nil
}

func checkInputs(inputs []ort.InputOutputInfo) error {
	have := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		have[in.Name] = true
	}
	for _, name := range bertInputs {
		if !have[name] {
			return fmt.Errorf("onnx: model missing required input %q", name)
		}
	}
	return nil
}

// infer runs the encoder over a packed batch and returns the flat
// [batchSize * seqLen * embedDim] hidden states.
func (s *onnxSession) infer(b tokenized) ([]float32, error) {
	shape := ort.NewShape(b.batchSize, b.seqLen)

	var inputs []ort.Value
	defer func() {
		for _, v := range inputs {
			v.Destroy()
		}
	}()
	for _, data := range [][]int64{b.inputIDs, b.attentionMask, b.tokenTypeIDs} {
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("onnx: input tensor: %w", err)
		}
		inputs = append(inputs, t)
	}

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(b.batchSize, b.seqLen, s.embedDim))
	if err != nil {
		return nil, fmt.Errorf("onnx: output tensor: %w", err)
	}
	defer out.Destroy()

	if err := s.session.Run(inputs, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	// Copy out before the tensor is destroyed.
	return append([]float32(nil), out.GetData()...), nil
}

func (s *onnxSession) close() error {
	return s.session.Destroy()
}
