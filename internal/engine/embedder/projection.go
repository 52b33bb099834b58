package embedder

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
)

// projection is a bias-free dense layer loaded from a safetensors file. It
// maps pooled vectors from inDim to outDim.
type projection struct {
	weights []float32 // row-major [outDim, inDim]
	inDim   int
	outDim  int
}

type tensorMeta struct {
	Dtype       string `json:"dtype"`
	Shape       []int  `json:"shape"`
	DataOffsets [2]int `json:"data_offsets"`
}

// loadOptionalProjection returns nil, nil when path is empty or absent:
// plain sentence encoders have no dense head.
func loadOptionalProjection(path string) (*projection, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return loadProjection(path)
}

// loadProjection reads a safetensors file holding a single F32
// "linear.weight" tensor.
func loadProjection(path string) (*projection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("projection: %w", err)
	}
	if len(data) < 8 {
		return nil, fmt.Errorf("projection: file too small: %d bytes", len(data))
	}

	// 8-byte little-endian header length, then a JSON header.
	headerLen := binary.LittleEndian.Uint64(data[:8])
	if headerLen > uint64(len(data)-8) {
		return nil, fmt.Errorf("projection: header length %d exceeds file size", headerLen)
	}
	body := data[8+headerLen:]

	var header map[string]json.RawMessage
	if err := json.Unmarshal(data[8:8+headerLen], &header); err != nil {
		return nil, fmt.Errorf("projection: parse header: %w", err)
	}
	raw, ok := header["linear.weight"]
	if !ok {
		return nil, fmt.Errorf("projection: tensor 'linear.weight' not found")
	}
	var meta tensorMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("projection: parse tensor metadata: %w", err)
	}
	if meta.Dtype != "F32" {
		return nil, fmt.Errorf("projection: expected dtype F32, got %s", meta.Dtype)
	}
	if len(meta.Shape) != 2 {
		return nil, fmt.Errorf("projection: expected 2D tensor, got shape %v", meta.Shape)
	}

	outDim, inDim := meta.Shape[0], meta.Shape[1]
	start, end := meta.DataOffsets[0], meta.DataOffsets[1]
	if start < 0 || end > len(body) || end-start != outDim*inDim*4 {
		return nil, fmt.Errorf("projection: data range [%d:%d] does not fit shape %v in %d bytes",
			start, end, meta.Shape, len(body))
	}

	weights := make([]float32, outDim*inDim)
	for i := range weights {
		off := start + i*4
		weights[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[off : off+4]))
	}

	return &projection{weights: weights, inDim: inDim, outDim: outDim}, nil
}

// apply projects a single vector from inDim to outDim.
func (p *projection) apply(vec []float32) []float32 {
	out := make([]float32, p.outDim)
	for i := range out {
		row := p.weights[i*p.inDim : (i+1)*p.inDim]
		var sum float32
		for j, w := range row {
			sum += w * vec[j]
		}
		out[i] = sum
	}
	return out
}
