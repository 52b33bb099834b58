// Package embedder turns clause text into fixed-dimension vectors.
package embedder

import (
	"fmt"
	"path/filepath"

	"github.com/crimson-sun/covenant/internal/model"
)

// Embedder produces vector embeddings from text. Implementations are
// deterministic for a fixed model and input, and safe for concurrent use.
type Embedder interface {
	Embed(text string) ([]float32, error)
	// EmbedBatch embeds texts, returning one vector per input in input order.
	EmbedBatch(texts []string) ([][]float32, error)
	// ModelID identifies the model; vectors from different ids are not comparable.
	ModelID() string
	Dim() int
	Close() error
}

// ONNXConfig locates the files of a BERT-style sentence encoder.
type ONNXConfig struct {
	ModelID        string // recorded in taxonomy artifacts, e.g. "nlpaueb/legal-bert-base-uncased"
	ModelPath      string
	VocabPath      string
	ProjectionPath string // optional dense layer applied after pooling
	LibraryPath    string // onnxruntime shared library; defaults to libonnxruntime.so next to the model
	Threads        int
}

// ConfigFromDir derives an ONNXConfig from the conventional layout:
// model.onnx, vocab.txt and, if present, 2_Dense/model.safetensors.
func ConfigFromDir(dir, modelID string) ONNXConfig {
	return ONNXConfig{
		ModelID:        modelID,
		ModelPath:      filepath.Join(dir, "model.onnx"),
		VocabPath:      filepath.Join(dir, "vocab.txt"),
		ProjectionPath: filepath.Join(dir, "2_Dense", "model.safetensors"),
		LibraryPath:    filepath.Join(dir, "libonnxruntime.so"),
	}
}

// ONNXEmbedder wraps the ONNX runtime, tokenizer, and optional projection
// layer for local embedding inference.
type ONNXEmbedder struct {
	modelID string
	session *onnxSession
	tok     *tokenizer
	proj    *projection // nil when the model has no dense head
}

// NewONNX loads the model, vocabulary and projection weights. The pipeline is:
// tokenize → ONNX inference → mean pool → projection → L2 normalise.
// Any load failure is reported as model.ErrModelUnavailable; callers switch
// to keyword matching instead of retrying.
func NewONNX(cfg ONNXConfig) (*ONNXEmbedder, error) {
	if cfg.ModelID == "" {
		cfg.ModelID = filepath.Base(filepath.Dir(cfg.ModelPath))
	}

	tok, err := newTokenizer(cfg.VocabPath)
	if err != nil {
		return nil, unavailable(err)
	}

	proj, err := loadOptionalProjection(cfg.ProjectionPath)
	if err != nil {
		return nil, unavailable(err)
	}

	sess, err := newONNXSession(cfg)
	if err != nil {
		return nil, unavailable(err)
	}

	if proj != nil && int(sess.embedDim) != proj.inDim {
		sess.close()
		return nil, unavailable(fmt.Errorf("ONNX output dim %d != projection input dim %d",
			sess.embedDim, proj.inDim))
	}

	return &ONNXEmbedder{modelID: cfg.ModelID, session: sess, tok: tok, proj: proj}, nil
}

func unavailable(err error) error {
	return fmt.Errorf("embedder: %w: %w", model.ErrModelUnavailable, err)
}

// ModelID returns the configured model identity.
func (e *ONNXEmbedder) ModelID() string { return e.modelID }

// Dim returns the final embedding dimensionality.
func (e *ONNXEmbedder) Dim() int {
	if e.proj != nil {
		return e.proj.outDim
	}
	return int(e.session.embedDim)
}

// Embed produces a single embedding vector for the given text.
func (e *ONNXEmbedder) Embed(text string) ([]float32, error) {
	vecs, err := e.EmbedBatch([]string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch produces embedding vectors for multiple texts in one inference
// call, padded to the longest sequence in the batch.
func (e *ONNXEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batch := e.tok.encodeBatch(texts)
	hidden, err := e.session.infer(batch)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	dim := e.session.embedDim
	pooled := meanPool(hidden, batch.attentionMask, batch.batchSize, batch.seqLen, dim)

	results := make([][]float32, batch.batchSize)
	for i := int64(0); i < batch.batchSize; i++ {
		vec := pooled[i*dim : (i+1)*dim]
		if e.proj != nil {
			vec = e.proj.apply(vec)
		} else {
			vec = append([]float32(nil), vec...)
		}
		results[i] = normalize(vec)
	}
	return results, nil
}

// Close releases ONNX Runtime resources.
func (e *ONNXEmbedder) Close() error {
	if e.session != nil {
		return e.session.close()
	}
	return nil
}
