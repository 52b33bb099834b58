package covenant

import "github.com/prometheus/client_golang/prometheus"

type options struct {
	modelDir      string
	modelID       string
	hashingDim    int // >0 selects the model-free hashing embedder
	taxonomyPath  string
	rulesPath     string
	registry      *prometheus.Registry
	cachePath     string
	batchSize     int
	workers       int
	maxIterations int
}

// Option configures New and BuildTaxonomy.
type Option func(*options)

// WithModelDir sets the directory containing the ONNX sentence encoder.
// Expects: model.onnx, vocab.txt, optional 2_Dense/model.safetensors and
// the onnxruntime shared library libonnxruntime.so.
func WithModelDir(dir string) Option {
	return func(o *options) {
		o.modelDir = dir
	}
}

// WithModelID sets the identity recorded in, and checked against, taxonomy
// artifacts. Default: "nlpaueb/legal-bert-base-uncased".
func WithModelID(id string) Option {
	return func(o *options) {
		o.modelID = id
	}
}

// WithHashingEmbedder replaces the ONNX model with a feature-hashing
// embedder of dim buckets. It needs no model files but only captures
// lexical overlap.
func WithHashingEmbedder(dim int) Option {
	return func(o *options) {
		o.hashingDim = dim
	}
}

// WithTaxonomy sets the taxonomy artifact path: read by New, written by
// BuildTaxonomy. Default: "data/taxonomy.json".
func WithTaxonomy(path string) Option {
	return func(o *options) {
		o.taxonomyPath = path
	}
}

// WithRules replaces the built-in keyword rules with a YAML rules file.
// The rules drive the fallback classifier and corpus risk inference.
func WithRules(path string) Option {
	return func(o *options) {
		o.rulesPath = path
	}
}

// WithMetricsRegistry registers evaluation metrics on registry.
func WithMetricsRegistry(registry *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithEmbeddingCache stores corpus embeddings in a SQLite database at path
// so repeated builds skip inference.
func WithEmbeddingCache(path string) Option {
	return func(o *options) {
		o.cachePath = path
	}
}

// WithBatching sets the embedding batch size and the number of batches
// embedded concurrently during a build. Defaults: 32 and 4.
func WithBatching(batchSize, workers int) Option {
	return func(o *options) {
		o.batchSize = batchSize
		o.workers = workers
	}
}

// WithMaxIterations caps k-means iterations during a build. Default: 100.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

func defaultOptions() options {
	return options{
		modelDir:     "models",
		modelID:      "nlpaueb/legal-bert-base-uncased",
		taxonomyPath: "data/taxonomy.json",
		batchSize:    32,
		workers:      4,
	}
}
