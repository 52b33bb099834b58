package covenant

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/crimson-sun/covenant/internal/engine"
	"github.com/crimson-sun/covenant/internal/engine/embedder"
	"github.com/crimson-sun/covenant/internal/engine/keywords"
	"github.com/crimson-sun/covenant/internal/engine/taxonomy"
	"github.com/crimson-sun/covenant/internal/metrics"
	"github.com/crimson-sun/covenant/internal/model"
)

// Classifier evaluates contract text against a risk taxonomy.
// Safe for concurrent use.
type Classifier struct {
	engine   *engine.Engine
	embedder embedder.Embedder // nil in keyword mode
	taxonomy *taxonomy.Taxonomy
}

// New creates a Classifier. It loads the embedding model and the taxonomy
// artifact; this is expensive, so create once and reuse.
//
// If the model cannot be loaded the Classifier runs on keyword rules and the
// taxonomy is not read. A missing or invalid taxonomy with a working model
// returns ErrConfiguration.
func New(opts ...Option) (*Classifier, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	rules, err := loadRules(o)
	if err != nil {
		return nil, err
	}

	emb, err := newEmbedder(o)
	switch {
	case errors.Is(err, model.ErrModelUnavailable):
		slog.Debug("embedding model load failed", "model_dir", o.modelDir, "error", err)
		emb = nil
	case err != nil:
		return nil, fmt.Errorf("covenant: %w", err)
	}

	var tax *taxonomy.Taxonomy
	if emb != nil {
		tax, err = taxonomy.Load(o.taxonomyPath)
		if err != nil {
			emb.Close()
			return nil, fmt.Errorf("covenant: %w", err)
		}
	}

	var mgr *metrics.Manager
	if o.registry != nil {
		mgr = metrics.NewManager(metrics.WithRegistry(o.registry))
	}

	eng, err := engine.New(engine.Config{
		Embedder: emb,
		Taxonomy: tax,
		Rules:    rules,
		Metrics:  mgr,
	})
	if err != nil {
		if emb != nil {
			emb.Close()
		}
		return nil, fmt.Errorf("covenant: %w", err)
	}
	return &Classifier{engine: eng, embedder: emb, taxonomy: tax}, nil
}

// Evaluate splits text into clauses, classifies each and aggregates an
// overall risk level.
func (c *Classifier) Evaluate(text string) (Evaluation, error) {
	ev, err := c.engine.Evaluate(text)
	if err != nil {
		return Evaluation{}, err
	}
	return evaluationFromModel(ev), nil
}

// Mode reports "embedding" or "keyword".
func (c *Classifier) Mode() string {
	return c.engine.Mode()
}

// Close releases model resources.
func (c *Classifier) Close() error {
	if c.embedder == nil {
		return nil
	}
	return c.embedder.Close()
}

func loadRules(o options) (*keywords.Table, error) {
	if o.rulesPath == "" {
		return keywords.Default(), nil
	}
	rules, err := keywords.LoadFile(o.rulesPath)
	if err != nil {
		return nil, fmt.Errorf("covenant: %w: %w", model.ErrConfiguration, err)
	}
	return rules, nil
}

func newEmbedder(o options) (embedder.Embedder, error) {
	if o.hashingDim > 0 {
		return embedder.NewHashing(o.hashingDim)
	}
	return embedder.NewONNX(embedder.ConfigFromDir(o.modelDir, o.modelID))
}
