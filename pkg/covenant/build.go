package covenant

import (
	"context"
	"fmt"

	"github.com/crimson-sun/covenant/internal/engine/embedder"
	"github.com/crimson-sun/covenant/internal/pipeline"
	"github.com/crimson-sun/covenant/internal/store/embedcache"
)

// BuildTaxonomy clusters the corpus at corpusPath into at most clusterCount
// risk categories and writes the taxonomy artifact, returning its path
// (WithTaxonomy, default "data/taxonomy.json"). The same inputs and seed
// always produce the same artifact. Unlike New, a build fails with
// ErrModelUnavailable when the embedding model cannot be loaded.
func BuildTaxonomy(ctx context.Context, corpusPath string, clusterCount int, seed uint64, opts ...Option) (string, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	rules, err := loadRules(o)
	if err != nil {
		return "", err
	}

	emb, err := newEmbedder(o)
	if err != nil {
		return "", fmt.Errorf("covenant: %w", err)
	}
	defer emb.Close()

	var cache embedder.Cache
	if o.cachePath != "" {
		store, err := embedcache.Open(o.cachePath)
		if err != nil {
			return "", fmt.Errorf("covenant: %w", err)
		}
		defer store.Close()
		cache = store
	}

	return pipeline.Build(ctx, pipeline.BuildConfig{
		CorpusPath:    corpusPath,
		OutPath:       o.taxonomyPath,
		ClusterCount:  clusterCount,
		Seed:          seed,
		MaxIterations: o.maxIterations,
		Embedder:      emb,
		Cache:         cache,
		BatchSize:     o.batchSize,
		Workers:       o.workers,
		Rules:         rules,
	})
}
