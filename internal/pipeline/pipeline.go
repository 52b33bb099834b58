// Package pipeline runs the offline taxonomy build: corpus ingestion,
// embedding, clustering and artifact publication.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crimson-sun/covenant/internal/corpus"
	"github.com/crimson-sun/covenant/internal/engine/embedder"
	"github.com/crimson-sun/covenant/internal/engine/keywords"
	"github.com/crimson-sun/covenant/internal/engine/taxonomy"
)

// BuildConfig describes one taxonomy build.
type BuildConfig struct {
	CorpusPath    string
	OutPath       string
	ClusterCount  int
	Seed          uint64
	MaxIterations int

	Embedder  embedder.Embedder
	Cache     embedder.Cache // optional
	BatchSize int
	Workers   int

	Rules   *keywords.Table   // risk inference for unlabeled records; nil selects the default
	Labeler *keywords.Labeler // cluster naming; nil selects the default
}

// Build turns the corpus at cfg.CorpusPath into a taxonomy artifact at
// cfg.OutPath and returns that path. Nothing is written unless every stage
// succeeds.
func Build(ctx context.Context, cfg BuildConfig) (string, error) {
	if cfg.Embedder == nil {
		return "", fmt.Errorf("pipeline: no embedder configured")
	}
	if cfg.OutPath == "" {
		return "", fmt.Errorf("pipeline: no output path configured")
	}
	if cfg.ClusterCount <= 0 {
		return "", fmt.Errorf("pipeline: cluster count must be positive, got %d", cfg.ClusterCount)
	}
	start := time.Now()

	records, err := corpus.New(cfg.Rules).Open(ctx, cfg.CorpusPath)
	if err != nil {
		return "", fmt.Errorf("pipeline ingest: %w", err)
	}

	// CUAD repeats each paragraph once per question, so embed distinct texts only.
	index := make(map[string]int)
	var unique []string
	for _, r := range records {
		if _, ok := index[r.Text]; !ok {
			index[r.Text] = len(unique)
			unique = append(unique, r.Text)
		}
	}

	emb := cfg.Embedder
	if cfg.Cache != nil {
		emb = embedder.WithCache(emb, cfg.Cache)
	}
	embedStart := time.Now()
	vecs, err := embedder.EmbedAll(ctx, emb, unique, cfg.BatchSize, cfg.Workers)
	if err != nil {
		return "", fmt.Errorf("pipeline embed: %w", err)
	}
	slog.Info("corpus embedded",
		"model", emb.ModelID(),
		"records", len(records),
		"distinct_texts", len(unique),
		"duration", time.Since(embedStart),
	)

	vectors := make([][]float32, len(records))
	for i, r := range records {
		vectors[i] = vecs[index[r.Text]]
	}

	tax, err := taxonomy.Build(records, vectors, emb.ModelID(), taxonomy.BuildConfig{
		ClusterCount:  cfg.ClusterCount,
		Seed:          cfg.Seed,
		MaxIterations: cfg.MaxIterations,
		Labeler:       cfg.Labeler,
	})
	if err != nil {
		return "", fmt.Errorf("pipeline cluster: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := taxonomy.Save(cfg.OutPath, tax); err != nil {
		return "", fmt.Errorf("pipeline publish: %w", err)
	}

	slog.Info("taxonomy published",
		"path", cfg.OutPath,
		"entries", len(tax.Entries),
		"build_id", tax.Provenance.BuildID,
		"duration", time.Since(start),
	)
	return cfg.OutPath, nil
}
