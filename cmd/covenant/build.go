package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/covenant/internal/engine/embedder"
	"github.com/crimson-sun/covenant/internal/pipeline"
	"github.com/crimson-sun/covenant/internal/store/embedcache"
)

func newBuildCmd(a *app) *cobra.Command {
	var (
		corpusPath string
		clusters   int
		seed       uint64
		outPath    string
		cachePath  string
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Cluster a labeled clause corpus into a risk taxonomy",
		Long: `Embeds every clause of a CUAD-format corpus, clusters the embeddings
with k-means and writes the labeled taxonomy artifact. The same corpus,
model, cluster count and seed always produce the same artifact.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := &a.cfg
			fs := cmd.Flags()
			if fs.Changed("corpus") {
				cfg.CorpusPath = corpusPath
			}
			if fs.Changed("clusters") {
				cfg.ClusterCount = clusters
			}
			if fs.Changed("seed") {
				cfg.Seed = seed
			}
			if fs.Changed("out") {
				cfg.TaxonomyPath = outPath
			}
			if fs.Changed("cache") {
				cfg.CachePath = cachePath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			rules, err := a.rules()
			if err != nil {
				return err
			}
			emb, err := a.newEmbedder(false)
			if err != nil {
				return err
			}
			defer emb.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var cache embedder.Cache
			if cfg.CachePath != "" {
				store, err := embedcache.Open(cfg.CachePath)
				if err != nil {
					return err
				}
				defer store.Close()
				n, err := store.Count(ctx, emb.ModelID())
				if err != nil {
					return err
				}
				slog.Info("embedding cache opened", "path", store.Path(), "cached", n)
				cache = store
			}

			slog.Info("building taxonomy",
				"corpus", cfg.CorpusPath,
				"clusters", cfg.ClusterCount,
				"seed", cfg.Seed,
				"model", emb.ModelID(),
			)
			path, err := pipeline.Build(ctx, pipeline.BuildConfig{
				CorpusPath:    cfg.CorpusPath,
				OutPath:       cfg.TaxonomyPath,
				ClusterCount:  cfg.ClusterCount,
				Seed:          cfg.Seed,
				MaxIterations: cfg.MaxIterations,
				Embedder:      emb,
				Cache:         cache,
				BatchSize:     cfg.EmbedBatchSize,
				Workers:       cfg.EmbedWorkers,
				Rules:         rules,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "taxonomy written to %s\n", path)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&corpusPath, "corpus", "", "CUAD JSON corpus")
	f.IntVarP(&clusters, "clusters", "k", 0, "number of clusters")
	f.Uint64Var(&seed, "seed", 0, "k-means seed")
	f.StringVarP(&outPath, "out", "o", "", "artifact output path")
	f.StringVar(&cachePath, "cache", "", "sqlite embedding cache")
	return cmd
}
