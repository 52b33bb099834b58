package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/covenant/internal/config"
	"github.com/crimson-sun/covenant/internal/engine/embedder"
	"github.com/crimson-sun/covenant/internal/engine/keywords"
	"github.com/crimson-sun/covenant/internal/logging"
	"github.com/crimson-sun/covenant/internal/model"
)

// app carries the resolved configuration from the root command to its
// subcommands.
type app struct {
	cfg config.Config

	taxonomyPath string
	modelDir     string
	embedder     string
	rulesPath    string
	logLevel     string
	logJSON      bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "covenant",
		Short: "Classify contract clauses by risk",
		Long: `covenant splits contract text into clauses and scores each one against a
risk taxonomy clustered from a labeled clause corpus (CUAD). Without an
embedding model it falls back to keyword rules.

Settings come from COVENANT_* environment variables, a YAML file named by
COVENANT_CONFIG and a .env file in the working directory. Flags win.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.taxonomyPath, "taxonomy", "", "taxonomy artifact path")
	pf.StringVar(&a.modelDir, "model-dir", "", "directory holding model.onnx and vocab.txt")
	pf.StringVar(&a.embedder, "embedder", "", "embedder: onnx or hashing")
	pf.StringVar(&a.rulesPath, "rules", "", "YAML keyword rules replacing the built-in table")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&a.logJSON, "log-json", false, "emit JSON logs on stderr")

	root.AddCommand(newBuildCmd(a), newEvaluateCmd(a), newInspectCmd(a))
	return root
}

// setup loads configuration, applies flag overrides and installs the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := cmd.Flags()
	if fs.Changed("taxonomy") {
		cfg.TaxonomyPath = a.taxonomyPath
	}
	if fs.Changed("model-dir") {
		cfg.ModelDir = a.modelDir
	}
	if fs.Changed("embedder") {
		cfg.Embedder = a.embedder
	}
	if fs.Changed("rules") {
		cfg.RulesPath = a.rulesPath
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if fs.Changed("log-json") {
		cfg.LogJSON = a.logJSON
	}

	logging.Init(cfg.LogJSON, logging.ParseLevel(cfg.LogLevel))
	a.cfg = cfg
	return nil
}

func (a *app) rules() (*keywords.Table, error) {
	if a.cfg.RulesPath == "" {
		return keywords.Default(), nil
	}
	rules, err := keywords.LoadFile(a.cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrConfiguration, err)
	}
	return rules, nil
}

// newEmbedder returns nil without error when the ONNX model is missing and
// allowFallback is set.
func (a *app) newEmbedder(allowFallback bool) (embedder.Embedder, error) {
	if a.cfg.Embedder == config.EmbedderHashing {
		return embedder.NewHashing(a.cfg.HashingDim)
	}
	emb, err := embedder.NewONNX(embedder.ConfigFromDir(a.cfg.ModelDir, a.cfg.ModelID))
	if err != nil {
		if allowFallback && errors.Is(err, model.ErrModelUnavailable) {
			return nil, nil
		}
		return nil, err
	}
	return emb, nil
}
