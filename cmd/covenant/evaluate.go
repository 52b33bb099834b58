package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/covenant/internal/engine"
	"github.com/crimson-sun/covenant/internal/engine/taxonomy"
	"github.com/crimson-sun/covenant/internal/metrics"
	"github.com/crimson-sun/covenant/internal/output"
	"github.com/crimson-sun/covenant/internal/output/pretty"
	"github.com/crimson-sun/covenant/internal/output/stdout"
)

func newEvaluateCmd(a *app) *cobra.Command {
	var (
		asJSON      bool
		showMetrics bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate [FILE|-]",
		Short: "Score the clauses of a contract",
		Long: `Reads contract text from FILE, or from stdin when FILE is "-" or omitted,
and prints each clause with its matched category and risk level followed by
the overall risk.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			rules, err := a.rules()
			if err != nil {
				return err
			}
			emb, err := a.newEmbedder(true)
			if err != nil {
				return err
			}
			var tax *taxonomy.Taxonomy
			if emb != nil {
				defer emb.Close()
				if tax, err = taxonomy.Load(a.cfg.TaxonomyPath); err != nil {
					return err
				}
			}

			var mgr *metrics.Manager
			if showMetrics {
				mgr = metrics.NewManager()
			}
			eng, err := engine.New(engine.Config{
				Embedder: emb,
				Taxonomy: tax,
				Rules:    rules,
				Metrics:  mgr,
			})
			if err != nil {
				return err
			}

			ev, err := eng.Evaluate(text)
			if err != nil {
				return err
			}

			var out output.Output
			if asJSON {
				out = stdout.NewWriter(cmd.OutOrStdout(), true)
			} else {
				out = pretty.NewWriter(cmd.OutOrStdout(), pretty.DefaultTheme())
			}
			defer out.Close()
			if err := out.Write(cmd.Context(), ev); err != nil {
				return err
			}
			if showMetrics {
				return mgr.WriteText(cmd.OutOrStdout())
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&asJSON, "json", false, "print the evaluation as JSON")
	f.BoolVar(&showMetrics, "metrics", false, "print Prometheus metrics after the result")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(data), nil
}
