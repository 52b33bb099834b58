package main

import (
	"github.com/spf13/cobra"

	"github.com/crimson-sun/covenant/internal/engine/taxonomy"
	"github.com/crimson-sun/covenant/internal/output/pretty"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print the entries of a taxonomy artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tax, err := taxonomy.Load(a.cfg.TaxonomyPath)
			if err != nil {
				return err
			}
			return pretty.NewWriter(cmd.OutOrStdout(), pretty.DefaultTheme()).Taxonomy(tax)
		},
	}
}
