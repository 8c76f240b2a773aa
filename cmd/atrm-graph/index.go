package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pdiddy/atrm-graph/internal/pipeline"
	"github.com/pdiddy/atrm-graph/internal/store"
	"github.com/pdiddy/atrm-graph/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Extract the matrix into the local SQLite index",
	Long: `Index runs the same extraction as build and replaces each mode's rows in
the SQLite index (--db). Re-running is safe: a mode is swapped in a single
transaction.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	failed, err := eachGraph(ctx, cfg.Build, afero.NewOsFs(), out, func(mode types.Mode, g *types.Graph, _ pipeline.Summary) error {
		_, err := s.Index(ctx, g, out)
		return err
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d page(s) skipped\n", failed)
	}
	return nil
}
