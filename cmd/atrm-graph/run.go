// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/pdiddy/atrm-graph/internal/pipeline"
	"github.com/pdiddy/atrm-graph/internal/source"
	"github.com/pdiddy/atrm-graph/internal/vcs"
	"github.com/pdiddy/atrm-graph/pkg/types"
)

// graphFunc receives each mode's graph as it is built.
type graphFunc func(mode types.Mode, g *types.Graph, summary pipeline.Summary) error

// eachGraph runs the extraction pipeline once per configured mode and hands
// every graph to fn. It returns the total number of skipped pages.
func eachGraph(ctx context.Context, cfg types.BuildConfig, fs afero.Fs, w io.Writer, fn graphFunc) (int, error) {
	ts, err := vcs.New(cfg.Timestamps, cfg.RepoDir, fs)
	if err != nil {
		return 0, err
	}
	src := source.New(fs, cfg.DocsDir)

	failed := 0
	for _, mode := range cfg.Modes {
		opts := pipeline.Options{Mode: mode, SkipMalformed: cfg.SkipMalformed}
		g, summary, err := pipeline.Run(ctx, opts, src, ts, w)
		if err != nil {
			return failed, fmt.Errorf("%s: %w", mode, err)
		}
		failed += len(summary.Failures)
		if err := fn(mode, g, summary); err != nil {
			return failed, fmt.Errorf("%s: %w", mode, err)
		}
	}
	return failed, nil
}
