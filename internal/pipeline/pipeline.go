// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives one extraction run: for each tactic in the fixed
// table it reads the overview page, builds the brief index and extracts
// every technique page, then assembles and validates the graph.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/atrm-graph/internal/extract"
	"github.com/pdiddy/atrm-graph/internal/graph"
	"github.com/pdiddy/atrm-graph/internal/markup"
	"github.com/pdiddy/atrm-graph/pkg/types"
)

// Source supplies the pages of a tactic.
type Source interface {
	Tactic(ctx context.Context, def types.TacticDef) (types.TacticDocuments, error)
}

// Timestamps supplies the creation and modification time of a page.
type Timestamps interface {
	Times(ctx context.Context, path string) (created, modified time.Time, err error)
}

// Options controls one run.
type Options struct {
	Mode types.Mode

	// SkipMalformed records page-level failures and keeps going instead of
	// aborting on the first one.
	SkipMalformed bool

	// Tactics overrides the fixed tactic table. Nil means types.Tactics.
	Tactics []types.TacticDef
}

// Run extracts the graph for opts.Mode. Progress lines go to w. Tactic
// failures, timestamp failures and integrity violations always abort the
// run; page-level failures abort it unless opts.SkipMalformed is set.
func Run(ctx context.Context, opts Options, src Source, ts Timestamps, w io.Writer) (*types.Graph, Summary, error) {
	summary := Summary{Mode: opts.Mode}
	if _, err := opts.Mode.Vocabulary(); err != nil {
		return nil, summary, err
	}

	defs := opts.Tactics
	if defs == nil {
		defs = types.Tactics
	}

	asm := graph.New(opts.Mode)

	for _, def := range defs {
		if err := ctx.Err(); err != nil {
			return nil, summary, err
		}

		docs, err := src.Tactic(ctx, def)
		if err != nil {
			return nil, summary, fmt.Errorf("loading tactic %s: %w", def.Key, err)
		}

		tactic, index, err := readTactic(ctx, def, docs.Overview, ts)
		if err != nil {
			return nil, summary, fmt.Errorf("tactic %s: %w", def.Key, err)
		}
		asm.AddTactic(tactic)
		fmt.Fprintf(w, "tactic  %s %s (%d indexed)\n", tactic.ExternalID, tactic.Name, len(index))

		for _, doc := range docs.Techniques {
			if err := ctx.Err(); err != nil {
				return nil, summary, err
			}

			tech, rel, err := readTechnique(ctx, doc, tactic, index, opts.Mode, ts)
			if err == nil {
				err = asm.AddTechnique(tech, rel)
			}
			if err != nil {
				if !opts.SkipMalformed || !IsPageError(err) {
					return nil, summary, err
				}
				fmt.Fprintf(w, "failed  %s: %v\n", doc.Path, err)
				summary.Failures = append(summary.Failures, Failure{Path: doc.Path, Error: err.Error()})
				continue
			}
			fmt.Fprintf(w, "parsed  %s %s\n", tech.ID, tech.Name)
		}
	}

	g, err := asm.Graph()
	if err != nil {
		return nil, summary, err
	}

	summary.Tactics = len(g.Tactics)
	summary.Techniques = len(g.Techniques)
	summary.Relationships = len(g.Relationships)

	fmt.Fprintf(w, "built %s graph: %d tactics, %d techniques, %d relationships, %d failed\n",
		opts.Mode, summary.Tactics, summary.Techniques, summary.Relationships, len(summary.Failures))

	return g, summary, nil
}

// IsPageError reports whether err concerns a single page and may be
// skipped.
func IsPageError(err error) bool {
	return errors.Is(err, extract.ErrUnexpectedPageShape) ||
		errors.Is(err, extract.ErrUnexpectedTableShape) ||
		errors.Is(err, markup.ErrMalformedDocument) ||
		errors.Is(err, graph.ErrTechniqueCollision)
}

func readTactic(ctx context.Context, def types.TacticDef, doc types.Document, ts Timestamps) (types.Tactic, types.BriefIndex, error) {
	tree, err := markup.Normalize(doc.Raw)
	if err != nil {
		return types.Tactic{}, nil, fmt.Errorf("%s: %w", doc.Path, err)
	}

	created, modified, err := ts.Times(ctx, doc.Path)
	if err != nil {
		return types.Tactic{}, nil, fmt.Errorf("timestamps for %s: %w", doc.Path, err)
	}

	tactic, err := extract.ExtractTactic(tree, def, doc.Path, created, modified)
	if err != nil {
		return types.Tactic{}, nil, err
	}

	index, err := extract.BuildBriefIndex(tree, tactic)
	if err != nil {
		return types.Tactic{}, nil, fmt.Errorf("%s: %w", doc.Path, err)
	}
	return tactic, index, nil
}

func readTechnique(ctx context.Context, doc types.Document, tactic types.Tactic, index types.BriefIndex, mode types.Mode, ts Timestamps) (types.Technique, *types.Relationship, error) {
	tree, err := markup.Normalize(doc.Raw)
	if err != nil {
		return types.Technique{}, nil, &extract.PageError{Path: doc.Path, Err: err}
	}

	created, modified, err := ts.Times(ctx, doc.Path)
	if err != nil {
		return types.Technique{}, nil, fmt.Errorf("timestamps for %s: %w", doc.Path, err)
	}

	page := extract.Page{Path: doc.Path, Tree: tree, Created: created, Modified: modified}
	return extract.ExtractTechnique(page, tactic.Key, index, tactic.ShortName, mode)
}
