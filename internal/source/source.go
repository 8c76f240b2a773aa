// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source reads the ATRM docs tree. Each tactic has a directory
// named after its key holding one overview page and one sub-directory per
// technique with that technique's pages.
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/pdiddy/atrm-graph/pkg/types"
)

// ErrNoOverview is returned when a tactic directory holds no page.
var ErrNoOverview = errors.New("tactic has no overview page")

const pageExt = ".md"

// FS reads pages from a docs tree on an afero file system.
type FS struct {
	fs   afero.Fs
	root string
}

// New returns a source rooted at root.
func New(fs afero.Fs, root string) *FS {
	return &FS{fs: fs, root: root}
}

// Tactic loads the overview page and every technique page of def. Pages
// are returned in name order so runs over the same tree are identical.
func (s *FS) Tactic(ctx context.Context, def types.TacticDef) (types.TacticDocuments, error) {
	dir := filepath.Join(s.root, def.Key)
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return types.TacticDocuments{}, fmt.Errorf("reading tactic directory %s: %w", dir, err)
	}

	docs := types.TacticDocuments{Def: def}
	var overview string
	var subdirs []string

	for _, e := range entries {
		switch {
		case e.IsDir():
			subdirs = append(subdirs, e.Name())
		case isPage(e.Name()):
			if overview == "" || e.Name() == def.Key+pageExt {
				overview = e.Name()
			}
		}
	}
	if overview == "" {
		return types.TacticDocuments{}, fmt.Errorf("%w: %s", ErrNoOverview, dir)
	}

	docs.Overview, err = s.read(filepath.Join(dir, overview))
	if err != nil {
		return types.TacticDocuments{}, err
	}

	for _, sub := range subdirs {
		if err := ctx.Err(); err != nil {
			return types.TacticDocuments{}, err
		}
		pages, err := s.pages(filepath.Join(dir, sub))
		if err != nil {
			return types.TacticDocuments{}, err
		}
		docs.Techniques = append(docs.Techniques, pages...)
	}

	return docs, nil
}

func (s *FS) pages(dir string) ([]types.Document, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("reading technique directory %s: %w", dir, err)
	}
	var docs []types.Document
	for _, e := range entries {
		if e.IsDir() || !isPage(e.Name()) {
			continue
		}
		doc, err := s.read(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *FS) read(path string) (types.Document, error) {
	raw, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return types.Document{}, fmt.Errorf("reading page %s: %w", path, err)
	}
	return types.Document{Path: path, Raw: raw}, nil
}

func isPage(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), pageExt) && !strings.HasPrefix(name, ".")
}
