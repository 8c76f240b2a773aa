// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns normalized ATRM pages into tactic and technique
// records. Technique pages come in three shapes; DetectShape picks one and
// a per-shape layout says which block holds which field.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/atrm-graph/internal/graph"
	"github.com/pdiddy/atrm-graph/internal/ident"
	"github.com/pdiddy/atrm-graph/internal/markup"
	"github.com/pdiddy/atrm-graph/pkg/types"
)

// headerSeparator splits "<id> - <title>" technique headings.
const headerSeparator = " - "

// Page is one technique document ready for extraction.
type Page struct {
	Path     string
	Tree     *markup.Tree
	Created  time.Time
	Modified time.Time
}

// ExtractTechnique builds the technique record for page. tacticKey is the
// tactic's directory key, index the tactic's brief index and tacticShort
// its short name. The relationship is non-nil exactly when the technique
// is a sub-technique.
func ExtractTechnique(page Page, tacticKey string, index types.BriefIndex, tacticShort string, mode types.Mode) (types.Technique, *types.Relationship, error) {
	vocab, err := mode.Vocabulary()
	if err != nil {
		return types.Technique{}, nil, err
	}

	id, headerName, err := parseHeader(page.Tree)
	if err != nil {
		return types.Technique{}, nil, pageErr(page.Path, err)
	}

	p, ok := page.Tree.Paragraph(0)
	if !ok {
		return types.Technique{}, nil, pageErr(page.Path,
			fmt.Errorf("%w: %s has no description paragraph", ErrUnexpectedPageShape, id))
	}
	description := paragraphText(p)

	info, ok := index[id]
	if !ok {
		info = types.BriefInfo{
			ID:       id,
			ParentID: ident.ParentOf(id),
			Name:     headerName,
			Brief:    description,
		}
	}

	shape := DetectShape(id, page.Tree)
	l := layouts[shape]

	if l.bulletTrailer {
		if list, ok := page.Tree.FirstUnorderedList(); ok {
			description += bulletTrailer(list)
		}
	}
	if strings.Contains(description, placeholderMarker) {
		description = info.Brief
	}

	f, err := l.read(page.Tree)
	if err != nil {
		return types.Technique{}, nil, pageErr(page.Path, fmt.Errorf("%s: %w", id, err))
	}

	refs := []types.ExternalReference{{
		SourceName: vocab.SourceName,
		ExternalID: info.ID,
		URL:        selfURL(tacticKey, info.ID, page.Path),
	}}
	for _, link := range f.links {
		refs = append(refs, types.ExternalReference{SourceName: types.LinkSourceName, URL: link})
	}

	t := types.Technique{
		ID:              info.ID,
		ParentID:        info.ParentID,
		Name:            info.Name,
		Description:     description,
		Brief:           info.Brief,
		Platforms:       []string{types.Platform},
		TacticShortName: tacticShort,
		KillChainPhases: []types.KillChainPhase{{
			KillChainName: vocab.KillChainName,
			PhaseName:     tacticShort,
		}},
		IsSubtechnique: info.ID != info.ParentID,
		Resources:      f.resources,
		Actions:        f.actions,
		Examples:       f.examples,
		Detections:     f.detections,
		References:     refs,
		Version:        types.TechniqueVersion,
		Created:        page.Created,
		Modified:       page.Modified,
		SourcePath:     page.Path,
	}

	return t, graph.InferRelationship(t), nil
}

// parseHeader reads the id and fallback name from the page's level-1
// heading. The name is whatever follows the last ":" of the title part.
func parseHeader(tree *markup.Tree) (id, name string, err error) {
	title, ok := tree.Title()
	if !ok {
		return "", "", fmt.Errorf("%w: no level-1 heading", ErrUnexpectedPageShape)
	}
	rawID, rest, ok := strings.Cut(title, headerSeparator)
	if !ok || strings.TrimSpace(rawID) == "" {
		return "", "", fmt.Errorf("%w: heading %q is not \"<id> - <title>\"", ErrUnexpectedPageShape, title)
	}
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		rest = rest[i+1:]
	}
	return ident.FixID(rawID), strings.TrimSpace(rest), nil
}

// paragraphText joins a paragraph's text runs with single spaces when code
// spans split it; code-span text is not part of a description.
func paragraphText(p markup.Paragraph) string {
	if len(p.Segments) > 1 {
		return strings.Join(p.Segments, " ")
	}
	return p.Text
}

func bulletTrailer(list markup.List) string {
	items := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		items = append(items, item.String())
	}
	return "\n- " + strings.Join(items, "\n- ")
}

// selfURL is the published page of a technique: the tactic key, the major
// id and the page's file stem.
func selfURL(tacticKey, id, path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return fmt.Sprintf("%s/%s/%s/%s", types.BaseURL, tacticKey, ident.ParentOf(id), stem)
}
