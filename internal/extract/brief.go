// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"

	"github.com/pdiddy/atrm-graph/internal/ident"
	"github.com/pdiddy/atrm-graph/internal/markup"
	"github.com/pdiddy/atrm-graph/pkg/types"
)

// Technique table columns on a tactic overview page.
const (
	colID = iota
	colSubID
	colName
	colBrief
	briefColumns
)

// BuildBriefIndex scans the first table of a tactic overview page and
// returns brief metadata keyed by normalized technique id.
//
// A row with a non-empty first cell starts a top-level technique; a row
// with an empty first cell continues the most recent technique with the
// sub-technique suffix in the second cell.
func BuildBriefIndex(tree *markup.Tree, tactic types.Tactic) (types.BriefIndex, error) {
	tbl, ok := tree.Table(0)
	if !ok {
		return nil, fmt.Errorf("%w: tactic %s has no technique table", ErrUnexpectedTableShape, tactic.Key)
	}

	index := make(types.BriefIndex, len(tbl.Rows))
	parent := ""

	for i, row := range tbl.Rows {
		if len(row) < briefColumns {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d",
				ErrUnexpectedTableShape, i+1, len(row), briefColumns)
		}

		var id string
		switch {
		case !row[colID].Empty():
			parent = ident.FixID(row[colID].Text)
			id = parent
		case row[colSubID].Empty():
			return nil, fmt.Errorf("%w: row %d has neither a technique nor a sub-technique id",
				ErrUnexpectedTableShape, i+1)
		case parent == "":
			return nil, fmt.Errorf("%w: row %d continues a technique before any technique row",
				ErrUnexpectedTableShape, i+1)
		default:
			id = ident.JoinSubID(parent, row[colSubID].Text)
		}

		index[id] = types.BriefInfo{
			ID:             id,
			ParentID:       parent,
			Name:           row[colName].Text,
			Brief:          row[colBrief].Text,
			URL:            fmt.Sprintf("%s/%s/%s/%s", types.BaseURL, tactic.Key, parent, ident.URLSlug(id)),
			PhaseName:      tactic.ShortName,
			IsSubtechnique: parent != id,
		}
	}

	return index, nil
}
