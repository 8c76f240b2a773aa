// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"github.com/pdiddy/atrm-graph/internal/ident"
	"github.com/pdiddy/atrm-graph/internal/markup"
)

// Shape names the layout a technique page was authored in.
type Shape string

const (
	// ShapeDetail is a sub-technique page whose fields sit in paragraphs
	// and whose description continues in a bullet list.
	ShapeDetail Shape = "detail"

	// ShapeFenced is a technique page whose fields sit in code blocks.
	ShapeFenced Shape = "fenced"

	// ShapeOverview is a parent technique page that lists its
	// sub-techniques in a table.
	ShapeOverview Shape = "overview"
)

// DetectShape classifies a technique page from its normalized id and
// block structure. It has no side effects.
func DetectShape(id string, tree *markup.Tree) Shape {
	switch {
	case tree.HasTable() && !ident.IsSubtechnique(id):
		return ShapeOverview
	case tree.HasList():
		return ShapeDetail
	default:
		return ShapeFenced
	}
}

// layout says where each field of a shape lives. Negative indexes mean
// the field is not read from a paragraph.
type layout struct {
	resourcesParagraph int
	actionsParagraph   int
	resourcesFence     int
	actionsFence       int
	examplesFence      int
	detectionsFence    int
	linksFence         int
	bulletTrailer      bool
}

var layouts = map[Shape]layout{
	ShapeDetail: {
		resourcesParagraph: 1, actionsParagraph: 2,
		resourcesFence: -1, actionsFence: -1,
		examplesFence: 0, detectionsFence: 1, linksFence: 2,
		bulletTrailer: true,
	},
	ShapeOverview: {
		resourcesParagraph: 1, actionsParagraph: 2,
		resourcesFence: -1, actionsFence: -1,
		examplesFence: 0, detectionsFence: 1, linksFence: 2,
	},
	ShapeFenced: {
		resourcesParagraph: -1, actionsParagraph: -1,
		resourcesFence: 0, actionsFence: 1,
		examplesFence: 2, detectionsFence: 3, linksFence: 4,
	},
}

// fields holds the raw field values read according to a layout.
type fields struct {
	resources  []string
	actions    []string
	examples   []string
	detections []string
	links      []string
}

// read pulls every field of the layout out of tree. Missing fences leave
// their field nil; a missing paragraph is an ErrUnexpectedPageShape.
func (l layout) read(tree *markup.Tree) (fields, error) {
	var (
		f   fields
		err error
	)
	if l.resourcesParagraph >= 0 {
		if f.resources, err = paragraphValues(tree, l.resourcesParagraph, "resources"); err != nil {
			return f, err
		}
		if f.actions, err = paragraphValues(tree, l.actionsParagraph, "actions"); err != nil {
			return f, err
		}
	} else {
		f.resources = fenceValues(tree, l.resourcesFence)
		f.actions = fenceValues(tree, l.actionsFence)
	}
	f.examples = fenceText(tree, l.examplesFence)
	f.detections = fenceText(tree, l.detectionsFence)
	f.links = ExtractLinks(fenceValues(tree, l.linksFence))
	return f, nil
}
