// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markup

import (
	"strings"
)

// BlockKind names the structural kinds kept in a Tree.
type BlockKind string

const (
	KindHeading   BlockKind = "heading"
	KindParagraph BlockKind = "paragraph"
	KindTable     BlockKind = "table"
	KindList      BlockKind = "list"
	KindFence     BlockKind = "fence"
)

// Block records one top-level block in document order. Index is the
// position of the block within the slice of its kind.
type Block struct {
	Kind  BlockKind
	Index int
}

// Heading is an ATX or setext heading.
type Heading struct {
	Level int
	Text  string
}

// Paragraph is a top-level paragraph. Text holds the full inline text with
// line breaks rendered as "\n". Segments holds the text runs between code
// spans; Codes and Links hold the code-span values and link destinations.
type Paragraph struct {
	Text     string
	Segments []string
	Codes    []string
	Links    []string
}

// Lines splits the paragraph text on line breaks.
func (p Paragraph) Lines() []string {
	return strings.Split(p.Text, "\n")
}

// Cell is one table cell.
type Cell struct {
	Text  string
	Codes []string
	Links []string
}

// Empty reports whether the cell holds no text.
func (c Cell) Empty() bool {
	return strings.TrimSpace(c.Text) == ""
}

// Table is a GFM table: the header cells and the body rows.
type Table struct {
	Header []Cell
	Rows   [][]Cell
}

// ListItem is one item of a list: an optional bold lead-in followed by the
// rest of the item's first line of text.
type ListItem struct {
	Lead string
	Rest string
}

// String joins the lead-in and the rest.
func (i ListItem) String() string {
	return i.Lead + i.Rest
}

// List is a top-level list.
type List struct {
	Ordered bool
	Items   []ListItem
}

// Fence is a fenced or indented code block.
type Fence struct {
	Info string
	Text string
}

// Lines splits the fence text on newlines.
func (f Fence) Lines() []string {
	return strings.Split(f.Text, "\n")
}

// FrontMatter holds the page metadata keys the pipeline looks at.
type FrontMatter struct {
	Title  string `yaml:"title"`
	Parent string `yaml:"parent"`
}

// Tree is the ordered, structural rendering of one markdown document.
// Only top-level blocks are indexed; content nested in lists or quotes
// does not appear among the paragraphs.
type Tree struct {
	FrontMatter FrontMatter
	Blocks      []Block
	Headings    []Heading
	Paragraphs  []Paragraph
	Tables      []Table
	Lists       []List
	Fences      []Fence
}

// Title returns the text of the first level-1 heading.
func (t *Tree) Title() (string, bool) {
	for _, h := range t.Headings {
		if h.Level == 1 {
			return h.Text, true
		}
	}
	return "", false
}

// Paragraph returns the i-th paragraph (zero-based).
func (t *Tree) Paragraph(i int) (Paragraph, bool) {
	if i < 0 || i >= len(t.Paragraphs) {
		return Paragraph{}, false
	}
	return t.Paragraphs[i], true
}

// Table returns the i-th table (zero-based).
func (t *Tree) Table(i int) (Table, bool) {
	if i < 0 || i >= len(t.Tables) {
		return Table{}, false
	}
	return t.Tables[i], true
}

// List returns the i-th list (zero-based).
func (t *Tree) List(i int) (List, bool) {
	if i < 0 || i >= len(t.Lists) {
		return List{}, false
	}
	return t.Lists[i], true
}

// Fence returns the i-th code block (zero-based).
func (t *Tree) Fence(i int) (Fence, bool) {
	if i < 0 || i >= len(t.Fences) {
		return Fence{}, false
	}
	return t.Fences[i], true
}

// HasTable reports whether the document contains a table.
func (t *Tree) HasTable() bool { return len(t.Tables) > 0 }

// HasList reports whether the document contains an unordered list.
func (t *Tree) HasList() bool {
	for _, l := range t.Lists {
		if !l.Ordered {
			return true
		}
	}
	return false
}

// FirstUnorderedList returns the first unordered list.
func (t *Tree) FirstUnorderedList() (List, bool) {
	for _, l := range t.Lists {
		if !l.Ordered {
			return l, true
		}
	}
	return List{}, false
}

// StripEmphasis removes a single leading "*" emphasis marker.
func StripEmphasis(line string) string {
	return strings.TrimPrefix(line, "*")
}
