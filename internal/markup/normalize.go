// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markup renders ATRM markdown pages into an ordered tree of
// block elements (headings, paragraphs, tables, lists, code blocks).
// It knows nothing about page shapes.
package markup

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// ErrMalformedDocument is returned when no tree can be produced at all.
var ErrMalformedDocument = errors.New("malformed document")

// engine parses GitHub-flavoured markdown. goldmark parsers hold no
// per-document state, so one engine serves every call.
var engine = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Normalize parses raw markdown, with optional front matter, into a Tree.
// Missing optional elements never fail; only undecodable input does.
func Normalize(raw []byte) (*Tree, error) {
	var fm FrontMatter
	body := raw
	if hasFrontMatter(raw) {
		var err error
		body, err = frontmatter.Parse(bytes.NewReader(raw), &fm)
		if err != nil {
			return nil, fmt.Errorf("%w: front matter: %v", ErrMalformedDocument, err)
		}
	}

	doc := engine.Parser().Parse(text.NewReader(body))
	if doc == nil {
		return nil, fmt.Errorf("%w: parser returned no document", ErrMalformedDocument)
	}

	tree := &Tree{FrontMatter: fm}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		tree.add(n, body)
	}
	return tree, nil
}

func hasFrontMatter(raw []byte) bool {
	return bytes.HasPrefix(raw, []byte("---")) || bytes.HasPrefix(raw, []byte("+++"))
}

func (t *Tree) add(n ast.Node, src []byte) {
	switch node := n.(type) {
	case *ast.Heading:
		in := collectInline(node, src)
		t.Blocks = append(t.Blocks, Block{Kind: KindHeading, Index: len(t.Headings)})
		t.Headings = append(t.Headings, Heading{Level: node.Level, Text: in.text()})

	case *ast.Paragraph, *ast.TextBlock:
		in := collectInline(node, src)
		t.Blocks = append(t.Blocks, Block{Kind: KindParagraph, Index: len(t.Paragraphs)})
		t.Paragraphs = append(t.Paragraphs, Paragraph{
			Text:     in.text(),
			Segments: in.segments(),
			Codes:    in.codes,
			Links:    in.links,
		})

	case *east.Table:
		t.Blocks = append(t.Blocks, Block{Kind: KindTable, Index: len(t.Tables)})
		t.Tables = append(t.Tables, buildTable(node, src))

	case *ast.List:
		t.Blocks = append(t.Blocks, Block{Kind: KindList, Index: len(t.Lists)})
		t.Lists = append(t.Lists, buildList(node, src))

	case *ast.FencedCodeBlock:
		info := ""
		if node.Info != nil {
			info = strings.TrimSpace(string(node.Info.Segment.Value(src)))
		}
		t.Blocks = append(t.Blocks, Block{Kind: KindFence, Index: len(t.Fences)})
		t.Fences = append(t.Fences, Fence{Info: info, Text: blockLines(node, src)})

	case *ast.CodeBlock:
		t.Blocks = append(t.Blocks, Block{Kind: KindFence, Index: len(t.Fences)})
		t.Fences = append(t.Fences, Fence{Text: blockLines(node, src)})
	}
}

func buildTable(node *east.Table, src []byte) Table {
	var tbl Table
	for row := node.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []Cell
		for c := row.FirstChild(); c != nil; c = c.NextSibling() {
			if _, ok := c.(*east.TableCell); !ok {
				continue
			}
			in := collectInline(c, src)
			cells = append(cells, Cell{Text: in.text(), Codes: in.codes, Links: in.links})
		}
		switch row.(type) {
		case *east.TableHeader:
			tbl.Header = cells
		case *east.TableRow:
			tbl.Rows = append(tbl.Rows, cells)
		}
	}
	return tbl
}

func buildList(node *ast.List, src []byte) List {
	list := List{Ordered: node.IsOrdered()}
	for item := node.FirstChild(); item != nil; item = item.NextSibling() {
		if _, ok := item.(*ast.ListItem); !ok {
			continue
		}
		list.Items = append(list.Items, buildListItem(item, src))
	}
	return list
}

// buildListItem reads the first text block of an item. A leading strong
// emphasis becomes the lead-in; nested lists are ignored.
func buildListItem(item ast.Node, src []byte) ListItem {
	var first ast.Node
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		switch c.(type) {
		case *ast.TextBlock, *ast.Paragraph:
			first = c
		}
		if first != nil {
			break
		}
	}
	if first == nil {
		return ListItem{}
	}

	lead := ""
	restStart := first.FirstChild()
	if em, ok := restStart.(*ast.Emphasis); ok && em.Level == 2 {
		lead = collectInline(em, src).text()
		restStart = em.NextSibling()
	}

	rest := &inline{}
	for c := restStart; c != nil; c = c.NextSibling() {
		rest.walk(c, src)
	}
	return ListItem{Lead: lead, Rest: strings.TrimRight(rest.buf.String(), " \t\n")}
}

// blockLines concatenates the raw lines of a code block without the
// trailing newline.
func blockLines(n ast.Node, src []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return strings.TrimRight(b.String(), "\n")
}

// inline accumulates the text of an inline subtree.
type inline struct {
	buf   strings.Builder
	runs  []string
	run   strings.Builder
	codes []string
	links []string
}

func collectInline(n ast.Node, src []byte) *inline {
	in := &inline{}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		in.walk(c, src)
	}
	return in
}

func (in *inline) write(s string) {
	in.buf.WriteString(s)
	in.run.WriteString(s)
}

func (in *inline) endRun() {
	if s := strings.TrimSpace(in.run.String()); s != "" {
		in.runs = append(in.runs, s)
	}
	in.run.Reset()
}

func (in *inline) walk(n ast.Node, src []byte) {
	switch node := n.(type) {
	case *ast.Text:
		in.write(string(node.Segment.Value(src)))
		if node.SoftLineBreak() || node.HardLineBreak() {
			in.write("\n")
		}
	case *ast.String:
		in.write(string(node.Value))
	case *ast.CodeSpan:
		code := collectInline(node, src).buf.String()
		in.endRun()
		in.codes = append(in.codes, code)
		in.buf.WriteString(code)
	case *ast.Link:
		in.links = append(in.links, string(node.Destination))
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			in.walk(c, src)
		}
	case *ast.AutoLink:
		url := string(node.URL(src))
		in.links = append(in.links, url)
		in.write(url)
	case *ast.RawHTML:
		var raw strings.Builder
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			raw.Write(seg.Value(src))
		}
		if strings.HasPrefix(strings.ToLower(raw.String()), "<br") {
			in.write("\n")
		}
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			in.walk(c, src)
		}
	}
}

// text returns the accumulated text with per-line trailing blanks removed.
func (in *inline) text() string {
	lines := strings.Split(in.buf.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// segments returns the text runs split by code spans.
func (in *inline) segments() []string {
	in.endRun()
	return in.runs
}
