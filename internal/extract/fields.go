// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/atrm-graph/internal/markup"
)

// notApplicable is the authoring marker for an intentionally empty field.
const notApplicable = "n/a"

// placeholderMarker flags an unfinished description.
const placeholderMarker = "!!!"

// markdownLink is greedy on both sides: the label may hold brackets and the
// destination runs to the last ")" on the line.
var (
	markdownLink = regexp.MustCompile(`^\[.*\]\((.*)\)`)
	bareURL      = regexp.MustCompile(`^(https?://\S+)`)
)

// SplitValues turns raw block lines into field values: one leading "*" is
// stripped, whitespace trimmed, and blank or "n/a" lines are dropped. The
// result is never nil.
func SplitValues(lines []string) []string {
	values := []string{}
	for _, line := range lines {
		v := strings.TrimSpace(markup.StripEmphasis(line))
		if v == "" || strings.EqualFold(v, notApplicable) {
			continue
		}
		values = append(values, v)
	}
	return values
}

// ExtractLinks returns one URL per line that starts with a markdown link or
// a bare http(s) URL, in that priority. Other lines are dropped.
func ExtractLinks(lines []string) []string {
	var links []string
	for _, line := range lines {
		if m := markdownLink.FindStringSubmatch(line); m != nil {
			if dest := linkDestination(m[1]); dest != "" {
				links = append(links, dest)
			}
			continue
		}
		if m := bareURL.FindStringSubmatch(line); m != nil {
			links = append(links, m[1])
		}
	}
	return links
}

// linkDestination drops an optional title from a captured destination and
// any ")" the greedy match took beyond the balanced ones, so that
// "x(v=ws.11)" is kept whole and "a) see (b" ends at "a".
func linkDestination(raw string) string {
	dest := strings.TrimSpace(raw)
	if i := strings.IndexAny(dest, " \t"); i >= 0 {
		dest = dest[:i]
	}
	for strings.HasSuffix(dest, ")") && strings.Count(dest, ")") > strings.Count(dest, "(") {
		dest = dest[:len(dest)-1]
	}
	return dest
}

// fenceValues reads the i-th code block as a list of values. Nil when the
// block is absent.
func fenceValues(tree *markup.Tree, i int) []string {
	f, ok := tree.Fence(i)
	if !ok {
		return nil
	}
	return SplitValues(f.Lines())
}

// fenceText reads the i-th code block as a single value. Nil when the block
// is absent or marked "n/a".
func fenceText(tree *markup.Tree, i int) []string {
	f, ok := tree.Fence(i)
	if !ok || strings.EqualFold(strings.TrimSpace(f.Text), notApplicable) {
		return nil
	}
	return []string{f.Text}
}

// paragraphValues reads the i-th paragraph as a list of values, skipping
// its first line (the field label). Paragraph-held fields are mandatory.
func paragraphValues(tree *markup.Tree, i int, field string) ([]string, error) {
	p, ok := tree.Paragraph(i)
	if !ok {
		return nil, fmt.Errorf("%w: no %s paragraph (paragraph %d)", ErrUnexpectedPageShape, field, i)
	}
	lines := p.Lines()
	return SplitValues(lines[1:]), nil
}
