// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/atrm-graph/internal/ident"
	"github.com/pdiddy/atrm-graph/internal/markup"
	"github.com/pdiddy/atrm-graph/pkg/types"
)

// ExtractTactic builds the tactic record from its overview page. The name
// comes from the level-1 heading (front matter title as a fallback) and the
// description from the first paragraph.
func ExtractTactic(tree *markup.Tree, def types.TacticDef, path string, created, modified time.Time) (types.Tactic, error) {
	name, ok := tree.Title()
	if !ok {
		name = strings.TrimSpace(tree.FrontMatter.Title)
	}
	if name == "" {
		return types.Tactic{}, pageErr(path, fmt.Errorf("%w: tactic page has no title", ErrUnexpectedPageShape))
	}

	p, ok := tree.Paragraph(0)
	if !ok {
		return types.Tactic{}, pageErr(path, fmt.Errorf("%w: tactic page has no description", ErrUnexpectedPageShape))
	}

	return types.Tactic{
		ExternalID:  def.Code,
		Key:         def.Key,
		Name:        name,
		ShortName:   ShortName(name),
		Description: p.Text,
		URL:         fmt.Sprintf("%s/%s/%s", types.BaseURL, def.Key, def.Key),
		GraphID:     ident.TacticID(def.Code),
		Created:     created,
		Modified:    modified,
		SourcePath:  path,
	}, nil
}

// ShortName derives the kill-chain phase name from a display name
// ("Initial Access" -> "initial-access").
func ShortName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
}
