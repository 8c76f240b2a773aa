// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is one technique as written to an export file.
type ExportEntry struct {
	Mode          string   `json:"mode" yaml:"mode"`
	ID            string   `json:"id" yaml:"id"`
	ParentID      string   `json:"parent_id" yaml:"parent_id"`
	Name          string   `json:"name" yaml:"name"`
	Tactic        string   `json:"tactic" yaml:"tactic"`
	Brief         string   `json:"brief,omitempty" yaml:"brief,omitempty"`
	Description   string   `json:"description" yaml:"description"`
	Resources     []string `json:"resources,omitempty" yaml:"resources,omitempty"`
	Actions       []string `json:"actions,omitempty" yaml:"actions,omitempty"`
	SubTechniques []string `json:"subtechniques,omitempty" yaml:"subtechniques,omitempty"`
	URL           string   `json:"url,omitempty" yaml:"url,omitempty"`
}

const exportLimit = 100000

// ExportYAML writes matching techniques to export.yaml next to the
// database and returns the file path.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes matching techniques to export.json next to the
// database and returns the file path.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, "export.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	results, err := s.Query(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(results))
	for i, r := range results {
		t := r.Technique
		entries[i] = ExportEntry{
			Mode:          string(r.Mode),
			ID:            t.ID,
			ParentID:      t.ParentID,
			Name:          t.Name,
			Tactic:        t.TacticShortName,
			Brief:         t.Brief,
			Description:   t.Description,
			Resources:     t.Resources,
			Actions:       t.Actions,
			SubTechniques: r.SubTechniques,
		}
		if len(t.References) > 0 {
			entries[i].URL = t.References[0].URL
		}
	}
	return entries, nil
}
