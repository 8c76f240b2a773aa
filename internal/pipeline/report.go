// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/atrm-graph/pkg/types"
)

// Failure is one skipped page.
type Failure struct {
	Path  string `yaml:"path" json:"path"`
	Error string `yaml:"error" json:"error"`
}

// Summary holds the counts of one run.
type Summary struct {
	Mode          types.Mode `yaml:"mode" json:"mode"`
	Tactics       int        `yaml:"tactics" json:"tactics"`
	Techniques    int        `yaml:"techniques" json:"techniques"`
	Relationships int        `yaml:"relationships" json:"relationships"`
	Failures      []Failure  `yaml:"failures,omitempty" json:"failures,omitempty"`
}

// Total returns the number of technique pages processed.
func (s Summary) Total() int {
	return s.Techniques + len(s.Failures)
}

// HasFailures reports whether any page was skipped.
func (s Summary) HasFailures() bool {
	return len(s.Failures) > 0
}

// WriteReport writes s as YAML to path, creating parent directories.
func WriteReport(fs afero.Fs, path string, s Summary) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}
