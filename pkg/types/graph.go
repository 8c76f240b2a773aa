// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Tactic is one top-level ATRM category. It is created once per run from
// its overview page and never mutated afterwards.
type Tactic struct {
	// ExternalID is the fixed tactic code (e.g. "AZTA200").
	ExternalID string `json:"external_id" yaml:"external_id"`

	// Key is the docs/ directory name (e.g. "InitialAccess").
	Key string `json:"key" yaml:"key"`

	// Name is the display name taken from the page heading.
	Name string `json:"name" yaml:"name"`

	// ShortName is Name lowercased with spaces replaced by hyphens
	// (e.g. "initial-access"). Techniques reference tactics by it.
	ShortName string `json:"short_name" yaml:"short_name"`

	// Description is the first paragraph of the overview page.
	Description string `json:"description" yaml:"description"`

	// URL is the canonical page on the published site.
	URL string `json:"url" yaml:"url"`

	// GraphID is the deterministic STIX id (x-mitre-tactic--<uuid>).
	GraphID string `json:"graph_id" yaml:"graph_id"`

	Created  time.Time `json:"created" yaml:"created"`
	Modified time.Time `json:"modified" yaml:"modified"`

	// SourcePath is the overview page the tactic was read from.
	SourcePath string `json:"source_path" yaml:"source_path"`
}

// BriefInfo is the short metadata scraped from one row of a tactic's
// technique table. It only lives while that tactic's pages are parsed.
type BriefInfo struct {
	ID             string `json:"id" yaml:"id"`
	ParentID       string `json:"parent_id" yaml:"parent_id"`
	Name           string `json:"name" yaml:"name"`
	Brief          string `json:"brief" yaml:"brief"`
	URL            string `json:"url" yaml:"url"`
	PhaseName      string `json:"phase_name" yaml:"phase_name"`
	IsSubtechnique bool   `json:"is_subtechnique" yaml:"is_subtechnique"`
}

// BriefIndex maps normalized technique ids to their brief metadata.
type BriefIndex map[string]BriefInfo

// KillChainPhase ties a technique to a tactic.
type KillChainPhase struct {
	KillChainName string `json:"kill_chain_name" yaml:"kill_chain_name"`
	PhaseName     string `json:"phase_name" yaml:"phase_name"`
}

// ExternalReference is a pointer from a record to an outside document.
// The canonical self reference carries ExternalID; extracted links do not.
type ExternalReference struct {
	SourceName string `json:"source_name" yaml:"source_name"`
	ExternalID string `json:"external_id,omitempty" yaml:"external_id,omitempty"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Technique is one technique or sub-technique page.
//
// Optional list fields use nil for "absent":
//   - Resources, Actions: nil when the block holding them is missing.
//     Lines equal to "n/a" are dropped, so a present block may yield an
//     empty, non-nil list.
//   - Examples, Detections: nil when the block is missing or is exactly
//     "n/a"; otherwise a single element holding the whole block text.
type Technique struct {
	ID              string              `json:"id" yaml:"id"`
	ParentID        string              `json:"parent_id" yaml:"parent_id"`
	Name            string              `json:"name" yaml:"name"`
	Description     string              `json:"description" yaml:"description"`
	Brief           string              `json:"brief" yaml:"brief"`
	Platforms       []string            `json:"platforms" yaml:"platforms"`
	TacticShortName string              `json:"tactic" yaml:"tactic"`
	KillChainPhases []KillChainPhase    `json:"kill_chain_phases" yaml:"kill_chain_phases"`
	IsSubtechnique  bool                `json:"is_subtechnique" yaml:"is_subtechnique"`
	Resources       []string            `json:"resources,omitempty" yaml:"resources,omitempty"`
	Actions         []string            `json:"actions,omitempty" yaml:"actions,omitempty"`
	Examples        []string            `json:"examples,omitempty" yaml:"examples,omitempty"`
	Detections      []string            `json:"detections,omitempty" yaml:"detections,omitempty"`
	References      []ExternalReference `json:"external_references" yaml:"external_references"`
	Version         string              `json:"version" yaml:"version"`
	Created         time.Time           `json:"created" yaml:"created"`
	Modified        time.Time           `json:"modified" yaml:"modified"`
	SourcePath      string              `json:"source_path" yaml:"source_path"`
}

// RelationSubtechniqueOf is the only relationship kind the graph produces.
const RelationSubtechniqueOf = "subtechnique-of"

// Relationship is a directed edge between two technique ids.
type Relationship struct {
	SourceID string `json:"source" yaml:"source"`
	Kind     string `json:"kind" yaml:"kind"`
	TargetID string `json:"target" yaml:"target"`
}

// Graph is the complete, validated result of one pipeline run.
type Graph struct {
	Mode          Mode           `json:"mode" yaml:"mode"`
	Tactics       []Tactic       `json:"tactics" yaml:"tactics"`
	Techniques    []Technique    `json:"techniques" yaml:"techniques"`
	Relationships []Relationship `json:"relationships" yaml:"relationships"`
}

// Technique returns the technique with the given id.
func (g *Graph) Technique(id string) (Technique, bool) {
	for _, t := range g.Techniques {
		if t.ID == id {
			return t, true
		}
	}
	return Technique{}, false
}

// TacticByShortName returns the tactic a technique's phase refers to.
func (g *Graph) TacticByShortName(short string) (Tactic, bool) {
	for _, t := range g.Tactics {
		if t.ShortName == short {
			return t, true
		}
	}
	return Tactic{}, false
}

// ManifestEntry is one member of the collection manifest.
type ManifestEntry struct {
	ID       string    `json:"object_ref" yaml:"object_ref"`
	Modified time.Time `json:"object_modified" yaml:"object_modified"`
}
