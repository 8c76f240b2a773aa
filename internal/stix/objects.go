// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stix

import (
	"fmt"
	"time"

	"github.com/pdiddy/atrm-graph/pkg/types"
)

// STIX object types emitted in a bundle.
const (
	TypeBundle       = "bundle"
	TypeCollection   = "x-mitre-collection"
	TypeTactic       = "x-mitre-tactic"
	TypeTechnique    = "attack-pattern"
	TypeRelationship = "relationship"
	TypeMatrix       = "x-mitre-matrix"
	TypeIdentity     = "identity"
)

// timestampLayout is STIX's millisecond-precision UTC timestamp.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Bundle is a STIX 2.1 bundle.
type Bundle struct {
	Type    string   `json:"type"`
	ID      string   `json:"id"`
	Objects []Object `json:"objects"`
}

// Object is any STIX object the graph produces. Fields that do not apply
// to an object's type are left empty and omitted.
type Object struct {
	Type               string                    `json:"type"`
	SpecVersion        string                    `json:"spec_version"`
	ID                 string                    `json:"id"`
	Created            string                    `json:"created"`
	Modified           string                    `json:"modified"`
	CreatedByRef       string                    `json:"created_by_ref,omitempty"`
	Name               string                    `json:"name,omitempty"`
	Description        string                    `json:"description,omitempty"`
	IdentityClass      string                    `json:"identity_class,omitempty"`
	ExternalReferences []types.ExternalReference `json:"external_references,omitempty"`
	KillChainPhases    []types.KillChainPhase    `json:"kill_chain_phases,omitempty"`

	RelationshipType string   `json:"relationship_type,omitempty"`
	SourceRef        string   `json:"source_ref,omitempty"`
	TargetRef        string   `json:"target_ref,omitempty"`
	TacticRefs       []string `json:"tactic_refs,omitempty"`

	ShortName         string      `json:"x_mitre_shortname,omitempty"`
	Brief             string      `json:"x_mitre_brief,omitempty"`
	IsSubtechnique    *bool       `json:"x_mitre_is_subtechnique,omitempty"`
	Platforms         []string    `json:"x_mitre_platforms,omitempty"`
	Domains           []string    `json:"x_mitre_domains,omitempty"`
	Version           string      `json:"x_mitre_version,omitempty"`
	AttackSpecVersion string      `json:"x_mitre_attack_spec_version,omitempty"`
	ModifiedByRef     string      `json:"x_mitre_modified_by_ref,omitempty"`
	Contents          []ObjectRef `json:"x_mitre_contents,omitempty"`

	Resources  []string `json:"x_atrm_resources,omitempty"`
	Actions    []string `json:"x_atrm_actions,omitempty"`
	Examples   []string `json:"x_atrm_examples,omitempty"`
	Detections []string `json:"x_atrm_detections,omitempty"`
}

// ObjectRef is one collection manifest entry.
type ObjectRef struct {
	ObjectRef      string `json:"object_ref"`
	ObjectModified string `json:"object_modified"`
}

// Manifest returns the collection's manifest entries, or nil when the
// bundle has no collection.
func (b *Bundle) Manifest() ([]types.ManifestEntry, error) {
	for _, o := range b.Objects {
		if o.Type != TypeCollection {
			continue
		}
		entries := make([]types.ManifestEntry, 0, len(o.Contents))
		for _, ref := range o.Contents {
			modified, err := time.Parse(timestampLayout, ref.ObjectModified)
			if err != nil {
				return nil, fmt.Errorf("manifest entry %s: %w", ref.ObjectRef, err)
			}
			entries = append(entries, types.ManifestEntry{ID: ref.ObjectRef, Modified: modified})
		}
		return entries, nil
	}
	return nil, nil
}

// Object returns the object with the given STIX id.
func (b *Bundle) Object(id string) (Object, bool) {
	for _, o := range b.Objects {
		if o.ID == id {
			return o, true
		}
	}
	return Object{}, false
}

func timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
