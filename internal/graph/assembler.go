// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph assembles extracted tactics, techniques and relationships
// into a types.Graph and checks its referential integrity.
package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/atrm-graph/pkg/types"
)

var (
	// ErrDanglingReference is returned by Graph when a relationship or
	// technique points at something that is not in the graph.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrTechniqueCollision is returned when two pages define the same
	// technique id.
	ErrTechniqueCollision = errors.New("technique id collision")
)

// CollisionError names both pages that claim one technique id.
type CollisionError struct {
	ID       string
	Existing string
	Incoming string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("%v: %s defined by %s and %s", ErrTechniqueCollision, e.ID, e.Existing, e.Incoming)
}

func (e *CollisionError) Unwrap() error { return ErrTechniqueCollision }

// IntegrityError lists every integrity violation found in one validation.
type IntegrityError struct {
	Issues []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%v: %d issue(s): %s", ErrDanglingReference, len(e.Issues), strings.Join(e.Issues, "; "))
}

func (e *IntegrityError) Unwrap() error { return ErrDanglingReference }

// Assembler accumulates records for one mode. Records are append-only and
// keep insertion order.
type Assembler struct {
	mode          types.Mode
	tactics       []types.Tactic
	techniques    []types.Technique
	byID          map[string]int
	relationships []types.Relationship
}

// New returns an empty assembler for mode.
func New(mode types.Mode) *Assembler {
	return &Assembler{
		mode: mode,
		byID: make(map[string]int),
	}
}

// AddTactic appends a tactic.
func (a *Assembler) AddTactic(t types.Tactic) {
	a.tactics = append(a.tactics, t)
}

// AddTechnique stores t and, when non-nil, its relationship. A technique
// whose id is already stored is rejected with a *CollisionError and
// nothing is added.
func (a *Assembler) AddTechnique(t types.Technique, rel *types.Relationship) error {
	if i, ok := a.byID[t.ID]; ok {
		return &CollisionError{ID: t.ID, Existing: a.techniques[i].SourcePath, Incoming: t.SourcePath}
	}
	a.byID[t.ID] = len(a.techniques)
	a.techniques = append(a.techniques, t)
	if rel != nil {
		a.relationships = append(a.relationships, *rel)
	}
	return nil
}

// Counts reports how many tactics, techniques and relationships are held.
func (a *Assembler) Counts() (tactics, techniques, relationships int) {
	return len(a.tactics), len(a.techniques), len(a.relationships)
}

// Graph validates the accumulated records and returns the graph. On any
// violation it returns an *IntegrityError listing all of them.
func (a *Assembler) Graph() (*types.Graph, error) {
	if issues := a.validate(); len(issues) > 0 {
		return nil, &IntegrityError{Issues: issues}
	}
	return &types.Graph{
		Mode:          a.mode,
		Tactics:       append([]types.Tactic(nil), a.tactics...),
		Techniques:    append([]types.Technique(nil), a.techniques...),
		Relationships: append([]types.Relationship(nil), a.relationships...),
	}, nil
}

func (a *Assembler) validate() []string {
	var issues []string

	codes := make(map[string]bool, len(a.tactics))
	shorts := make(map[string]int, len(a.tactics))
	for _, t := range a.tactics {
		if codes[t.ExternalID] {
			issues = append(issues, fmt.Sprintf("tactic %s defined twice", t.ExternalID))
		}
		codes[t.ExternalID] = true
		shorts[t.ShortName]++
	}

	for _, t := range a.techniques {
		switch shorts[t.TacticShortName] {
		case 0:
			issues = append(issues, fmt.Sprintf("technique %s refers to unknown tactic %q", t.ID, t.TacticShortName))
		case 1:
		default:
			issues = append(issues, fmt.Sprintf("technique %s refers to ambiguous tactic %q", t.ID, t.TacticShortName))
		}
	}

	for _, r := range a.relationships {
		if _, ok := a.byID[r.SourceID]; !ok {
			issues = append(issues, fmt.Sprintf("relationship %s %s %s: unknown source", r.SourceID, r.Kind, r.TargetID))
		}
		if _, ok := a.byID[r.TargetID]; !ok {
			issues = append(issues, fmt.Sprintf("relationship %s %s %s: unknown target", r.SourceID, r.Kind, r.TargetID))
		}
	}

	return issues
}
