// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ident

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/atrm-graph/pkg/types"
)

func TestFixID(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"AZT301", "AZT301"},
		{"AZT301.1", "AZT301.001"},
		{"AZT301.01", "AZT301.001"},
		{"AZT301.001", "AZT301.001"},
		{"AZT301.10", "AZT301.010"},
		{"AZT301.012", "AZT301.012"},
		{"AZT301.0", "AZT301.000"},
		{"AZT301.000", "AZT301.000"},
		{"T1234.01", "T1234.001"},
		{"  AZT101.2 ", "AZT101.002"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, FixID(tt.raw))
		})
	}
}

func TestFixIDIdempotent(t *testing.T) {
	for _, raw := range []string{"AZT301", "AZT301.1", "AZT301.01", "AZT301.10", "AZT301.0", "T1001.001", "X.7"} {
		once := FixID(raw)
		assert.Equal(t, once, FixID(once), "FixID(FixID(%q))", raw)
	}
}

func TestParentOf(t *testing.T) {
	assert.Equal(t, "AZT301", ParentOf("AZT301.001"))
	assert.Equal(t, "AZT301", ParentOf("AZT301"))
	assert.True(t, IsSubtechnique("AZT301.001"))
	assert.False(t, IsSubtechnique("AZT301"))
}

func TestJoinSubID(t *testing.T) {
	tests := []struct {
		name   string
		parent string
		suffix string
		want   string
	}{
		{"bare suffix", "T1001", "001", "T1001.001"},
		{"dotted suffix", "AZT301", ".1", "AZT301.001"},
		{"qualified suffix", "AZT301", "AZT301.2", "AZT301.002"},
		{"qualified padded suffix", "AZT301", "AZT301.002", "AZT301.002"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinSubID(tt.parent, tt.suffix))
		})
	}
}

func TestURLSlug(t *testing.T) {
	assert.Equal(t, "AZT301-1", URLSlug("AZT301.001"))
	assert.Equal(t, "AZT301", URLSlug("AZT301"))
}

func TestUUIDDeterministic(t *testing.T) {
	a := UUID("microsoft.atrm.tactic.AZTA100")
	b := UUID("microsoft.atrm.tactic.AZTA100")
	c := UUID("microsoft.atrm.tactic.AZTA200")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, uuid.Nil, a)
	assert.Equal(t, uuid.Nil, UUID("   "))
}

func TestGraphIDs(t *testing.T) {
	assert.True(t, strings.HasPrefix(TacticID("AZTA100"), "x-mitre-tactic--"))
	assert.Equal(t, TacticID("AZTA100"), TacticID("AZTA100"))
	assert.NotEqual(t, TacticID("AZTA100"), TacticID("AZTA200"))

	assert.True(t, strings.HasPrefix(TechniqueID("AZT301"), "attack-pattern--"))
	assert.NotEqual(t, TechniqueID("AZT301"), TechniqueID("AZT301.001"))

	rel := RelationshipID("AZT301.001", types.RelationSubtechniqueOf, "AZT301")
	assert.True(t, strings.HasPrefix(rel, "relationship--"))
	assert.Equal(t, rel, RelationshipID("AZT301.001", types.RelationSubtechniqueOf, "AZT301"))

	assert.NotEqual(t, MatrixID(types.ModeStrict), MatrixID(types.ModeAttackCompatible))
	assert.NotEqual(t, BundleID(types.ModeStrict), BundleID(types.ModeAttackCompatible))
}
