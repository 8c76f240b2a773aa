// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnexpectedMode is returned when a Mode outside the known set reaches
// code that derives mode-dependent vocabulary.
var ErrUnexpectedMode = errors.New("unexpected mode")

// Mode selects which external vocabulary is embedded in graph records.
type Mode string

const (
	// ModeStrict labels every record with the ATRM's own domain and source.
	ModeStrict Mode = "strict"

	// ModeAttackCompatible reuses the MITRE ATT&CK domain and source names so
	// the output loads into ATT&CK tooling unchanged.
	ModeAttackCompatible Mode = "attack-compatible"
)

// AllModes lists the modes in the order the CLI builds them.
var AllModes = []Mode{ModeStrict, ModeAttackCompatible}

// Vocabulary is the set of mode-dependent strings embedded in records.
type Vocabulary struct {
	Domain        string
	SourceName    string
	KillChainName string
	CollectionID  string
}

// Vocabulary returns the strings for m. Every code path that needs one of
// them goes through here.
func (m Mode) Vocabulary() (Vocabulary, error) {
	switch m {
	case ModeStrict:
		return Vocabulary{
			Domain:        "atrm",
			SourceName:    "atrm",
			KillChainName: "atrm",
			CollectionID:  "x-mitre-collection--bf1027b3-fe3a-4eac-bdd5-a1c48c4cb89e",
		}, nil
	case ModeAttackCompatible:
		return Vocabulary{
			Domain:        "enterprise-attack",
			SourceName:    "mitre-attack",
			KillChainName: "mitre-attack",
			CollectionID:  "x-mitre-collection--6aaadb00-2dbf-450a-a3e8-d4c6c5309639",
		}, nil
	default:
		return Vocabulary{}, fmt.Errorf("%w: %q", ErrUnexpectedMode, string(m))
	}
}

// FileStem returns the mode name as used in artifact file names
// (e.g. "attack_compatible").
func (m Mode) FileStem() string {
	return strings.ReplaceAll(string(m), "-", "_")
}

// ParseMode converts a CLI or config value into a Mode. Underscores are
// accepted in place of hyphens.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if _, err := m.Vocabulary(); err != nil {
		return "", err
	}
	return m, nil
}
