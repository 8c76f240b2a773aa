// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ident normalizes ATRM technique identifiers and derives the
// deterministic STIX identifiers used in the graph.
package ident

import (
	"strings"
)

// minorWidth is the zero-padded width of a sub-technique suffix ("001").
const minorWidth = 3

// FixID canonicalizes a raw technique id into dotted form. Ids without a
// dot are already canonical. For dotted ids the minor part loses its zero
// padding and is re-padded to three digits, so "AZT301.1", "AZT301.01" and
// "AZT301.001" all become "AZT301.001". FixID is idempotent.
func FixID(raw string) string {
	id := strings.TrimSpace(raw)
	major, minor, ok := strings.Cut(id, ".")
	if !ok {
		return id
	}
	minor = strings.TrimLeft(minor, "0")
	if minor == "" {
		minor = "0"
	}
	if len(minor) < minorWidth {
		minor = strings.Repeat("0", minorWidth-len(minor)) + minor
	}
	return major + "." + minor
}

// ParentOf returns the major part of an id ("AZT301.001" -> "AZT301").
func ParentOf(id string) string {
	major, _, _ := strings.Cut(id, ".")
	return major
}

// IsSubtechnique reports whether id carries a minor part.
func IsSubtechnique(id string) bool {
	return strings.Contains(id, ".")
}

// JoinSubID combines a parent id with a sub-technique suffix taken from a
// technique table. Tables render the suffix either fully qualified
// ("AZT301.1") or bare ("1", ".1"); both yield the same canonical id.
func JoinSubID(parent, suffix string) string {
	suffix = strings.TrimSpace(suffix)
	if parent != "" && strings.Contains(suffix, parent) {
		return FixID(suffix)
	}
	if !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	return FixID(parent + suffix)
}

// URLSlug turns an id into the page slug used by the published site
// ("AZT301.001" -> "AZT301-1").
func URLSlug(id string) string {
	return strings.ReplaceAll(id, ".00", "-")
}
