// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ident

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"

	"github.com/pdiddy/atrm-graph/pkg/types"
)

// namespace prefixes every key so ids cannot collide with other producers.
const namespace = "microsoft.atrm."

// UUID derives a deterministic UUID from a stable key. The same key always
// yields the same UUID, run after run.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// TacticID returns the graph id of the tactic with the given external code.
func TacticID(code string) string {
	return "x-mitre-tactic--" + UUID(namespace+"tactic."+code).String()
}

// TechniqueID returns the graph id of a technique.
func TechniqueID(id string) string {
	return "attack-pattern--" + UUID(namespace+"technique."+id).String()
}

// RelationshipID returns the graph id of an edge.
func RelationshipID(source, kind, target string) string {
	return "relationship--" + UUID(namespace+"relationship."+source+"."+kind+"."+target).String()
}

// MatrixID returns the graph id of the matrix object for a mode.
func MatrixID(mode types.Mode) string {
	return "x-mitre-matrix--" + UUID(namespace+"matrix."+string(mode)).String()
}

// BundleID returns the id of the bundle for a mode.
func BundleID(mode types.Mode) string {
	return "bundle--" + UUID(namespace+"bundle."+string(mode)).String()
}
