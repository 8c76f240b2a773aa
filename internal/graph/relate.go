// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import "github.com/pdiddy/atrm-graph/pkg/types"

// InferRelationship returns the subtechnique-of edge from t to its parent,
// or nil when t is a top-level technique.
func InferRelationship(t types.Technique) *types.Relationship {
	if t.ParentID == "" || t.ParentID == t.ID {
		return nil
	}
	return &types.Relationship{
		SourceID: t.ID,
		Kind:     types.RelationSubtechniqueOf,
		TargetID: t.ParentID,
	}
}
