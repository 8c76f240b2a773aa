// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stix serializes a validated graph into a STIX 2.1 bundle,
// checks the bundle against its JSON Schema and writes the artifacts.
// Every id and timestamp is derived from the graph, so the same graph
// always serializes to the same bytes.
package stix

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pdiddy/atrm-graph/internal/ident"
	"github.com/pdiddy/atrm-graph/pkg/types"
)

const (
	matrixName        = "Azure Threat Research Matrix"
	matrixDescription = "The purpose of the Azure Threat Research Matrix (ATRM) is to educate readers on the potential of Azure-based tactics, techniques, and procedures (TTPs). It is not to teach how to weaponize or specifically abuse them. For this reason, some specific commands will be obfuscated or parts will be omitted to prevent abuse."
	matrixURL         = types.BaseURL + "/"

	identityName  = "aw350m33d (Security Experts Community)"
	identityClass = "organization"
)

// identityTime is the fixed creation time of the authoring identity.
var identityTime = time.Date(2024, 2, 5, 14, 0, 0, 188_000_000, time.UTC)

// Build converts g into a bundle for mode. Objects are ordered collection,
// tactics, techniques, relationships, matrix, identity.
func Build(g *types.Graph, mode types.Mode) (*Bundle, error) {
	vocab, err := mode.Vocabulary()
	if err != nil {
		return nil, err
	}
	domains := []string{vocab.Domain}

	var objects []Object
	var tacticRefs []string
	latest := time.Time{}
	touch := func(t time.Time) {
		if t.After(latest) {
			latest = t
		}
	}

	for _, t := range g.Tactics {
		touch(t.Modified)
		tacticRefs = append(tacticRefs, t.GraphID)
		objects = append(objects, Object{
			Type:         TypeTactic,
			SpecVersion:  types.STIXSpecVersion,
			ID:           t.GraphID,
			Created:      timestamp(t.Created),
			Modified:     timestamp(t.Modified),
			CreatedByRef: types.CreatorIdentity,
			Name:         t.Name,
			Description:  t.Description,
			ExternalReferences: []types.ExternalReference{{
				SourceName: vocab.SourceName,
				ExternalID: t.ExternalID,
				URL:        t.URL,
			}},
			ShortName:         t.ShortName,
			Domains:           domains,
			Version:           types.ATRMVersion,
			AttackSpecVersion: types.AttackSpecVersion,
			ModifiedByRef:     types.CreatorIdentity,
		})
	}

	byID := make(map[string]types.Technique, len(g.Techniques))
	for _, t := range g.Techniques {
		touch(t.Modified)
		byID[t.ID] = t
		objects = append(objects, techniqueObject(t, domains))
	}

	for _, r := range g.Relationships {
		src, ok := byID[r.SourceID]
		if !ok {
			return nil, fmt.Errorf("relationship source %s is not in the graph", r.SourceID)
		}
		if _, ok := byID[r.TargetID]; !ok {
			return nil, fmt.Errorf("relationship target %s is not in the graph", r.TargetID)
		}
		objects = append(objects, Object{
			Type:              TypeRelationship,
			SpecVersion:       types.STIXSpecVersion,
			ID:                ident.RelationshipID(r.SourceID, r.Kind, r.TargetID),
			Created:           timestamp(src.Created),
			Modified:          timestamp(src.Modified),
			CreatedByRef:      types.CreatorIdentity,
			RelationshipType:  r.Kind,
			SourceRef:         ident.TechniqueID(r.SourceID),
			TargetRef:         ident.TechniqueID(r.TargetID),
			Domains:           domains,
			Version:           types.ATRMVersion,
			AttackSpecVersion: types.AttackSpecVersion,
			ModifiedByRef:     types.CreatorIdentity,
		})
	}

	if latest.IsZero() {
		latest = identityTime
	}
	matrixRefs := []types.ExternalReference{{SourceName: vocab.SourceName, ExternalID: "atrm", URL: matrixURL}}

	objects = append(objects, Object{
		Type:               TypeMatrix,
		SpecVersion:        types.STIXSpecVersion,
		ID:                 ident.MatrixID(mode),
		Created:            timestamp(latest),
		Modified:           timestamp(latest),
		CreatedByRef:       types.CreatorIdentity,
		Name:               matrixName,
		Description:        matrixDescription,
		ExternalReferences: matrixRefs,
		TacticRefs:         tacticRefs,
		Domains:            domains,
		Version:            types.ATRMVersion,
		AttackSpecVersion:  types.AttackSpecVersion,
		ModifiedByRef:      types.CreatorIdentity,
	})

	objects = append(objects, Object{
		Type:              TypeIdentity,
		SpecVersion:       types.STIXSpecVersion,
		ID:                types.CreatorIdentity,
		Created:           timestamp(identityTime),
		Modified:          timestamp(identityTime),
		Name:              identityName,
		IdentityClass:     identityClass,
		Domains:           domains,
		Version:           types.ATRMVersion,
		AttackSpecVersion: types.AttackSpecVersion,
	})

	contents := make([]ObjectRef, 0, len(objects))
	for _, o := range objects {
		contents = append(contents, ObjectRef{ObjectRef: o.ID, ObjectModified: o.Modified})
	}

	collection := Object{
		Type:              TypeCollection,
		SpecVersion:       types.STIXSpecVersion,
		ID:                vocab.CollectionID,
		Created:           timestamp(latest),
		Modified:          timestamp(latest),
		CreatedByRef:      types.CreatorIdentity,
		Name:              matrixName,
		Description:       matrixDescription,
		Version:           types.ATRMVersion,
		AttackSpecVersion: types.AttackSpecVersion,
		Contents:          contents,
	}

	return &Bundle{
		Type:    TypeBundle,
		ID:      ident.BundleID(mode),
		Objects: append([]Object{collection}, objects...),
	}, nil
}

func techniqueObject(t types.Technique, domains []string) Object {
	sub := t.IsSubtechnique
	return Object{
		Type:               TypeTechnique,
		SpecVersion:        types.STIXSpecVersion,
		ID:                 ident.TechniqueID(t.ID),
		Created:            timestamp(t.Created),
		Modified:           timestamp(t.Modified),
		CreatedByRef:       types.CreatorIdentity,
		Name:               t.Name,
		Description:        t.Description,
		ExternalReferences: t.References,
		KillChainPhases:    t.KillChainPhases,
		Brief:              t.Brief,
		IsSubtechnique:     &sub,
		Platforms:          t.Platforms,
		Domains:            domains,
		Version:            t.Version,
		AttackSpecVersion:  types.AttackSpecVersion,
		ModifiedByRef:      types.CreatorIdentity,
		Resources:          t.Resources,
		Actions:            t.Actions,
		Examples:           t.Examples,
		Detections:         t.Detections,
	}
}

// Marshal renders b as indented JSON with a trailing newline.
func Marshal(b *Bundle) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return nil, fmt.Errorf("marshaling bundle: %w", err)
	}
	return buf.Bytes(), nil
}
