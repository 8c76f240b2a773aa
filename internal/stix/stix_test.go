// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stix

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/atrm-graph/internal/ident"
	"github.com/pdiddy/atrm-graph/pkg/types"
)

var (
	t2022 = time.Date(2022, 3, 1, 9, 0, 0, 0, time.UTC)
	t2023 = time.Date(2023, 8, 15, 17, 45, 30, 250_000_000, time.UTC)
)

func sampleGraph() *types.Graph {
	tactic := types.Tactic{
		ExternalID:  "AZTA300",
		Key:         "Execution",
		Name:        "Execution",
		ShortName:   "execution",
		Description: "Run code.",
		URL:         types.BaseURL + "/Execution/Execution",
		GraphID:     ident.TacticID("AZTA300"),
		Created:     t2022,
		Modified:    t2022,
	}
	parent := types.Technique{
		ID:              "AZT301",
		ParentID:        "AZT301",
		Name:            "Virtual Machine Scripting",
		Description:     "Scripts & commands on VMs.",
		Brief:           "Run scripts",
		Platforms:       []string{types.Platform},
		TacticShortName: "execution",
		KillChainPhases: []types.KillChainPhase{{KillChainName: "atrm", PhaseName: "execution"}},
		Resources:       []string{"Virtual Machines"},
		References:      []types.ExternalReference{{SourceName: "atrm", ExternalID: "AZT301", URL: "https://x/AZT301"}},
		Version:         types.TechniqueVersion,
		Created:         t2022,
		Modified:        t2022,
	}
	child := parent
	child.ID = "AZT301.001"
	child.Name = "RunCommand"
	child.IsSubtechnique = true
	child.Examples = []string{"az vm run-command invoke"}
	child.References = []types.ExternalReference{
		{SourceName: "atrm", ExternalID: "AZT301.001", URL: "https://x/AZT301-1"},
		{SourceName: types.LinkSourceName, URL: "https://learn.microsoft.com/run-command"},
	}
	child.Created = t2022
	child.Modified = t2023

	return &types.Graph{
		Mode:       types.ModeStrict,
		Tactics:    []types.Tactic{tactic},
		Techniques: []types.Technique{parent, child},
		Relationships: []types.Relationship{
			{SourceID: "AZT301.001", Kind: types.RelationSubtechniqueOf, TargetID: "AZT301"},
		},
	}
}

func TestBuildOrderAndIDs(t *testing.T) {
	b, err := Build(sampleGraph(), types.ModeStrict)
	require.NoError(t, err)

	var kinds []string
	for _, o := range b.Objects {
		kinds = append(kinds, o.Type)
	}
	assert.Equal(t, []string{
		TypeCollection, TypeTactic, TypeTechnique, TypeTechnique, TypeRelationship, TypeMatrix, TypeIdentity,
	}, kinds)

	assert.Equal(t, ident.BundleID(types.ModeStrict), b.ID)
	assert.Equal(t, "x-mitre-collection--bf1027b3-fe3a-4eac-bdd5-a1c48c4cb89e", b.Objects[0].ID)

	rel := b.Objects[4]
	assert.Equal(t, ident.TechniqueID("AZT301.001"), rel.SourceRef)
	assert.Equal(t, ident.TechniqueID("AZT301"), rel.TargetRef)
	assert.Equal(t, types.RelationSubtechniqueOf, rel.RelationshipType)
	assert.Equal(t, "2023-08-15T17:45:30.250Z", rel.Modified, "relationship takes the source technique times")

	matrix := b.Objects[5]
	assert.Equal(t, []string{ident.TacticID("AZTA300")}, matrix.TacticRefs)
	assert.Equal(t, "2023-08-15T17:45:30.250Z", matrix.Modified)
	assert.Equal(t, "atrm", matrix.ExternalReferences[0].ExternalID)

	identity := b.Objects[6]
	assert.Equal(t, types.CreatorIdentity, identity.ID)
	assert.Equal(t, "2024-02-05T14:00:00.188Z", identity.Created)
}

func TestBuildManifest(t *testing.T) {
	b, err := Build(sampleGraph(), types.ModeStrict)
	require.NoError(t, err)

	manifest, err := b.Manifest()
	require.NoError(t, err)
	require.Len(t, manifest, len(b.Objects)-1)
	for i, entry := range manifest {
		obj := b.Objects[i+1]
		assert.Equal(t, obj.ID, entry.ID)
		assert.Equal(t, obj.Modified, timestamp(entry.Modified))
	}
}

func TestManifestBadTimestamp(t *testing.T) {
	b, err := Build(sampleGraph(), types.ModeStrict)
	require.NoError(t, err)
	b.Objects[0].Contents[0].ObjectModified = "yesterday"

	_, err = b.Manifest()
	require.Error(t, err)
	assert.Contains(t, err.Error(), b.Objects[0].Contents[0].ObjectRef)
}

func TestBuildModeVocabulary(t *testing.T) {
	b, err := Build(sampleGraph(), types.ModeAttackCompatible)
	require.NoError(t, err)

	assert.Equal(t, "x-mitre-collection--6aaadb00-2dbf-450a-a3e8-d4c6c5309639", b.Objects[0].ID)
	tactic, ok := b.Object(ident.TacticID("AZTA300"))
	require.True(t, ok)
	assert.Equal(t, []string{"enterprise-attack"}, tactic.Domains)
	assert.Equal(t, "mitre-attack", tactic.ExternalReferences[0].SourceName)

	_, err = Build(sampleGraph(), types.Mode("legacy"))
	assert.ErrorIs(t, err, types.ErrUnexpectedMode)
}

func TestBuildRejectsDanglingRelationship(t *testing.T) {
	g := sampleGraph()
	g.Relationships = append(g.Relationships, types.Relationship{SourceID: "AZT999.001", Kind: types.RelationSubtechniqueOf, TargetID: "AZT999"})
	_, err := Build(g, types.ModeStrict)
	assert.ErrorContains(t, err, "AZT999.001")
}

func TestMarshalDeterministic(t *testing.T) {
	first, err := Build(sampleGraph(), types.ModeStrict)
	require.NoError(t, err)
	second, err := Build(sampleGraph(), types.ModeStrict)
	require.NoError(t, err)

	a, err := Marshal(first)
	require.NoError(t, err)
	b, err := Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	assert.Contains(t, string(a), `"description": "Scripts & commands on VMs."`)
	assert.Contains(t, string(a), `"x_mitre_is_subtechnique": false`)
	assert.True(t, strings.HasSuffix(string(a), "}\n"))
}

func TestValidate(t *testing.T) {
	b, err := Build(sampleGraph(), types.ModeStrict)
	require.NoError(t, err)
	data, err := Marshal(b)
	require.NoError(t, err)
	require.NoError(t, Validate(data))
}

func TestValidateRejects(t *testing.T) {
	b, err := Build(sampleGraph(), types.ModeStrict)
	require.NoError(t, err)
	b.Objects[4].RelationshipType = "uses"
	b.Objects[2].KillChainPhases = nil
	data, err := Marshal(b)
	require.NoError(t, err)

	err = Validate(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaValidation)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.NotEmpty(t, ve.Issues)
}

func TestValidateMalformedJSON(t *testing.T) {
	err := Validate([]byte("{not json"))
	assert.ErrorIs(t, err, ErrSchemaValidation)
}

func TestWriteArtifacts(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := []byte(`{"type":"bundle"}` + "\n")

	paths, err := WriteArtifacts(fs, "build", types.ModeAttackCompatible, data)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "build/atrm_attack_compatible.json", paths[0])
	assert.Regexp(t, `^build/atrm_attack_compatible_[0-9a-f]{12}\.json$`, paths[1])

	for _, p := range paths {
		got, err := afero.ReadFile(fs, p)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	}

	_, again := ArtifactNames(types.ModeAttackCompatible, data)
	assert.Equal(t, "build/"+again, paths[1])
}

// faultyFs fails writes or renames whose target matches a predicate.
type faultyFs struct {
	afero.Fs
	failWrite  func(name string) bool
	failRename func(name string) bool
}

func (f faultyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if f.failWrite != nil && f.failWrite(name) {
		return nil, errors.New("disk full")
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f faultyFs) Rename(oldname, newname string) error {
	if f.failRename != nil && f.failRename(newname) {
		return errors.New("rename refused")
	}
	return f.Fs.Rename(oldname, newname)
}

func TestWriteArtifactsLeavesNoPartialOutput(t *testing.T) {
	data := []byte(`{"type":"bundle"}` + "\n")
	latest, versioned := ArtifactNames(types.ModeStrict, data)
	isVersioned := func(name string) bool { return strings.Contains(name, versioned) }
	isLatest := func(name string) bool { return filepath.Base(name) == latest }

	tests := []struct {
		name string
		fs   faultyFs
	}{
		{"versioned write fails", faultyFs{failWrite: isVersioned}},
		{"latest rename fails", faultyFs{failRename: isLatest}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := afero.NewMemMapFs()
			tt.fs.Fs = mem

			_, err := WriteArtifacts(tt.fs, "build", types.ModeStrict, data)
			require.Error(t, err)

			exists, err := afero.Exists(mem, filepath.Join("build", latest))
			require.NoError(t, err)
			assert.False(t, exists, "latest must not be written when the run fails")

			entries, err := afero.ReadDir(mem, "build")
			require.NoError(t, err)
			for _, e := range entries {
				assert.False(t, strings.HasSuffix(e.Name(), stagingSuffix), "staged file %s left behind", e.Name())
			}
		})
	}
}
