package extract

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/atrm-graph/internal/markup"
	"github.com/pdiddy/atrm-graph/pkg/types"
)

// --- fixtures ---

const overviewPage = `---
title: Initial Access
---

# Initial Access

The adversary is trying to get into your Azure environment.

| Technique ID | Sub-technique ID | Name | Brief |
|--------------|------------------|------|-------|
| T1001 | | Password Spraying | Spray common passwords |
| | 001 | Low and Slow | Spray below lockout thresholds |
| AZT202.1 | | Stolen Token | |
`

const fencedPage = "# T1001 - Initial Access: Password Spraying\n" +
	"\n" +
	"An adversary sprays passwords against many accounts.\n" +
	"\n" +
	"```\n*Azure AD\nN/A\n  Entra ID  \n\n```\n" +
	"\n" +
	"```\nSignInLogs\n```\n" +
	"\n" +
	"```\nN/A\n```\n" +
	"\n" +
	"```\nSigninLogs | where ResultType == 50126\n```\n" +
	"\n" +
	"```\n[Docs](https://learn.microsoft.com/spray)\nhttps://example.com/lockout\nsee https://example.com/ignored\n```\n"

const detailPage = "# T1001.1 - Password Spraying: Low and Slow\n" +
	"\n" +
	"Sprays at a rate that avoids smart lockout.\n" +
	"\n" +
	"Resources:\n*Azure AD\nn/a\n" +
	"\n" +
	"Actions:\nSign-in\n" +
	"\n" +
	"- **Step one:** pick a password\n" +
	"- **Step two:** wait an hour\n" +
	"\n" +
	"```\nspray.ps1 -Delay 3600\n```\n"

const overviewTechniquePage = "# T1002 - Execution: Run Command\n" +
	"\n" +
	"Runs commands on virtual machines.\n" +
	"\n" +
	"| Sub-technique | Name |\n|---|---|\n| T1002.1 | VM Run Command |\n" +
	"\n" +
	"Resources:\nVirtual Machines\n" +
	"\n" +
	"Actions:\nMicrosoft.Compute/virtualMachines/runCommand/action\n"

var (
	created  = time.Date(2022, 5, 1, 10, 0, 0, 0, time.UTC)
	modified = time.Date(2023, 7, 9, 12, 30, 0, 0, time.UTC)
)

func mustTree(t *testing.T, md string) *markup.Tree {
	t.Helper()
	tree, err := markup.Normalize([]byte(md))
	require.NoError(t, err)
	return tree
}

func initialAccess(t *testing.T) (types.Tactic, types.BriefIndex) {
	t.Helper()
	def := types.TacticDef{Key: "InitialAccess", Code: "AZTA200"}
	tactic, err := ExtractTactic(mustTree(t, overviewPage), def, "docs/InitialAccess/InitialAccess.md", created, modified)
	require.NoError(t, err)
	index, err := BuildBriefIndex(mustTree(t, overviewPage), tactic)
	require.NoError(t, err)
	return tactic, index
}

// --- tactics ---

func TestExtractTactic(t *testing.T) {
	tactic, _ := initialAccess(t)

	assert.Equal(t, "AZTA200", tactic.ExternalID)
	assert.Equal(t, "Initial Access", tactic.Name)
	assert.Equal(t, "initial-access", tactic.ShortName)
	assert.Equal(t, "The adversary is trying to get into your Azure environment.", tactic.Description)
	assert.Equal(t, types.BaseURL+"/InitialAccess/InitialAccess", tactic.URL)
	assert.Regexp(t, `^x-mitre-tactic--[0-9a-f-]{36}$`, tactic.GraphID)
	assert.Equal(t, created, tactic.Created)
	assert.Equal(t, modified, tactic.Modified)
}

func TestExtractTacticMissingDescription(t *testing.T) {
	_, err := ExtractTactic(mustTree(t, "# Impact\n"), types.TacticDef{Key: "Impact", Code: "AZTA700"}, "Impact.md", created, modified)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedPageShape)

	var pe *PageError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Impact.md", pe.Path)
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "privilege-escalation", ShortName(" Privilege Escalation "))
	assert.Equal(t, "impact", ShortName("Impact"))
}

// --- brief index ---

func TestBuildBriefIndex(t *testing.T) {
	_, index := initialAccess(t)
	require.Len(t, index, 3)

	parent := index["T1001"]
	assert.Equal(t, "T1001", parent.ParentID)
	assert.Equal(t, "Password Spraying", parent.Name)
	assert.Equal(t, "Spray common passwords", parent.Brief)
	assert.False(t, parent.IsSubtechnique)
	assert.Equal(t, "initial-access", parent.PhaseName)

	sub := index["T1001.001"]
	assert.Equal(t, "T1001", sub.ParentID)
	assert.Equal(t, "Low and Slow", sub.Name)
	assert.True(t, sub.IsSubtechnique)
	assert.Equal(t, types.BaseURL+"/InitialAccess/T1001/T1001-1", sub.URL)

	token := index["AZT202.001"]
	assert.Equal(t, "AZT202.001", token.ParentID)
	assert.Equal(t, "", token.Brief)
}

func TestBuildBriefIndexErrors(t *testing.T) {
	tactic := types.Tactic{Key: "Impact", ShortName: "impact"}
	tests := []struct {
		name string
		md   string
	}{
		{
			name: "no table",
			md:   "# Impact\n\nNo table here.\n",
		},
		{
			name: "too few columns",
			md:   "| ID | Sub | Name |\n|---|---|---|\n| T1 | | x |\n",
		},
		{
			name: "continuation before parent",
			md:   "| ID | Sub | Name | Brief |\n|---|---|---|---|\n| | 001 | x | y |\n",
		},
		{
			name: "row without any id",
			md:   "| ID | Sub | Name | Brief |\n|---|---|---|---|\n| T1 | | x | y |\n| | | z | w |\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildBriefIndex(mustTree(t, tt.md), tactic)
			assert.ErrorIs(t, err, ErrUnexpectedTableShape)
		})
	}
}

// --- shapes ---

func TestDetectShape(t *testing.T) {
	tests := []struct {
		name string
		id   string
		md   string
		want Shape
	}{
		{"fenced", "T1001", fencedPage, ShapeFenced},
		{"detail", "T1001.001", detailPage, ShapeDetail},
		{"overview", "T1002", overviewTechniquePage, ShapeOverview},
		{"table on sub-technique is not overview", "T1002.001", overviewTechniquePage, ShapeFenced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectShape(tt.id, mustTree(t, tt.md)))
		})
	}
}

// --- techniques ---

func TestExtractTechniqueFenced(t *testing.T) {
	tactic, index := initialAccess(t)
	page := Page{
		Path:     "docs/InitialAccess/AZT201/AZT201.md",
		Tree:     mustTree(t, fencedPage),
		Created:  created,
		Modified: modified,
	}

	tech, rel, err := ExtractTechnique(page, tactic.Key, index, tactic.ShortName, types.ModeStrict)
	require.NoError(t, err)
	assert.Nil(t, rel)

	assert.Equal(t, "T1001", tech.ID)
	assert.Equal(t, "T1001", tech.ParentID)
	assert.Equal(t, "Password Spraying", tech.Name)
	assert.Equal(t, "Spray common passwords", tech.Brief)
	assert.Equal(t, "An adversary sprays passwords against many accounts.", tech.Description)
	assert.False(t, tech.IsSubtechnique)
	assert.Equal(t, []string{"Azure AD", "Entra ID"}, tech.Resources)
	assert.Equal(t, []string{"SignInLogs"}, tech.Actions)
	assert.Nil(t, tech.Examples)
	assert.Equal(t, []string{"SigninLogs | where ResultType == 50126"}, tech.Detections)
	assert.Equal(t, []string{types.Platform}, tech.Platforms)
	assert.Equal(t, types.TechniqueVersion, tech.Version)
	assert.Equal(t, []types.KillChainPhase{{KillChainName: "atrm", PhaseName: "initial-access"}}, tech.KillChainPhases)
	assert.Equal(t, created, tech.Created)
	assert.Equal(t, modified, tech.Modified)

	require.Len(t, tech.References, 3)
	assert.Equal(t, types.ExternalReference{
		SourceName: "atrm",
		ExternalID: "T1001",
		URL:        types.BaseURL + "/InitialAccess/T1001/AZT201",
	}, tech.References[0])
	assert.Equal(t, "https://learn.microsoft.com/spray", tech.References[1].URL)
	assert.Equal(t, types.LinkSourceName, tech.References[1].SourceName)
	assert.Empty(t, tech.References[1].ExternalID)
	assert.Equal(t, "https://example.com/lockout", tech.References[2].URL)
}

func TestExtractTechniqueDetail(t *testing.T) {
	tactic, index := initialAccess(t)
	page := Page{Path: "docs/InitialAccess/AZT201/AZT201-1.md", Tree: mustTree(t, detailPage)}

	tech, rel, err := ExtractTechnique(page, tactic.Key, index, tactic.ShortName, types.ModeAttackCompatible)
	require.NoError(t, err)

	assert.Equal(t, "T1001.001", tech.ID)
	assert.Equal(t, "T1001", tech.ParentID)
	assert.Equal(t, "Low and Slow", tech.Name)
	assert.True(t, tech.IsSubtechnique)
	assert.Equal(t,
		"Sprays at a rate that avoids smart lockout.\n- Step one: pick a password\n- Step two: wait an hour",
		tech.Description)
	assert.Equal(t, []string{"Azure AD"}, tech.Resources)
	assert.Equal(t, []string{"Sign-in"}, tech.Actions)
	assert.Equal(t, []string{"spray.ps1 -Delay 3600"}, tech.Examples)
	assert.Nil(t, tech.Detections)
	assert.Equal(t, "mitre-attack", tech.References[0].SourceName)
	assert.Equal(t, "mitre-attack", tech.KillChainPhases[0].KillChainName)

	require.NotNil(t, rel)
	assert.Equal(t, types.Relationship{
		SourceID: "T1001.001",
		Kind:     types.RelationSubtechniqueOf,
		TargetID: "T1001",
	}, *rel)
}

func TestExtractTechniqueOverview(t *testing.T) {
	page := Page{Path: "docs/Execution/AZT301/AZT301.md", Tree: mustTree(t, overviewTechniquePage)}

	tech, rel, err := ExtractTechnique(page, "Execution", types.BriefIndex{}, "execution", types.ModeStrict)
	require.NoError(t, err)
	assert.Nil(t, rel)

	assert.Equal(t, "Run Command", tech.Name)
	assert.Equal(t, "Runs commands on virtual machines.", tech.Brief)
	assert.Equal(t, []string{"Virtual Machines"}, tech.Resources)
	assert.Equal(t, []string{"Microsoft.Compute/virtualMachines/runCommand/action"}, tech.Actions)
	assert.Nil(t, tech.Examples)
	assert.Nil(t, tech.Detections)
	assert.Len(t, tech.References, 1)
}

func TestExtractTechniquePlaceholderDescription(t *testing.T) {
	tactic, index := initialAccess(t)
	md := "# T1001 - Password Spraying\n\n!!! Description pending.\n"

	tech, _, err := ExtractTechnique(Page{Path: "p.md", Tree: mustTree(t, md)}, tactic.Key, index, tactic.ShortName, types.ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, "Spray common passwords", tech.Description)
	assert.Nil(t, tech.Resources)
	assert.Nil(t, tech.Actions)
}

func TestExtractTechniqueFallbackInfo(t *testing.T) {
	md := "# AZT999.2 - Unknown: Missing From Table\n\nNot listed on the overview.\n"

	tech, rel, err := ExtractTechnique(Page{Path: "p.md", Tree: mustTree(t, md)}, "Impact", types.BriefIndex{}, "impact", types.ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, "AZT999.002", tech.ID)
	assert.Equal(t, "AZT999", tech.ParentID)
	assert.Equal(t, "Missing From Table", tech.Name)
	assert.Equal(t, "Not listed on the overview.", tech.Brief)
	require.NotNil(t, rel)
	assert.Equal(t, "AZT999", rel.TargetID)
}

func TestExtractTechniqueErrors(t *testing.T) {
	tests := []struct {
		name string
		md   string
	}{
		{"no heading", "Just text.\n"},
		{"heading without separator", "# T1001 Password Spraying\n\nText.\n"},
		{"no description", "# T1001 - Password Spraying\n"},
		{
			"detail page without resources paragraph",
			"# T1001.1 - Password Spraying: Low and Slow\n\nSprays slowly.\n\n- **Step one:** pick a password\n",
		},
		{
			"overview page without actions paragraph",
			"# T1002 - Execution: Run Command\n\nRuns commands.\n\n| Sub | Name |\n|---|---|\n| T1002.1 | VM |\n\nResources:\nVirtual Machines\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Page{Path: "docs/x.md", Tree: mustTree(t, tt.md)}
			_, _, err := ExtractTechnique(page, "Impact", types.BriefIndex{}, "impact", types.ModeStrict)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnexpectedPageShape)

			var pe *PageError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "docs/x.md", pe.Path)
		})
	}
}

func TestExtractTechniqueUnexpectedMode(t *testing.T) {
	page := Page{Path: "p.md", Tree: mustTree(t, fencedPage)}
	_, _, err := ExtractTechnique(page, "Impact", types.BriefIndex{}, "impact", types.Mode("legacy"))
	assert.ErrorIs(t, err, types.ErrUnexpectedMode)
}

// --- field rules ---

func TestSplitValues(t *testing.T) {
	assert.Equal(t, []string{"foo", "bar"}, SplitValues([]string{"*foo", "N/A", "  bar  "}))
	assert.Equal(t, []string{}, SplitValues([]string{"", "n/a", "   "}))
	assert.Equal(t, []string{"*bold*"}, SplitValues([]string{"**bold*"}))
}

func TestExtractLinks(t *testing.T) {
	lines := []string{
		"[Guide](https://a.example/guide) and https://b.example",
		"https://c.example/path?q=1 trailing",
		"text before https://d.example",
		"[broken](not closed",
	}
	assert.Equal(t, []string{"https://a.example/guide", "https://c.example/path?q=1"}, ExtractLinks(lines))
	assert.Nil(t, ExtractLinks(nil))
}

func TestExtractLinksDestinations(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			"parentheses in url",
			"[Run Command](https://learn.microsoft.com/previous-versions/cc771051(v=ws.11))",
			"https://learn.microsoft.com/previous-versions/cc771051(v=ws.11)",
		},
		{"brackets in label", "[Azure [preview] docs](https://learn.microsoft.com/azure)", "https://learn.microsoft.com/azure"},
		{"title after url", `[Docs](https://learn.microsoft.com/x "Title")`, "https://learn.microsoft.com/x"},
		{"trailing parenthetical", "[Docs](https://a.example/x) (archived)", "https://a.example/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, []string{tt.want}, ExtractLinks([]string{tt.line}))
		})
	}
}

func TestExtractTechniqueDescriptionSegments(t *testing.T) {
	md := "# T1001 - Password Spraying\n\nSpray with `MSOLSpray` against tenants.\n"

	tech, _, err := ExtractTechnique(Page{Path: "p.md", Tree: mustTree(t, md)}, "Impact", types.BriefIndex{}, "impact", types.ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, "Spray with against tenants.", tech.Description)
}
