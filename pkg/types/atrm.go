// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the records shared by the atrm-graph pipeline:
// tactics, techniques, relationships, the assembled graph and configuration.
package types

// Fixed constants of the Azure Threat Research Matrix output.
const (
	// ATRMVersion is the x_mitre_version stamped on matrix-level objects.
	ATRMVersion = "0.1"

	// TechniqueVersion is the x_mitre_version stamped on techniques.
	TechniqueVersion = "1.0"

	// AttackSpecVersion is the x_mitre_attack_spec_version of every object.
	AttackSpecVersion = "2.1.0"

	// STIXSpecVersion is the STIX spec_version of every object.
	STIXSpecVersion = "2.1"

	// Platform is the single platform tag carried by every technique.
	Platform = "Azure AD"

	// CreatorIdentity is the authoring identity referenced by every object.
	CreatorIdentity = "identity--5dcf0a7a-875b-470b-8a01-7c6a84c5e68e"

	// BaseURL is the root of the published ATRM site.
	BaseURL = "https://microsoft.github.io/Azure-Threat-Research-Matrix"

	// LinkSourceName labels outbound references extracted from pages.
	LinkSourceName = "microsoft"
)

// TacticDef is one entry of the fixed tactic table: the directory key under
// docs/ and the external tactic code.
type TacticDef struct {
	Key  string `json:"key" yaml:"key"`
	Code string `json:"code" yaml:"code"`
}

// Tactics is the fixed, ordered set of ATRM tactics.
var Tactics = []TacticDef{
	{Key: "Reconnaissance", Code: "AZTA100"},
	{Key: "InitialAccess", Code: "AZTA200"},
	{Key: "Execution", Code: "AZTA300"},
	{Key: "PrivilegeEscalation", Code: "AZTA400"},
	{Key: "Persistence", Code: "AZTA500"},
	{Key: "CredentialAccess", Code: "AZTA600"},
	{Key: "Impact", Code: "AZTA700"},
}
