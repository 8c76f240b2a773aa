// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Document is one markdown page as read from the docs tree.
type Document struct {
	Path string
	Raw  []byte
}

// TacticDocuments holds the pages of one tactic: its overview page and its
// technique pages in a stable order.
type TacticDocuments struct {
	Def        TacticDef
	Overview   Document
	Techniques []Document
}
