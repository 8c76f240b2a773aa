//go:build mage

// Package main contains Mage build targets for atrm-graph developer tooling.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories a build expects.
var projectDirs = []string{
	"build",
	"build/reports",
	"build/index",
}

// Init creates the output directory structure.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Output directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "atrm-graph"
	cmdPkg  = "./cmd/atrm-graph"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Generate builds the CLI and writes the STIX bundles for every mode.
// ATRM_DOCS points at the matrix docs directory (default: docs).
func Generate() error {
	mg.Deps(Init, Build)
	docs := os.Getenv("ATRM_DOCS")
	if docs == "" {
		docs = "docs"
	}
	return sh.RunV(filepath.Join(binDir, binName), "build", "--docs-dir", docs)
}

// Index builds the CLI and refreshes the local SQLite index.
func Index() error {
	mg.Deps(Init, Build)
	docs := os.Getenv("ATRM_DOCS")
	if docs == "" {
		docs = "docs"
	}
	return sh.RunV(filepath.Join(binDir, binName), "index", "--docs-dir", docs)
}

// Stats prints project metrics: Go production/test lines and the number of
// tactic and technique pages under ATRM_DOCS.
func Stats() error {
	var prod, test int
	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return err
		}
		if strings.HasSuffix(path, "_test.go") {
			test += n
		} else {
			prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	docs := os.Getenv("ATRM_DOCS")
	if docs == "" {
		docs = "docs"
	}
	tactics, pages, err := countPages(docs)
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prod)
	fmt.Printf("Lines of code (Go, tests):      %d\n", test)
	fmt.Printf("Tactic directories:              %d\n", tactics)
	fmt.Printf("Markdown pages:                  %d\n", pages)
	return nil
}

// countLines counts non-blank lines in a file.
func countLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	n := 0
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	return n, nil
}

// countPages counts the top-level directories and .md files under root. A
// missing root counts as empty.
func countPages(root string) (dirs, pages int, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		switch {
		case d.IsDir() && filepath.Dir(path) == filepath.Clean(root):
			dirs++
		case !d.IsDir() && filepath.Ext(path) == ".md":
			pages++
		}
		return nil
	})
	return dirs, pages, err
}
