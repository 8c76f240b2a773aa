// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stix

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrSchemaValidation is returned when a bundle does not satisfy the
// bundle schema.
var ErrSchemaValidation = errors.New("bundle schema validation failed")

//go:embed schema/bundle.schema.json
var bundleSchema []byte

const schemaURL = "bundle.schema.json"

// Issue is one schema violation.
type Issue struct {
	Location string
	Message  string
}

// ValidationError lists every schema violation of a bundle.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := issue.Location
		if location == "" {
			location = "#"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return fmt.Sprintf("%v: %s", ErrSchemaValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrSchemaValidation
}

// Validate checks serialized bundle data against the embedded schema.
func Validate(data []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("compiling bundle schema: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: decoding bundle: %v", ErrSchemaValidation, err)
	}

	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &ValidationError{Issues: collectIssues(ve)}
		}
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, bytes.NewReader(bundleSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
}

// collectIssues flattens the leaf causes of a validation error.
func collectIssues(err *jsonschema.ValidationError) []Issue {
	var issues []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
