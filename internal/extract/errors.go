// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedTableShape is returned when a technique table violates
	// the expected column layout.
	ErrUnexpectedTableShape = errors.New("unexpected table shape")

	// ErrUnexpectedPageShape is returned when a page lacks a block the
	// recognized shape requires.
	ErrUnexpectedPageShape = errors.New("unexpected page shape")
)

// PageError ties an extraction failure to the page it came from, so a
// caller can tell "this page is malformed" from a run-level failure.
type PageError struct {
	Path string
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

func pageErr(path string, err error) error {
	return &PageError{Path: path, Err: err}
}
