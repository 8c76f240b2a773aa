// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vcs resolves the creation and modification time of ATRM pages,
// either from git history or from the file system.
package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/pdiddy/atrm-graph/pkg/types"
)

const binGit = "git"

// ErrNoHistory is returned when git knows no commit touching a path.
var ErrNoHistory = errors.New("no commit history")

// Provider resolves page timestamps.
type Provider interface {
	Times(ctx context.Context, path string) (created, modified time.Time, err error)
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Output(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

var defaultExec = &osExecutor{}

// Git reads timestamps from the commit history of a work tree: the oldest
// author date is the creation time and the newest the modification time.
// Renames are followed.
type Git struct {
	repo string
	exec executor
}

// NewGit returns a git provider for the work tree at repo. It fails when
// git is not on PATH.
func NewGit(repo string) (*Git, error) {
	return newGit(repo, defaultExec)
}

func newGit(repo string, exec executor) (*Git, error) {
	if _, err := exec.LookPath(binGit); err != nil {
		return nil, fmt.Errorf("git timestamps need %s on PATH: %w", binGit, err)
	}
	return &Git{repo: repo, exec: exec}, nil
}

func (g *Git) Times(ctx context.Context, path string) (time.Time, time.Time, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("resolving %s: %w", path, err)
	}

	out, err := g.exec.Output(ctx, g.repo, binGit, "log", "--follow", "--format=%aI", "--", abs)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("git log %s: %w", path, err)
	}

	var dates []time.Time
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		d, err := time.Parse(time.RFC3339, line)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing commit date %q for %s: %w", line, path, err)
		}
		dates = append(dates, d.UTC())
	}
	if len(dates) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s", ErrNoHistory, path)
	}

	// git log lists newest first.
	return dates[len(dates)-1], dates[0], nil
}

// ModTime uses the file modification time for both values.
type ModTime struct {
	fs afero.Fs
}

// NewModTime returns a provider reading modification times from fs.
func NewModTime(fs afero.Fs) *ModTime {
	return &ModTime{fs: fs}
}

func (m *ModTime) Times(_ context.Context, path string) (time.Time, time.Time, error) {
	info, err := m.fs.Stat(path)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}
	t := info.ModTime().UTC()
	return t, t, nil
}

// Static returns the same pair of times for every path.
type Static struct {
	Created  time.Time
	Modified time.Time
}

func (s Static) Times(context.Context, string) (time.Time, time.Time, error) {
	return s.Created, s.Modified, nil
}

// New returns the provider selected by source.
func New(source types.TimestampSource, repo string, fs afero.Fs) (Provider, error) {
	switch source {
	case types.TimestampsGit:
		return NewGit(repo)
	case types.TimestampsModTime:
		return NewModTime(fs), nil
	default:
		return nil, fmt.Errorf("unknown timestamp source %q", source)
	}
}
