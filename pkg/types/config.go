// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TimestampSource selects how page creation/modification times are resolved.
type TimestampSource string

const (
	// TimestampsGit reads first and last commit dates from git history.
	TimestampsGit TimestampSource = "git"

	// TimestampsModTime uses the file modification time for both values.
	TimestampsModTime TimestampSource = "mtime"
)

// BuildConfig holds settings for the build stage.
type BuildConfig struct {
	// DocsDir is the ATRM docs/ directory holding one sub-directory per tactic.
	DocsDir string `json:"docs_dir" yaml:"docs_dir"`

	// RepoDir is the git work tree containing DocsDir. Used for timestamps.
	RepoDir string `json:"repo_dir" yaml:"repo_dir"`

	// BuildDir receives the bundle artifacts and run reports.
	BuildDir string `json:"build_dir" yaml:"build_dir"`

	// Modes lists the output modes to build (default: all).
	Modes []Mode `json:"modes" yaml:"modes"`

	// SkipMalformed records page-level extraction failures and continues
	// instead of aborting the run.
	SkipMalformed bool `json:"skip_malformed" yaml:"skip_malformed"`

	// Timestamps selects the timestamp provider.
	Timestamps TimestampSource `json:"timestamps" yaml:"timestamps"`
}

// Validate checks the build settings.
func (c BuildConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DocsDir, validation.Required),
		validation.Field(&c.BuildDir, validation.Required),
		validation.Field(&c.Modes, validation.Required,
			validation.Each(validation.In(ModeStrict, ModeAttackCompatible))),
		validation.Field(&c.Timestamps, validation.Required,
			validation.In(TimestampsGit, TimestampsModTime)),
	)
}

// StoreConfig holds settings for the SQLite graph index.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// Validate checks the store settings.
func (c StoreConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.MaxResults, validation.Min(0)),
	)
}

// PublishConfig holds settings for publishing bundle objects to Kafka.
// Publishing is disabled when Brokers is empty.
type PublishConfig struct {
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

// Enabled reports whether any broker is configured.
func (c PublishConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// Validate checks the publish settings. A topic is only required once
// brokers are configured.
func (c PublishConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Topic, validation.When(c.Enabled(), validation.Required)),
	)
}

// Config groups all stage configurations.
type Config struct {
	Build   BuildConfig   `json:"build" yaml:"build"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Publish PublishConfig `json:"publish" yaml:"publish"`
}
