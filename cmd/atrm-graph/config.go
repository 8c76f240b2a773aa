// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/pdiddy/atrm-graph/pkg/types"
)

// loadConfig assembles the run configuration from flags, the environment
// and the config file, in viper's precedence order.
func loadConfig() (types.Config, error) {
	var cfg types.Config

	cfg.Build = types.BuildConfig{
		DocsDir:       viper.GetString("build.docs_dir"),
		RepoDir:       viper.GetString("build.repo_dir"),
		BuildDir:      viper.GetString("build.build_dir"),
		SkipMalformed: viper.GetBool("build.skip_malformed"),
		Timestamps:    types.TimestampSource(viper.GetString("build.timestamps")),
	}
	for _, s := range viper.GetStringSlice("build.modes") {
		m, err := types.ParseMode(s)
		if err != nil {
			return cfg, fmt.Errorf("build.modes: %w", err)
		}
		cfg.Build.Modes = append(cfg.Build.Modes, m)
	}

	cfg.Store = types.StoreConfig{
		Path:       viper.GetString("store.path"),
		MaxResults: viper.GetInt("store.max_results"),
	}

	cfg.Publish = types.PublishConfig{
		Brokers: viper.GetStringSlice("publish.brokers"),
		Topic:   viper.GetString("publish.topic"),
	}

	if err := cfg.Build.Validate(); err != nil {
		return cfg, fmt.Errorf("build config: %w", err)
	}
	if err := cfg.Store.Validate(); err != nil {
		return cfg, fmt.Errorf("store config: %w", err)
	}
	if err := cfg.Publish.Validate(); err != nil {
		return cfg, fmt.Errorf("publish config: %w", err)
	}
	return cfg, nil
}
