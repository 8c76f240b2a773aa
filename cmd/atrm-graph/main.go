// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the atrm-graph CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the atrm-graph CLI.
var rootCmd = &cobra.Command{
	Use:   "atrm-graph",
	Short: "Build STIX bundles from the Azure Threat Research Matrix",
	Long: `atrm-graph reads the Azure Threat Research Matrix documentation tree
(one markdown page per tactic and per technique), extracts a cross-referenced
graph of tactics, techniques and sub-technique relationships, and writes it as
STIX 2.1 bundles in strict and ATT&CK-compatible vocabularies.

The build subcommand writes the bundles; index and query maintain and search
a local SQLite index of the same graph.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./atrm-graph.yaml or ~/.config/atrm-graph/atrm-graph.yaml)")
	pf.String("env-file", ".env", "dotenv file loaded before reading the environment")
	pf.String("docs-dir", "docs", "ATRM docs directory holding one sub-directory per tactic")
	pf.String("repo-dir", ".", "git work tree containing the docs directory")
	pf.String("build-dir", "build", "output directory for bundles and run reports")
	pf.StringSlice("mode", []string{"strict", "attack-compatible"}, "output modes to build: strict, attack-compatible")
	pf.String("timestamps", "git", "timestamp source: git or mtime")
	pf.Bool("skip-malformed", false, "record malformed pages and continue instead of aborting")
	pf.String("db", filepath.Join("build", "index", "atrm.db"), "SQLite graph index path")

	bindFlags(map[string]string{
		"build.docs_dir":       "docs-dir",
		"build.repo_dir":       "repo-dir",
		"build.build_dir":      "build-dir",
		"build.modes":          "mode",
		"build.timestamps":     "timestamps",
		"build.skip_malformed": "skip-malformed",
		"store.path":           "db",
	})
	viper.SetDefault("store.max_results", 20)
	viper.SetDefault("publish.topic", "atrm-stix")
}

func bindFlags(keys map[string]string) {
	for key, flag := range keys {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", flag, err))
		}
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("atrm-graph")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "atrm-graph"))
		}
	}

	viper.SetEnvPrefix("ATRM_GRAPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
