package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pdiddy/atrm-graph/internal/pipeline"
	"github.com/pdiddy/atrm-graph/internal/publish"
	"github.com/pdiddy/atrm-graph/internal/stix"
	"github.com/pdiddy/atrm-graph/pkg/types"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Extract the matrix and write STIX bundles",
	Long: `Build reads every tactic under the docs directory, extracts the technique
graph, and writes one schema-validated STIX 2.1 bundle per mode:

  build/atrm_<mode>.json               latest bundle
  build/atrm_<mode>_<hash>.json        content-addressed copy
  build/reports/atrm_<mode>.yaml       run summary and skipped pages

With --publish and brokers configured (publish.brokers), every object of
each bundle is also produced to the configured Kafka topic.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().Bool("publish", false, "publish bundle objects to Kafka after writing them")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var pub *publish.Publisher
	if doPublish, _ := cmd.Flags().GetBool("publish"); doPublish {
		pub, err = publish.NewKafka(cfg.Publish)
		if err != nil {
			return err
		}
		defer pub.Close()
	}

	fs := afero.NewOsFs()
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	failed, err := eachGraph(ctx, cfg.Build, fs, out, func(mode types.Mode, g *types.Graph, summary pipeline.Summary) error {
		b, err := stix.Build(g, mode)
		if err != nil {
			return err
		}
		data, err := stix.Marshal(b)
		if err != nil {
			return err
		}
		if err := stix.Validate(data); err != nil {
			return err
		}

		paths, err := stix.WriteArtifacts(fs, cfg.Build.BuildDir, mode, data)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(out, "wrote   %s\n", p)
		}

		report := filepath.Join(cfg.Build.BuildDir, "reports", "atrm_"+mode.FileStem()+".yaml")
		if err := pipeline.WriteReport(fs, report, summary); err != nil {
			return err
		}

		if pub != nil {
			if _, err := pub.Publish(ctx, b, mode, out); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d page(s) skipped, see %s\n",
			failed, filepath.Join(cfg.Build.BuildDir, "reports"))
	}
	return nil
}
