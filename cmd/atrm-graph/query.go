package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/atrm-graph/internal/store"
	"github.com/pdiddy/atrm-graph/pkg/types"
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search the indexed techniques",
	Long: `Query searches the SQLite index by text (id, name, brief, description)
and by filters. Matching is case-insensitive substring matching.

With --export the matching techniques are written to export.yaml or
export.json next to the database instead of being printed.`,
	RunE: runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.String("tactic", "", "filter by tactic short name (e.g. initial-access)")
	f.String("parent", "", "filter by parent technique id (e.g. AZT301)")
	f.String("in-mode", "", "restrict results to one mode")
	f.Int("limit", 0, "maximum results (default: store.max_results)")
	f.Bool("json", false, "print results as JSON")
	f.Bool("all", false, "allow an empty query (lists everything)")
	f.String("export", "", "write results to a file: yaml or json")
	rootCmd.AddCommand(queryCmd)
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) (store.QueryOptions, error) {
	opts := store.QueryOptions{Text: strings.Join(args, " ")}
	opts.Tactic, _ = cmd.Flags().GetString("tactic")
	opts.ParentID, _ = cmd.Flags().GetString("parent")
	opts.MaxResults, _ = cmd.Flags().GetInt("limit")

	if s, _ := cmd.Flags().GetString("in-mode"); s != "" {
		m, err := types.ParseMode(s)
		if err != nil {
			return opts, err
		}
		opts.Mode = m
	}
	return opts, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts, err := queryOptsFromFlags(cmd, args)
	if err != nil {
		return err
	}
	if all, _ := cmd.Flags().GetBool("all"); opts.IsEmpty() && !all {
		return fmt.Errorf("query or filter required: provide search text, --tactic, --parent or --in-mode (or --all)")
	}

	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch format, _ := cmd.Flags().GetString("export"); format {
	case "":
	case "yaml":
		path, err := s.ExportYAML(ctx, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "exported %s\n", path)
		return nil
	case "json":
		path, err := s.ExportJSON(ctx, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "exported %s\n", path)
		return nil
	default:
		return fmt.Errorf("unknown export format %q (want yaml or json)", format)
	}

	results, err := s.Query(ctx, opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(out, results, jsonOutput)
}

func formatQueryOutput(w io.Writer, results []store.Result, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-17s  %-12s  %-40s  %-22s  %s\n", "Mode", "ID", "Name", "Tactic", "Subs")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, r := range results {
		name := r.Technique.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		fmt.Fprintf(w, "%-17s  %-12s  %-40s  %-22s  %d\n",
			r.Mode, r.Technique.ID, name, r.Technique.TacticShortName, len(r.SubTechniques))
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}
