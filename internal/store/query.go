// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pdiddy/atrm-graph/pkg/types"
)

// QueryOptions holds parameters for technique queries.
type QueryOptions struct {
	// Text matches id, name, brief or description, case-insensitively.
	Text string

	// Mode restricts results to one mode. Empty means every mode.
	Mode types.Mode

	// Tactic filters by tactic short name.
	Tactic string

	// ParentID filters by parent technique id.
	ParentID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search text or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Text == "" && q.Mode == "" && q.Tactic == "" && q.ParentID == ""
}

// Result is a stored technique with the mode it was indexed under and the
// ids of its sub-techniques.
type Result struct {
	Mode          types.Mode      `json:"mode"`
	Technique     types.Technique `json:"technique"`
	SubTechniques []string        `json:"subtechniques"`
}

// Query returns techniques matching opts, ordered by mode and then by
// their position in the graph.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]Result, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)

	qb.WriteString(
		`SELECT t.mode, t.id, t.parent_id, t.name, t.description, t.brief, t.tactic, t.is_subtechnique,
			t.kill_chain_phases, t.resources, t.actions, t.examples, t.detections, t.refs, t.version,
			t.created, t.modified, t.source_path,
			(SELECT json_group_array(r.source_id) FROM relationships r
			 WHERE r.mode = t.mode AND r.target_id = t.id AND r.kind = ?)
		FROM techniques t
		WHERE 1=1`)
	args = append(args, types.RelationSubtechniqueOf)

	if opts.Text != "" {
		pattern := "%" + escapeLike(opts.Text) + "%"
		qb.WriteString(` AND (t.id LIKE ? ESCAPE '\' OR t.name LIKE ? ESCAPE '\' OR t.brief LIKE ? ESCAPE '\' OR t.description LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern, pattern)
	}

	if opts.Mode != "" {
		qb.WriteString(` AND t.mode = ?`)
		args = append(args, string(opts.Mode))
	}

	if opts.Tactic != "" {
		qb.WriteString(` AND t.tactic = ?`)
		args = append(args, opts.Tactic)
	}

	if opts.ParentID != "" {
		qb.WriteString(` AND t.parent_id = ?`)
		args = append(args, opts.ParentID)
	}

	qb.WriteString(` ORDER BY t.mode, t.position LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying graph index: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			r                            Result
			mode                         string
			t                            = &r.Technique
			phasesJSON, refsJSON         sql.NullString
			resources, actions           sql.NullString
			examples, detections         sql.NullString
			created, modified, childJSON sql.NullString
		)

		if err := rows.Scan(
			&mode, &t.ID, &t.ParentID, &t.Name, &t.Description, &t.Brief, &t.TacticShortName, &t.IsSubtechnique,
			&phasesJSON, &resources, &actions, &examples, &detections, &refsJSON, &t.Version,
			&created, &modified, &t.SourcePath, &childJSON,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		r.Mode = types.Mode(mode)
		t.Platforms = []string{types.Platform}

		d := rowDecoder{id: t.ID}
		t.Resources = d.list("resources", resources)
		t.Actions = d.list("actions", actions)
		t.Examples = d.list("examples", examples)
		t.Detections = d.list("detections", detections)
		t.Created = d.timestamp("created", created)
		t.Modified = d.timestamp("modified", modified)
		d.value("kill_chain_phases", phasesJSON, &t.KillChainPhases)
		d.value("refs", refsJSON, &t.References)
		children := d.list("subtechniques", childJSON)
		if d.err != nil {
			return nil, d.err
		}
		if len(children) > 0 {
			r.SubTechniques = children
		}

		results = append(results, r)
	}

	return results, rows.Err()
}

// Tactics returns the tactics indexed for mode in table order.
func (s *Store) Tactics(ctx context.Context, mode types.Mode) ([]types.Tactic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT external_id, key, name, short_name, description, url, graph_id, created, modified
		 FROM tactics WHERE mode = ? ORDER BY position`, string(mode))
	if err != nil {
		return nil, fmt.Errorf("querying tactics: %w", err)
	}
	defer rows.Close()

	var tactics []types.Tactic
	for rows.Next() {
		var (
			t                 types.Tactic
			created, modified sql.NullString
		)
		if err := rows.Scan(&t.ExternalID, &t.Key, &t.Name, &t.ShortName, &t.Description, &t.URL, &t.GraphID, &created, &modified); err != nil {
			return nil, fmt.Errorf("scanning tactic: %w", err)
		}
		d := rowDecoder{id: t.ExternalID}
		t.Created = d.timestamp("created", created)
		t.Modified = d.timestamp("modified", modified)
		if d.err != nil {
			return nil, d.err
		}
		tactics = append(tactics, t)
	}
	return tactics, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
