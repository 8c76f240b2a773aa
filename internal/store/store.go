// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps an SQLite index of built graphs, one set of rows per
// mode, and answers lookups and exports over it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/atrm-graph/pkg/types"
)

const defaultMaxResults = 20

// Store manages the graph index database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates the database at cfg.Path and bootstraps the
// schema.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, dir: dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tactics (
			mode TEXT NOT NULL,
			external_id TEXT NOT NULL,
			key TEXT NOT NULL,
			name TEXT NOT NULL,
			short_name TEXT NOT NULL,
			description TEXT,
			url TEXT,
			graph_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			created TEXT,
			modified TEXT,
			PRIMARY KEY (mode, external_id)
		)`,
		`CREATE TABLE IF NOT EXISTS techniques (
			mode TEXT NOT NULL,
			id TEXT NOT NULL,
			parent_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			brief TEXT,
			tactic TEXT NOT NULL,
			is_subtechnique INTEGER NOT NULL,
			kill_chain_phases TEXT,
			resources TEXT,
			actions TEXT,
			examples TEXT,
			detections TEXT,
			refs TEXT,
			version TEXT,
			position INTEGER NOT NULL,
			created TEXT,
			modified TEXT,
			source_path TEXT,
			PRIMARY KEY (mode, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_techniques_tactic ON techniques(mode, tactic)`,
		`CREATE INDEX IF NOT EXISTS idx_techniques_parent ON techniques(mode, parent_id)`,
		`CREATE TABLE IF NOT EXISTS relationships (
			mode TEXT NOT NULL,
			source_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			target_id TEXT NOT NULL,
			PRIMARY KEY (mode, source_id, kind, target_id),
			FOREIGN KEY (mode, source_id) REFERENCES techniques(mode, id) ON DELETE CASCADE,
			FOREIGN KEY (mode, target_id) REFERENCES techniques(mode, id) ON DELETE CASCADE
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IndexSummary holds the row counts written for one mode.
type IndexSummary struct {
	Mode          types.Mode
	Tactics       int
	Techniques    int
	Relationships int
}

// Total returns the number of rows written.
func (s IndexSummary) Total() int {
	return s.Tactics + s.Techniques + s.Relationships
}

// Index replaces every row of g.Mode with the contents of g in one
// transaction.
func (s *Store) Index(ctx context.Context, g *types.Graph, w io.Writer) (IndexSummary, error) {
	summary := IndexSummary{Mode: g.Mode}
	mode := string(g.Mode)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"relationships", "techniques", "tactics"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE mode = ?`, mode); err != nil {
			return summary, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for i, t := range g.Tactics {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tactics (mode, external_id, key, name, short_name, description, url, graph_id, position, created, modified)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			mode, t.ExternalID, t.Key, t.Name, t.ShortName, t.Description, t.URL, t.GraphID, i,
			formatTime(t.Created), formatTime(t.Modified),
		)
		if err != nil {
			return summary, fmt.Errorf("inserting tactic %s: %w", t.ExternalID, err)
		}
		summary.Tactics++
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO techniques (mode, id, parent_id, name, description, brief, tactic, is_subtechnique,
			kill_chain_phases, resources, actions, examples, detections, refs, version, position,
			created, modified, source_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return summary, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range g.Techniques {
		phasesJSON, _ := json.Marshal(t.KillChainPhases)
		refsJSON, _ := json.Marshal(t.References)
		_, err := stmt.ExecContext(ctx,
			mode, t.ID, t.ParentID, t.Name, t.Description, t.Brief, t.TacticShortName, t.IsSubtechnique,
			string(phasesJSON), encodeList(t.Resources), encodeList(t.Actions),
			encodeList(t.Examples), encodeList(t.Detections), string(refsJSON), t.Version, i,
			formatTime(t.Created), formatTime(t.Modified), t.SourcePath,
		)
		if err != nil {
			return summary, fmt.Errorf("inserting technique %s: %w", t.ID, err)
		}
		summary.Techniques++
	}

	for _, r := range g.Relationships {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO relationships (mode, source_id, kind, target_id) VALUES (?, ?, ?, ?)`,
			mode, r.SourceID, r.Kind, r.TargetID,
		)
		if err != nil {
			return summary, fmt.Errorf("inserting relationship %s -> %s: %w", r.SourceID, r.TargetID, err)
		}
		summary.Relationships++
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing index: %w", err)
	}

	fmt.Fprintf(w, "indexed %s: %d tactics, %d techniques, %d relationships\n",
		g.Mode, summary.Tactics, summary.Techniques, summary.Relationships)
	return summary, nil
}

// encodeList stores nil as NULL so absent fields stay absent on read.
func encodeList(v []string) any {
	if v == nil {
		return nil
	}
	data, _ := json.Marshal(v)
	return string(data)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// rowDecoder decodes the JSON and time columns of one row. The first
// failure sticks; later calls are no-ops and err reports it.
type rowDecoder struct {
	id  string
	err error
}

func (d *rowDecoder) fail(column string, err error) {
	if d.err == nil {
		d.err = fmt.Errorf("decoding %s of %s: %w", column, d.id, err)
	}
}

// list decodes a JSON string array. NULL stays nil.
func (d *rowDecoder) list(column string, v sql.NullString) []string {
	if d.err != nil || !v.Valid {
		return nil
	}
	list := []string{}
	if err := json.Unmarshal([]byte(v.String), &list); err != nil {
		d.fail(column, err)
		return nil
	}
	return list
}

// value decodes a JSON column into dst. NULL leaves dst untouched.
func (d *rowDecoder) value(column string, v sql.NullString, dst any) {
	if d.err != nil || !v.Valid {
		return
	}
	if err := json.Unmarshal([]byte(v.String), dst); err != nil {
		d.fail(column, err)
	}
}

// timestamp parses an RFC 3339 column. NULL is the zero time.
func (d *rowDecoder) timestamp(column string, v sql.NullString) time.Time {
	if d.err != nil || !v.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		d.fail(column, err)
	}
	return t
}
