// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists executed renames in a SQLite ledger so
// collisions are detected across runs, not only within one batch.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/report-renamer/pkg/types"
)

const dbFile = "renames.db"

// Store manages the rename ledger database.
type Store struct {
	db *sql.DB
}

// Exists reports whether a ledger database is already present under
// historyDir. Dry runs consult the ledger only when it exists, so a
// preview never creates files.
func Exists(historyDir string) bool {
	_, err := os.Stat(filepath.Join(historyDir, dbFile))
	return err == nil
}

// NewStore opens or creates the ledger at historyDir/renames.db and
// bootstraps the schema.
func NewStore(historyDir string) (*Store, error) {
	if err := os.MkdirAll(historyDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(historyDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	s := &Store{db: db}
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
		`CREATE TABLE IF NOT EXISTS renames (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			source_path TEXT NOT NULL,
			target_path TEXT NOT NULL UNIQUE,
			industry TEXT,
			region TEXT,
			title TEXT,
			institution TEXT,
			date TEXT,
			renamed_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_renames_renamed_at ON renames(renamed_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record appends one executed rename to the ledger.
func (s *Store) Record(ctx context.Context, source, target string, f types.InferredFields) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO renames (source_path, target_path, industry, region, title, institution, date, renamed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		source, target, f.Industry, f.Region, f.Title, f.Institution, f.Date,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording rename of %s: %w", source, err)
	}
	return nil
}

// TargetExists reports whether a previous run already produced target.
func (s *Store) TargetExists(ctx context.Context, target string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM renames WHERE target_path = ?`, target,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying ledger for %s: %w", target, err)
	}
	return n > 0, nil
}

// Entry is one executed rename as stored in the ledger.
type Entry struct {
	SourcePath string               `json:"source_path"`
	TargetPath string               `json:"target_path"`
	Fields     types.InferredFields `json:"fields"`
	RenamedAt  time.Time            `json:"renamed_at"`
}

// List returns the most recent entries, newest first. A limit of 0 uses 20.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source_path, target_path, industry, region, title, institution, date, renamed_at
		 FROM renames ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying ledger: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var renamedAt string
		if err := rows.Scan(
			&e.SourcePath, &e.TargetPath,
			&e.Fields.Industry, &e.Fields.Region, &e.Fields.Title, &e.Fields.Institution, &e.Fields.Date,
			&renamedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, renamedAt); err == nil {
			e.RenamedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
