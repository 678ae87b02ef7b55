// Package personalization is the opaque key→profile store spec §1/§6
// treats as an external collaborator: a normalized-lowercase-name-keyed
// profile of {displayName, contextLines[], updatedAt} with most-recent-N
// retention. Grounded in the teacher's dependency on `mattn/go-sqlite3`
// (carried transitively via gorm's sqlite driver) and in
// beeper-ai-bridge/pkg/textfs/store.go's "plain database/sql, no ORM,
// explicit SQL strings" shape — adapted from that package's
// read/write-one-file contract to read/append-one-profile.
package personalization

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/piyushdatta/senseboard-server/internal/logger"
)

// Profile is the external-facing shape spec §6 names:
// {nameKey,displayName,contextLines[],updatedAt}.
type Profile struct {
	NameKey      string    `json:"nameKey"`
	DisplayName  string    `json:"displayName"`
	ContextLines []string  `json:"contextLines"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Store is the sqlite-backed implementation of spec §9's
// getProfile/appendContext/promptLines collaborator interface, and also
// satisfies orchestrator.ContextProvider (ContextLines) so it can be
// wired directly into the personal board engine.
type Store struct {
	db              *sql.DB
	log             *logger.Logger
	maxContextLines int
}

// Open creates (if needed) the sqlite file at path and its schema.
func Open(path string, maxContextLines int, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	if path == "" {
		return nil, fmt.Errorf("personalization: sqlite path required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("personalization: create data dir: %w", err)
		}
	}
	if maxContextLines <= 0 {
		maxContextLines = 20
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("personalization: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite3 driver is not safe for concurrent writers

	s := &Store{db: db, log: log.With("component", "personalization.Store"), maxContextLines: maxContextLines}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS profiles (
  name_key     TEXT PRIMARY KEY,
  display_name TEXT NOT NULL,
  updated_at   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS context_lines (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  name_key   TEXT NOT NULL,
  text       TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_context_lines_name_key ON context_lines(name_key, id);
`)
	return err
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetProfile returns the stored profile for name, or an empty profile
// (ok=false) if none has been created yet.
func (s *Store) GetProfile(name string) (Profile, bool, error) {
	key := normalizeName(name)
	if key == "" {
		return Profile{}, false, fmt.Errorf("personalization: empty name")
	}

	var displayName string
	var updatedAtMs int64
	row := s.db.QueryRow(`SELECT display_name, updated_at FROM profiles WHERE name_key = ?`, key)
	if err := row.Scan(&displayName, &updatedAtMs); err != nil {
		if err == sql.ErrNoRows {
			return Profile{}, false, nil
		}
		return Profile{}, false, fmt.Errorf("personalization: get profile: %w", err)
	}

	lines, err := s.contextLines(key, s.maxContextLines)
	if err != nil {
		return Profile{}, false, err
	}

	return Profile{
		NameKey:      key,
		DisplayName:  displayName,
		ContextLines: lines,
		UpdatedAt:    time.UnixMilli(updatedAtMs),
	}, true, nil
}

// AppendContext records one new context line for name (creating the
// profile on first use) and prunes rows beyond maxContextLines retention,
// returning the updated profile.
func (s *Store) AppendContext(name, text string, displayName string, now time.Time) (Profile, error) {
	key := normalizeName(name)
	if key == "" {
		return Profile{}, fmt.Errorf("personalization: empty name")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Profile{}, fmt.Errorf("personalization: empty context text")
	}
	if displayName == "" {
		displayName = name
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Profile{}, fmt.Errorf("personalization: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	nowMs := now.UnixMilli()
	if _, err := tx.Exec(`
INSERT INTO profiles (name_key, display_name, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name_key) DO UPDATE SET display_name = excluded.display_name, updated_at = excluded.updated_at
`, key, displayName, nowMs); err != nil {
		return Profile{}, fmt.Errorf("personalization: upsert profile: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO context_lines (name_key, text, created_at) VALUES (?, ?, ?)`, key, text, nowMs); err != nil {
		return Profile{}, fmt.Errorf("personalization: insert context line: %w", err)
	}

	// Most-recent-N retention (spec §6): delete everything older than the
	// newest maxContextLines rows for this name.
	if _, err := tx.Exec(`
DELETE FROM context_lines
WHERE name_key = ? AND id NOT IN (
  SELECT id FROM context_lines WHERE name_key = ? ORDER BY id DESC LIMIT ?
)`, key, key, s.maxContextLines); err != nil {
		return Profile{}, fmt.Errorf("personalization: prune context lines: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Profile{}, fmt.Errorf("personalization: commit tx: %w", err)
	}

	lines, err := s.contextLines(key, s.maxContextLines)
	if err != nil {
		return Profile{}, err
	}
	return Profile{NameKey: key, DisplayName: displayName, ContextLines: lines, UpdatedAt: now}, nil
}

func (s *Store) contextLines(key string, max int) ([]string, error) {
	rows, err := s.db.Query(`SELECT text FROM context_lines WHERE name_key = ? ORDER BY id ASC LIMIT ?`, key, max)
	if err != nil {
		return nil, fmt.Errorf("personalization: query context lines: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("personalization: scan context line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// ContextLines implements orchestrator.ContextProvider, returning up to
// max of the member's stored context lines for prompt assembly (spec
// §4.6).
func (s *Store) ContextLines(memberName string, max int) []string {
	key := normalizeName(memberName)
	if key == "" {
		return nil
	}
	if max <= 0 || max > s.maxContextLines {
		max = s.maxContextLines
	}
	lines, err := s.contextLines(key, max)
	if err != nil {
		s.log.Warn("personalization: ContextLines query failed", "name", key, "error", err)
		return nil
	}
	return lines
}
