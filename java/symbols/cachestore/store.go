// Package cachestore persists the symbol table's resolution cache in a
// SQLite file. The envelope is always replaced as a whole, inside one
// transaction, so a reader never observes a half-written cache.
package cachestore

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("linkage.cachestore")

// Meta identifies the cache contents. A loaded envelope is only usable
// when all four fields match the current table.
type Meta struct {
	SchemaVersion string
	ToolVersion   string
	Fingerprint   string
	TargetRelease int
}

// Entry is one cached resolution. Origin columns are meaningful only when
// HasOrigin is set; SelectedVersion is zero for unversioned entries.
type Entry struct {
	Key             string
	Status          string
	Diagnostic      string
	HasOrigin       bool
	ClasspathEntry  string
	EntryName       string
	Versioned       bool
	SelectedVersion int
	Module          string
	ClassBytes      []byte
	PathHint        string
}

type Envelope struct {
	Meta    Meta
	Entries []Entry
}

// Store is the SQLite data access layer for the envelope.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the cache database at path and migrates it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS meta (
  id              INTEGER PRIMARY KEY CHECK (id = 1),
  schema_version  TEXT NOT NULL,
  tool_version    TEXT NOT NULL,
  fingerprint     TEXT NOT NULL,
  target_release  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
  cache_key        TEXT PRIMARY KEY,
  status           TEXT NOT NULL,
  diagnostic       TEXT NOT NULL DEFAULT '',
  has_origin       BOOLEAN NOT NULL DEFAULT FALSE,
  classpath_entry  TEXT NOT NULL DEFAULT '',
  entry_name       TEXT NOT NULL DEFAULT '',
  versioned        BOOLEAN NOT NULL DEFAULT FALSE,
  selected_version INTEGER NOT NULL DEFAULT 0,
  module_name      TEXT NOT NULL DEFAULT '',
  class_bytes      BLOB,
  path_hint        TEXT NOT NULL DEFAULT ''
);
`

// Load reads the whole envelope. It returns nil without error when
// nothing has been saved yet.
func (s *Store) Load() (*Envelope, error) {
	env := &Envelope{}
	err := s.db.QueryRow(
		`SELECT schema_version, tool_version, fingerprint, target_release FROM meta WHERE id = 1`,
	).Scan(&env.Meta.SchemaVersion, &env.Meta.ToolVersion, &env.Meta.Fingerprint, &env.Meta.TargetRelease)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query meta: %w", err)
	}

	rows, err := s.db.Query(`SELECT cache_key, status, diagnostic, has_origin, classpath_entry, entry_name,
		versioned, selected_version, module_name, class_bytes, path_hint FROM entries ORDER BY cache_key`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Status, &e.Diagnostic, &e.HasOrigin, &e.ClasspathEntry, &e.EntryName,
			&e.Versioned, &e.SelectedVersion, &e.Module, &e.ClassBytes, &e.PathHint); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		env.Entries = append(env.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	log.Debugf("loaded %d cache entries from %s", len(env.Entries), s.path)
	return env, nil
}

// Save replaces the stored envelope with env.
func (s *Store) Save(env Envelope) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta (id, schema_version, tool_version, fingerprint, target_release)
		VALUES (1, ?, ?, ?, ?)`,
		env.Meta.SchemaVersion, env.Meta.ToolVersion, env.Meta.Fingerprint, env.Meta.TargetRelease); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO entries (cache_key, status, diagnostic, has_origin, classpath_entry,
		entry_name, versioned, selected_version, module_name, class_bytes, path_hint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, e := range env.Entries {
		if _, err := stmt.Exec(e.Key, e.Status, e.Diagnostic, e.HasOrigin, e.ClasspathEntry, e.EntryName,
			e.Versioned, e.SelectedVersion, e.Module, e.ClassBytes, e.PathHint); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
