// Package store implements the persistence layer (C2) and full-text
// index (C3): a single-writer SQLite database holding notes, tags,
// tag assignments, tag aliases, and hierarchy edges, plus the FTS5
// shadow index kept in sync by triggers and rebuilt on demand.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mattsonlyattack/cons/internal/corerr"
	"github.com/mattsonlyattack/cons/internal/logging"
)

var log = logging.GetLogger("store")

// Store wraps a single SQLite connection. Per spec §5, the engine is
// single-threaded and synchronous: the connection pool is capped at
// one connection and all access is additionally serialized behind mu
// so that multi-statement operations (e.g. FTS rebuild) are atomic
// from the caller's point of view.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// Open opens (creating if necessary) the SQLite database at path in
// WAL mode with foreign keys enforced, and ensures the schema exists.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, corerr.Wrap(corerr.KindStorage, "failed to create database directory", err)
		}
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, corerr.Wrap(corerr.KindStorage, "failed to open database", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, corerr.Wrap(corerr.KindStorage, "failed to connect to database", err)
	}

	s := &Store{db: db, path: path}
	if err := s.InitSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// InitSchema creates all tables, indices, and FTS triggers if they do
// not already exist, then runs any pending migrations. It is safe to
// call on an already-initialized database.
func (s *Store) InitSchema() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to begin schema transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(CoreSchema); err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to create core schema", err)
	}

	if _, err := tx.Exec(FTS5Schema); err != nil {
		// FTS5 may be unavailable in a misbuilt sqlite3 driver; the
		// store remains usable for relational operations, but search
		// degrades. Warn rather than fail closed.
		log.Warn("FTS5 schema creation failed; full-text search will be unavailable", "error", err)
	}

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&count); err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to read schema_version", err)
	}
	if count == 0 {
		if _, err := tx.Exec(`INSERT INTO schema_version (version, applied_at) VALUES (?, ?)`, schemaVersion, time.Now().UTC()); err != nil {
			return corerr.Wrap(corerr.KindStorage, "failed to stamp schema_version", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to commit schema transaction", err)
	}

	return s.runMigrations()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for callers (activation's
// recursive query) that need direct query access under the shared
// connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the filesystem path this store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Lock/Unlock/RLock/RUnlock expose the store's serialization mutex to
// callers outside this package that must run several statements as
// one logical unit.
func (s *Store) Lock()    { s.mu.Lock() }
func (s *Store) Unlock()  { s.mu.Unlock() }
func (s *Store) RLock()   { s.mu.RLock() }
func (s *Store) RUnlock() { s.mu.RUnlock() }

// GetSchemaVersion returns the currently applied schema version.
func (s *Store) GetSchemaVersion() (int, error) {
	var v int
	err := s.db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v)
	if err != nil {
		return 0, corerr.Wrap(corerr.KindStorage, "failed to read schema version", err)
	}
	return v, nil
}

// TableExists reports whether a table with the given name exists.
func (s *Store) TableExists(name string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	if err != nil {
		return false, corerr.Wrap(corerr.KindStorage, "failed to check table existence", err)
	}
	return n > 0, nil
}

// CountRows returns the row count of the given table.
func (s *Store) CountRows(table string) (int, error) {
	var n int
	err := s.db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n)
	if err != nil {
		return 0, corerr.Wrap(corerr.KindStorage, "failed to count rows in "+table, err)
	}
	return n, nil
}

// Stats summarizes store health for the doctor command.
type Stats struct {
	SchemaVersion int
	NoteCount     int
	TagCount      int
	EdgeCount     int
	FTSRowCount   int
}

// GetStats gathers row counts used by the doctor diagnostic to detect
// FTS/canonical-table drift (spec §4.3's synchrony invariant).
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}
	var err error

	if stats.SchemaVersion, err = s.GetSchemaVersion(); err != nil {
		return nil, err
	}
	if stats.NoteCount, err = s.CountRows("notes"); err != nil {
		return nil, err
	}
	if stats.TagCount, err = s.CountRows("tags"); err != nil {
		return nil, err
	}
	if stats.EdgeCount, err = s.CountRows("edges"); err != nil {
		return nil, err
	}

	hasFTS, err := s.TableExists("notes_fts")
	if err != nil {
		return nil, err
	}
	if hasFTS {
		if stats.FTSRowCount, err = s.CountRows("notes_fts"); err != nil {
			return nil, err
		}
	}

	return stats, nil
}
