package store

import (
	"strings"
	"time"
)

// runMigrations applies any forward-only migrations above the
// currently stamped schema_version. Migrations are idempotent: adding
// a column that already exists is swallowed, but only when the
// driver's error message matches SQLite's specific "duplicate column
// name" signal — any other failure still aborts the migration.
func (s *Store) runMigrations() error {
	version, err := s.GetSchemaVersion()
	if err != nil {
		return err
	}

	if version < 2 {
		if err := s.migrateV1ToV2(); err != nil {
			return err
		}
		version = 2
	}

	return nil
}

// migrateV1ToV2 adds the verified-review columns that later spec
// revisions introduced on note_tags and edges, for databases created
// before those columns existed in CoreSchema. New databases already
// have them from InitSchema, so every statement here is expected to
// be a no-op on a fresh store and is tolerated as such. It takes no
// lock of its own: InitSchema already holds s.mu when it runs
// migrations.
func (s *Store) migrateV1ToV2() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	statements := []string{
		`ALTER TABLE note_tags ADD COLUMN verified INTEGER NOT NULL DEFAULT 0`,
		`ALTER TABLE edges ADD COLUMN verified INTEGER NOT NULL DEFAULT 0`,
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			if isDuplicateColumnError(err) {
				log.Debug("migration statement skipped, column already exists", "statement", stmt)
				continue
			}
			return err
		}
	}

	if _, err := tx.Exec(`INSERT INTO schema_version (version, applied_at) VALUES (2, ?)`, time.Now().UTC()); err != nil {
		return err
	}

	return tx.Commit()
}

// isDuplicateColumnError matches SQLite's exact "duplicate column
// name" error text. A blanket swallow of any ALTER TABLE failure
// would also hide real errors (locked database, disk full); only this
// specific, known-benign signal is tolerated.
func isDuplicateColumnError(err error) bool {
	return strings.Contains(err.Error(), "duplicate column name")
}
