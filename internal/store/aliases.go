package store

import (
	"database/sql"
	"time"

	"github.com/mattsonlyattack/cons/internal/corerr"
)

// CreateAlias maps alias to an existing canonical tag, replacing any
// row already stored for the same alias string. Only the column-level
// invariants are checked here; the alias package enforces the
// no-chaining and no-shadowing rules before calling this.
func (s *Store) CreateAlias(a *TagAlias) error {
	if a.Alias == "" {
		return corerr.New(corerr.KindValidation, "alias must not be empty")
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return corerr.New(corerr.KindValidation, "alias confidence must be in [0,1]")
	}
	if a.Source != SourceUser && a.Source != SourceLLM {
		return corerr.New(corerr.KindValidation, "alias source must be 'user' or 'llm'")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a.CreatedAt = time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO tag_aliases (alias, canonical_tag_id, source, confidence, model_version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(alias) DO UPDATE SET
			canonical_tag_id = excluded.canonical_tag_id,
			source = excluded.source,
			confidence = excluded.confidence,
			model_version = excluded.model_version,
			created_at = excluded.created_at`,
		a.Alias, a.CanonicalTagID, a.Source, a.Confidence, a.ModelVersion, a.CreatedAt,
	)
	if err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to create alias", err)
	}
	return nil
}

// GetAlias fetches an alias row by its exact alias string.
func (s *Store) GetAlias(alias string) (*TagAlias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a := &TagAlias{}
	err := s.db.QueryRow(
		`SELECT alias, canonical_tag_id, source, confidence, model_version, created_at
		 FROM tag_aliases WHERE alias = ?`, alias,
	).Scan(&a.Alias, &a.CanonicalTagID, &a.Source, &a.Confidence, &a.ModelVersion, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, corerr.New(corerr.KindNotFound, "alias not found")
	}
	if err != nil {
		return nil, corerr.Wrap(corerr.KindStorage, "failed to fetch alias", err)
	}
	return a, nil
}

// IsTagName reports whether name is already a canonical tag name,
// used by the alias package to reject alias creation that would
// shadow an existing tag.
func (s *Store) IsTagName(name string) (bool, error) {
	_, err := s.FindTagByName(name)
	if err == nil {
		return true, nil
	}
	if corerr.KindOf(err) == corerr.KindNotFound {
		return false, nil
	}
	return false, err
}

// RemoveAlias deletes an alias. Idempotent.
func (s *Store) RemoveAlias(alias string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM tag_aliases WHERE alias = ?`, alias)
	if err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to remove alias", err)
	}
	return nil
}

// AliasesForTag returns every alias pointing at the given canonical tag.
func (s *Store) AliasesForTag(tagID int64) ([]*TagAlias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT alias, canonical_tag_id, source, confidence, model_version, created_at
		 FROM tag_aliases WHERE canonical_tag_id = ? ORDER BY alias`, tagID,
	)
	if err != nil {
		return nil, corerr.Wrap(corerr.KindStorage, "failed to fetch aliases for tag", err)
	}
	defer rows.Close()

	var aliases []*TagAlias
	for rows.Next() {
		a := &TagAlias{}
		if err := rows.Scan(&a.Alias, &a.CanonicalTagID, &a.Source, &a.Confidence, &a.ModelVersion, &a.CreatedAt); err != nil {
			return nil, corerr.Wrap(corerr.KindStorage, "failed to scan alias", err)
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}
