package store

import (
	"strings"

	"github.com/mattsonlyattack/cons/internal/corerr"
)

// SearchHit is one row of an FTS query result: the matched note id
// and its relevance score normalized to [0,1] (higher is better).
type SearchHit struct {
	NoteID int64
	Score  float64
}

// Rebuild discards and repopulates notes_fts from the canonical notes
// and note_tags tables. The triggers in schema.go keep the index in
// sync incrementally; Rebuild exists for recovery (index corruption,
// a schema change, or the doctor command detecting drift) and runs
// the same delete-then-insert shape the triggers use, just over every
// row at once.
func (s *Store) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to begin fts rebuild transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM notes_fts`); err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to clear fts index", err)
	}

	_, err = tx.Exec(`
		INSERT INTO notes_fts (note_id, content, content_enhanced, tags)
		SELECT
			n.id,
			n.content,
			COALESCE(n.content_enhanced, ''),
			COALESCE((SELECT GROUP_CONCAT(t.name, ' ') FROM note_tags nt JOIN tags t ON t.id = nt.tag_id WHERE nt.note_id = n.id), '')
		FROM notes n
	`)
	if err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to repopulate fts index", err)
	}

	return tx.Commit()
}

// Query runs a conjunctive (AND-of-terms) full-text search over
// content, content_enhanced, and tags, ordered by ascending raw BM25
// (SQLite's bm25() is more-negative-is-better), and returns at most
// limit hits with scores normalized to [0,1) by normalizeBM25.
func (s *Store) Query(terms []string, limit int) ([]SearchHit, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	return s.QueryMatch(ftsMatchQuery(terms), limit)
}

// QueryMatch runs an arbitrary FTS5 MATCH expression (e.g. an
// AND-of-OR-groups composed by the search package for alias-expanded
// terms) and returns hits ordered and normalized the same way Query does.
func (s *Store) QueryMatch(match string, limit int) ([]SearchHit, error) {
	if match == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT note_id, bm25(notes_fts) AS rank FROM notes_fts WHERE notes_fts MATCH ? ORDER BY rank ASC LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, corerr.Wrap(corerr.KindStorage, "fts query failed", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var noteID int64
		var raw float64
		if err := rows.Scan(&noteID, &raw); err != nil {
			return nil, corerr.Wrap(corerr.KindStorage, "failed to scan fts hit", err)
		}
		hits = append(hits, SearchHit{NoteID: noteID, Score: normalizeBM25(raw)})
	}
	return hits, rows.Err()
}

// normalizeBM25 maps a raw bm25() score (lower/more negative is a
// better match) onto [0,1) with higher meaning better: the negated
// score r, clamped at 0, is mapped through r/(1+r), which is monotone.
func normalizeBM25(raw float64) float64 {
	r := -raw
	if r < 0 {
		r = 0
	}
	return r / (1 + r)
}

// ftsMatchQuery builds an FTS5 MATCH expression requiring every term
// to appear (implicit AND), quoting each term so punctuation in a
// term cannot be interpreted as FTS5 query syntax.
func ftsMatchQuery(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ReplaceAll(t, `"`, `""`)
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " AND ")
}
