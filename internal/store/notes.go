package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/mattsonlyattack/cons/internal/corerr"
)

// CreateNote inserts a new note and stamps CreatedAt/UpdatedAt/ID onto
// the passed struct. Content must be non-empty after trimming.
func (s *Store) CreateNote(n *Note) error {
	if strings.TrimSpace(n.Content) == "" {
		return corerr.New(corerr.KindValidation, "note content must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	res, err := s.db.Exec(
		`INSERT INTO notes (content, content_enhanced, enhancement_model, enhancement_confidence, enhanced_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.Content, n.ContentEnhanced, n.EnhancementModel, n.EnhancementConfidence, n.EnhancedAt, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to insert note", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to read inserted note id", err)
	}
	n.ID = id
	return nil
}

// GetNote fetches a note by id, or a NotFound corerr if absent.
func (s *Store) GetNote(id int64) (*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := &Note{}
	err := s.db.QueryRow(
		`SELECT id, content, content_enhanced, enhancement_model, enhancement_confidence, enhanced_at, created_at, updated_at
		 FROM notes WHERE id = ?`, id,
	).Scan(&n.ID, &n.Content, &n.ContentEnhanced, &n.EnhancementModel, &n.EnhancementConfidence, &n.EnhancedAt, &n.CreatedAt, &n.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, corerr.New(corerr.KindNotFound, "note not found")
	}
	if err != nil {
		return nil, corerr.Wrap(corerr.KindStorage, "failed to fetch note", err)
	}
	return n, nil
}

// UpdateNoteEnhancement writes the model-produced enhancement fields
// back onto a note (C8 enhancement step). It does not touch Content.
func (s *Store) UpdateNoteEnhancement(noteID int64, enhanced string, model string, confidence float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.Exec(
		`UPDATE notes SET content_enhanced = ?, enhancement_model = ?, enhancement_confidence = ?, enhanced_at = ?, updated_at = ?
		 WHERE id = ?`,
		enhanced, model, confidence, now, now, noteID,
	)
	if err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to update note enhancement", err)
	}
	return checkRowAffected(res, "note")
}

// ListNotes returns the most recently created notes first, limited to
// limit rows (0 means unlimited).
func (s *Store) ListNotes(limit int) ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, content, content_enhanced, enhancement_model, enhancement_confidence, enhanced_at, created_at, updated_at
	          FROM notes ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, corerr.Wrap(corerr.KindStorage, "failed to list notes", err)
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		n := &Note{}
		if err := rows.Scan(&n.ID, &n.Content, &n.ContentEnhanced, &n.EnhancementModel, &n.EnhancementConfidence, &n.EnhancedAt, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, corerr.Wrap(corerr.KindStorage, "failed to scan note", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// DeleteNote removes a note and, via ON DELETE CASCADE, its note_tags
// rows. Deleting a note that does not exist is a no-op, not an error:
// delete is idempotent per spec §4.2's cross-entity invariants.
func (s *Store) DeleteNote(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to delete note", err)
	}
	return nil
}

func checkRowAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to read rows affected", err)
	}
	if n == 0 {
		return corerr.New(corerr.KindNotFound, entity+" not found")
	}
	return nil
}
