package store

import (
	"database/sql"
	"time"

	"github.com/mattsonlyattack/cons/internal/corerr"
)

// GetOrCreateTag looks up a tag by its already-normalized name,
// creating it if absent. Name must be the output of
// tagnorm.Normalize; this package does not normalize on its own.
func (s *Store) GetOrCreateTag(name string) (*Tag, error) {
	if name == "" {
		return nil, corerr.New(corerr.KindValidation, "tag name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tag, err := s.getTagLocked(name)
	if err == nil {
		return tag, nil
	}
	if corerr.KindOf(err) != corerr.KindNotFound {
		return nil, err
	}

	res, err := s.db.Exec(`INSERT INTO tags (name, degree_centrality) VALUES (?, 0)`, name)
	if err != nil {
		// Lost a race against another GetOrCreateTag for the same
		// name (UNIQUE COLLATE NOCASE); re-read instead of failing.
		if tag, rerr := s.getTagLocked(name); rerr == nil {
			return tag, nil
		}
		return nil, corerr.Wrap(corerr.KindStorage, "failed to insert tag", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, corerr.Wrap(corerr.KindStorage, "failed to read inserted tag id", err)
	}
	return &Tag{ID: id, Name: name}, nil
}

func (s *Store) getTagLocked(name string) (*Tag, error) {
	t := &Tag{}
	err := s.db.QueryRow(`SELECT id, name, degree_centrality FROM tags WHERE name = ? COLLATE NOCASE`, name).Scan(&t.ID, &t.Name, &t.DegreeCentrality)
	if err == sql.ErrNoRows {
		return nil, corerr.New(corerr.KindNotFound, "tag not found")
	}
	if err != nil {
		return nil, corerr.Wrap(corerr.KindStorage, "failed to fetch tag", err)
	}
	return t, nil
}

// GetTag fetches a tag by id.
func (s *Store) GetTag(id int64) (*Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := &Tag{}
	err := s.db.QueryRow(`SELECT id, name, degree_centrality FROM tags WHERE id = ?`, id).Scan(&t.ID, &t.Name, &t.DegreeCentrality)
	if err == sql.ErrNoRows {
		return nil, corerr.New(corerr.KindNotFound, "tag not found")
	}
	if err != nil {
		return nil, corerr.Wrap(corerr.KindStorage, "failed to fetch tag", err)
	}
	return t, nil
}

// FindTagByName fetches a tag by its exact normalized name without
// creating it.
func (s *Store) FindTagByName(name string) (*Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getTagLocked(name)
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags() ([]*Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, name, degree_centrality FROM tags ORDER BY name`)
	if err != nil {
		return nil, corerr.Wrap(corerr.KindStorage, "failed to list tags", err)
	}
	defer rows.Close()

	var tags []*Tag
	for rows.Next() {
		t := &Tag{}
		if err := rows.Scan(&t.ID, &t.Name, &t.DegreeCentrality); err != nil {
			return nil, corerr.Wrap(corerr.KindStorage, "failed to scan tag", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// RefreshDegreeCentrality recomputes a tag's cached degree (count of
// incident edges, either direction) per C5.
func (s *Store) RefreshDegreeCentrality(tagID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`UPDATE tags SET degree_centrality = (
			SELECT COUNT(*) FROM edges WHERE source_tag_id = ? OR target_tag_id = ?
		 ) WHERE id = ?`,
		tagID, tagID, tagID,
	)
	if err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to refresh degree centrality", err)
	}
	return nil
}

// AssignTag creates or replaces the (NoteID, TagID) assignment row.
// Per spec §3 a note_tags row is identified entirely by its composite
// key, so a repeat assignment from the same or a different source
// overwrites rather than duplicating.
func (s *Store) AssignTag(a *TagAssignment) error {
	if a.Confidence < 0 || a.Confidence > 1 {
		return corerr.New(corerr.KindValidation, "tag assignment confidence must be in [0,1]")
	}
	if a.Source != SourceUser && a.Source != SourceLLM {
		return corerr.New(corerr.KindValidation, "tag assignment source must be 'user' or 'llm'")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a.CreatedAt = time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO note_tags (note_id, tag_id, source, confidence, model_version, verified, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(note_id, tag_id) DO UPDATE SET
			source = excluded.source,
			confidence = excluded.confidence,
			model_version = excluded.model_version,
			verified = excluded.verified,
			created_at = excluded.created_at`,
		a.NoteID, a.TagID, a.Source, a.Confidence, a.ModelVersion, a.Verified, a.CreatedAt,
	)
	if err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to assign tag", err)
	}
	return nil
}

// RemoveTagAssignment deletes a (NoteID, TagID) row. Idempotent:
// removing an assignment that does not exist is not an error.
func (s *Store) RemoveTagAssignment(noteID, tagID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM note_tags WHERE note_id = ? AND tag_id = ?`, noteID, tagID)
	if err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to remove tag assignment", err)
	}
	return nil
}

// TagsForNote returns every tag assigned to a note, joined with tag
// names, ordered by tag name.
func (s *Store) TagsForNote(noteID int64) ([]TagAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT nt.note_id, nt.tag_id, t.name, nt.source, nt.confidence, nt.model_version, nt.verified, nt.created_at
		 FROM note_tags nt JOIN tags t ON t.id = nt.tag_id
		 WHERE nt.note_id = ? ORDER BY t.name`, noteID,
	)
	if err != nil {
		return nil, corerr.Wrap(corerr.KindStorage, "failed to fetch tags for note", err)
	}
	defer rows.Close()

	var assignments []TagAssignment
	for rows.Next() {
		var a TagAssignment
		if err := rows.Scan(&a.NoteID, &a.TagID, &a.TagName, &a.Source, &a.Confidence, &a.ModelVersion, &a.Verified, &a.CreatedAt); err != nil {
			return nil, corerr.Wrap(corerr.KindStorage, "failed to scan tag assignment", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// NotesForTag returns the ids of notes carrying the given tag.
func (s *Store) NotesForTag(tagID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT note_id FROM note_tags WHERE tag_id = ? ORDER BY note_id`, tagID)
	if err != nil {
		return nil, corerr.Wrap(corerr.KindStorage, "failed to fetch notes for tag", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, corerr.Wrap(corerr.KindStorage, "failed to scan note id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
