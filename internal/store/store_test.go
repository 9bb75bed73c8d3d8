package store

import (
	"path/filepath"
	"testing"

	"github.com/mattsonlyattack/cons/internal/corerr"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenInitSchema(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"notes", "tags", "note_tags", "tag_aliases", "edges", "schema_version"} {
		ok, err := s.TableExists(table)
		if err != nil {
			t.Fatalf("TableExists(%s) error = %v", table, err)
		}
		if !ok {
			t.Errorf("expected table %s to exist", table)
		}
	}

	version, err := s.GetSchemaVersion()
	if err != nil {
		t.Fatalf("GetSchemaVersion() error = %v", err)
	}
	if version < 1 {
		t.Errorf("GetSchemaVersion() = %d, want >= 1", version)
	}
}

func TestCreateGetDeleteNote(t *testing.T) {
	s := newTestStore(t)

	n := &Note{Content: "first note"}
	if err := s.CreateNote(n); err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	if n.ID == 0 {
		t.Fatal("CreateNote() did not assign an id")
	}

	got, err := s.GetNote(n.ID)
	if err != nil {
		t.Fatalf("GetNote() error = %v", err)
	}
	if got.Content != n.Content {
		t.Errorf("GetNote().Content = %q, want %q", got.Content, n.Content)
	}

	if err := s.DeleteNote(n.ID); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}
	if _, err := s.GetNote(n.ID); err == nil {
		t.Error("expected NotFound after delete")
	}

	// Idempotent delete.
	if err := s.DeleteNote(n.ID); err != nil {
		t.Errorf("second DeleteNote() error = %v, want nil (idempotent)", err)
	}
}

func TestCreateNoteRejectsEmptyContent(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateNote(&Note{Content: "   "})
	if err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestGetOrCreateTagDeduplicates(t *testing.T) {
	s := newTestStore(t)

	t1, err := s.GetOrCreateTag("rust")
	if err != nil {
		t.Fatalf("GetOrCreateTag() error = %v", err)
	}
	t2, err := s.GetOrCreateTag("rust")
	if err != nil {
		t.Fatalf("GetOrCreateTag() error = %v", err)
	}
	if t1.ID != t2.ID {
		t.Errorf("GetOrCreateTag() returned different ids for same name: %d != %d", t1.ID, t2.ID)
	}

	tags, err := s.ListTags()
	if err != nil {
		t.Fatalf("ListTags() error = %v", err)
	}
	if len(tags) != 1 {
		t.Errorf("ListTags() = %d tags, want 1", len(tags))
	}
}

func TestAssignTagAndCascadeOnNoteDelete(t *testing.T) {
	s := newTestStore(t)

	n := &Note{Content: "about rust"}
	if err := s.CreateNote(n); err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	tag, err := s.GetOrCreateTag("rust")
	if err != nil {
		t.Fatalf("GetOrCreateTag() error = %v", err)
	}

	if err := s.AssignTag(&TagAssignment{NoteID: n.ID, TagID: tag.ID, Source: SourceUser, Confidence: 1.0}); err != nil {
		t.Fatalf("AssignTag() error = %v", err)
	}

	assignments, err := s.TagsForNote(n.ID)
	if err != nil {
		t.Fatalf("TagsForNote() error = %v", err)
	}
	if len(assignments) != 1 || assignments[0].TagName != "rust" {
		t.Fatalf("TagsForNote() = %+v, want one assignment to 'rust'", assignments)
	}

	if err := s.DeleteNote(n.ID); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}

	remaining, err := s.NotesForTag(tag.ID)
	if err != nil {
		t.Fatalf("NotesForTag() error = %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected cascade to remove note_tags row, got %v", remaining)
	}
}

func TestCascadeOnTagDelete(t *testing.T) {
	s := newTestStore(t)

	n := &Note{Content: "about rust"}
	if err := s.CreateNote(n); err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	tag, err := s.GetOrCreateTag("rust")
	if err != nil {
		t.Fatalf("GetOrCreateTag() error = %v", err)
	}
	if err := s.AssignTag(&TagAssignment{NoteID: n.ID, TagID: tag.ID, Source: SourceUser, Confidence: 1.0}); err != nil {
		t.Fatalf("AssignTag() error = %v", err)
	}
	if err := s.CreateAlias(&TagAlias{Alias: "rs", CanonicalTagID: tag.ID, Source: SourceUser, Confidence: 1.0}); err != nil {
		t.Fatalf("CreateAlias() error = %v", err)
	}
	other, err := s.GetOrCreateTag("programming")
	if err != nil {
		t.Fatalf("GetOrCreateTag() error = %v", err)
	}
	if _, err := s.CreateEdge(&Edge{SourceTagID: tag.ID, TargetTagID: other.ID, HierarchyType: HierarchyGeneric, Confidence: 1.0, Source: SourceUser}); err != nil {
		t.Fatalf("CreateEdge() error = %v", err)
	}

	if _, err := s.db.Exec(`DELETE FROM tags WHERE id = ?`, tag.ID); err != nil {
		t.Fatalf("failed to delete tag: %v", err)
	}

	if assignments, _ := s.TagsForNote(n.ID); len(assignments) != 0 {
		t.Errorf("expected no orphan assignments, got %v", assignments)
	}
	if _, err := s.GetAlias("rs"); corerr.KindOf(err) != corerr.KindNotFound {
		t.Error("expected orphan alias to be cascaded away")
	}
	edges, err := s.EdgesIncident(other.ID)
	if err != nil {
		t.Fatalf("EdgesIncident() error = %v", err)
	}
	if len(edges) != 0 {
		t.Errorf("expected no orphan edges, got %v", edges)
	}
}

func TestMigrationIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.runMigrations(); err != nil {
		t.Fatalf("second runMigrations() error = %v, want nil (idempotent)", err)
	}
}
