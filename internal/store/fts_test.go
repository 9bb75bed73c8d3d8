package store

import "testing"

func TestQueryBM25Ranking(t *testing.T) {
	s := newTestStore(t)

	notes := map[string]string{
		"N1": "rust",
		"N2": "rust rust rust",
		"N3": "rust and more rust",
	}
	ids := map[string]int64{}
	for _, key := range []string{"N1", "N2", "N3"} {
		n := &Note{Content: notes[key]}
		if err := s.CreateNote(n); err != nil {
			t.Fatalf("CreateNote(%s) error = %v", key, err)
		}
		ids[key] = n.ID
	}

	hits, err := s.Query([]string{"rust"}, 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("Query() returned %d hits, want 3", len(hits))
	}

	want := []int64{ids["N2"], ids["N3"], ids["N1"]}
	for i, h := range hits {
		if h.NoteID != want[i] {
			t.Errorf("hits[%d].NoteID = %d, want %d (order %v)", i, h.NoteID, want[i], want)
		}
	}
}

func TestQueryScoreBounds(t *testing.T) {
	s := newTestStore(t)

	n := &Note{Content: "rust programming language"}
	if err := s.CreateNote(n); err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}

	hits, err := s.Query([]string{"rust"}, 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Query() returned %d hits, want 1", len(hits))
	}
	if hits[0].Score <= 0 || hits[0].Score > 1 {
		t.Errorf("Score = %v, want in (0,1]", hits[0].Score)
	}
}

func TestQueryNoMatch(t *testing.T) {
	s := newTestStore(t)

	n := &Note{Content: "rust programming language"}
	if err := s.CreateNote(n); err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}

	hits, err := s.Query([]string{"golang"}, 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Query() returned %d hits, want 0", len(hits))
	}
}

func TestFTSSynchronyAfterTagChange(t *testing.T) {
	s := newTestStore(t)

	n := &Note{Content: "about databases"}
	if err := s.CreateNote(n); err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	tag, err := s.GetOrCreateTag("sqlite")
	if err != nil {
		t.Fatalf("GetOrCreateTag() error = %v", err)
	}
	if err := s.AssignTag(&TagAssignment{NoteID: n.ID, TagID: tag.ID, Source: SourceUser, Confidence: 1.0}); err != nil {
		t.Fatalf("AssignTag() error = %v", err)
	}

	hits, err := s.Query([]string{"sqlite"}, 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 1 || hits[0].NoteID != n.ID {
		t.Fatalf("Query() = %+v, want one hit on note %d after tag trigger sync", hits, n.ID)
	}
}

func TestRebuildMatchesIncrementalIndex(t *testing.T) {
	s := newTestStore(t)

	n := &Note{Content: "graph spreading activation"}
	if err := s.CreateNote(n); err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}

	before, err := s.Query([]string{"spreading"}, 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if err := s.Rebuild(); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	after, err := s.Query([]string{"spreading"}, 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if len(before) != len(after) {
		t.Fatalf("Rebuild() changed hit count: before=%d after=%d", len(before), len(after))
	}
	for i := range before {
		if before[i].NoteID != after[i].NoteID {
			t.Errorf("Rebuild() hit[%d] = %d, want %d", i, after[i].NoteID, before[i].NoteID)
		}
	}
}
