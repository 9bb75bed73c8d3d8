package relationships

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mattsonlyattack/cons/internal/store"
)

func newTestGraph(t *testing.T) (*Graph, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "notes.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s), s
}

func TestForwardReverseAdjacency(t *testing.T) {
	g, s := newTestGraph(t)

	rust, _ := s.GetOrCreateTag("rust")
	lang, _ := s.GetOrCreateTag("programming-language")
	if _, err := g.CreateEdge(&store.Edge{SourceTagID: rust.ID, TargetTagID: lang.ID, HierarchyType: store.HierarchyGeneric, Confidence: 1.0, Source: store.SourceUser}); err != nil {
		t.Fatalf("CreateEdge() error = %v", err)
	}

	fwd, err := g.Forward(rust.ID)
	if err != nil || len(fwd) != 1 {
		t.Fatalf("Forward(rust) = %v, %v, want 1 edge", fwd, err)
	}
	rev, err := g.Reverse(lang.ID)
	if err != nil || len(rev) != 1 {
		t.Fatalf("Reverse(lang) = %v, %v, want 1 edge", rev, err)
	}
}

func TestActiveAtTemporalFilter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	edges := []*store.Edge{
		{ID: 1},                                       // always valid
		{ID: 2, ValidFrom: &future},                    // not yet valid
		{ID: 3, ValidUntil: &past},                     // expired
		{ID: 4, ValidFrom: &past, ValidUntil: &future},  // currently valid
	}

	active := ActiveAt(edges, now)
	if len(active) != 2 {
		t.Fatalf("ActiveAt() returned %d edges, want 2", len(active))
	}
	ids := map[int64]bool{}
	for _, e := range active {
		ids[e.ID] = true
	}
	if !ids[1] || !ids[4] {
		t.Errorf("ActiveAt() = %v, want edges 1 and 4", active)
	}
}

func TestRefreshCentralityAfterBatchInsert(t *testing.T) {
	g, s := newTestGraph(t)

	a, _ := s.GetOrCreateTag("a")
	b, _ := s.GetOrCreateTag("b")
	c, _ := s.GetOrCreateTag("c")

	if err := g.CreateEdgesTx([]*store.Edge{
		{SourceTagID: a.ID, TargetTagID: b.ID, Confidence: 1.0, Source: store.SourceUser},
		{SourceTagID: b.ID, TargetTagID: c.ID, Confidence: 1.0, Source: store.SourceUser},
	}); err != nil {
		t.Fatalf("CreateEdgesTx() error = %v", err)
	}

	if err := g.RefreshCentrality([]int64{a.ID, b.ID, c.ID}); err != nil {
		t.Fatalf("RefreshCentrality() error = %v", err)
	}

	refreshedB, err := s.GetTag(b.ID)
	if err != nil {
		t.Fatalf("GetTag() error = %v", err)
	}
	if refreshedB.DegreeCentrality != 2 {
		t.Errorf("b.DegreeCentrality = %d, want 2", refreshedB.DegreeCentrality)
	}

	maxDeg, err := g.MaxDegreeCentrality()
	if err != nil {
		t.Fatalf("MaxDegreeCentrality() error = %v", err)
	}
	if maxDeg != 2 {
		t.Errorf("MaxDegreeCentrality() = %d, want 2", maxDeg)
	}
}
