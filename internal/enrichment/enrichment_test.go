package enrichment

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mattsonlyattack/cons/internal/collaborators"
	"github.com/mattsonlyattack/cons/internal/corerr"
	"github.com/mattsonlyattack/cons/internal/store"
)

type fakeTagger struct {
	tags map[string]float64
	err  error
}

func (f *fakeTagger) GenerateTags(ctx context.Context, model, content string) (map[string]float64, error) {
	return f.tags, f.err
}

type fakeEnhancer struct {
	result collaborators.EnhancementResult
	err    error
}

func (f *fakeEnhancer) EnhanceContent(ctx context.Context, model, content string) (collaborators.EnhancementResult, error) {
	return f.result, f.err
}

type fakeHierarchy struct {
	suggestions []collaborators.RelationshipSuggestion
	err         error
}

func (f *fakeHierarchy) SuggestRelationships(ctx context.Context, model string, tagNames []string) ([]collaborators.RelationshipSuggestion, error) {
	return f.suggestions, f.err
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "notes.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCaptureEnhancesAndTags(t *testing.T) {
	s := newTestStore(t)
	enhancer := &fakeEnhancer{result: collaborators.EnhancementResult{EnhancedContent: "Buy milk from the store.", Confidence: 0.9}}
	tagger := &fakeTagger{tags: map[string]float64{"groceries": 0.8}}
	o := New(s, tagger, enhancer, nil, Models{Tagger: "tagger-model", Enhancer: "enhancer-model"})

	note, err := o.Capture(context.Background(), "buy milk")
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if note.ContentEnhanced == nil || *note.ContentEnhanced != "Buy milk from the store." {
		t.Errorf("ContentEnhanced = %v, want enhanced text", note.ContentEnhanced)
	}

	assignments, err := s.TagsForNote(note.ID)
	if err != nil {
		t.Fatalf("TagsForNote() error = %v", err)
	}
	if len(assignments) != 1 || assignments[0].TagName != "groceries" {
		t.Errorf("assignments = %+v, want one groceries tag", assignments)
	}
}

func TestCaptureSurvivesEnhancementFailure(t *testing.T) {
	s := newTestStore(t)
	enhancer := &fakeEnhancer{err: corerr.New(corerr.KindParse, "unparsable")}
	tagger := &fakeTagger{tags: map[string]float64{"groceries": 0.8}}
	o := New(s, tagger, enhancer, nil, Models{Tagger: "tagger-model", Enhancer: "enhancer-model"})

	note, err := o.Capture(context.Background(), "buy milk")
	if err != nil {
		t.Fatalf("Capture() error = %v, want nil even though enhancement failed", err)
	}
	if note.ContentEnhanced != nil {
		t.Errorf("ContentEnhanced = %v, want nil (enhancement skipped)", note.ContentEnhanced)
	}

	assignments, err := s.TagsForNote(note.ID)
	if err != nil {
		t.Fatalf("TagsForNote() error = %v", err)
	}
	if len(assignments) != 1 || assignments[0].TagName != "groceries" {
		t.Errorf("assignments = %+v, tagging should still have run", assignments)
	}
}

func TestCaptureSurvivesTaggerTransportFailure(t *testing.T) {
	s := newTestStore(t)
	tagger := &fakeTagger{err: corerr.New(corerr.KindTransport, "ollama unreachable")}
	o := New(s, tagger, nil, nil, Models{Tagger: "tagger-model"})

	note, err := o.Capture(context.Background(), "buy milk")
	if err != nil {
		t.Fatalf("Capture() error = %v, want nil even though tagging failed", err)
	}

	assignments, err := s.TagsForNote(note.ID)
	if err != nil {
		t.Fatalf("TagsForNote() error = %v", err)
	}
	if len(assignments) != 0 {
		t.Errorf("assignments = %+v, want none (tagger transport failure swallowed)", assignments)
	}
}

func TestCaptureSkipsDisabledCollaborators(t *testing.T) {
	s := newTestStore(t)
	o := New(s, nil, nil, nil, Models{})

	note, err := o.Capture(context.Background(), "buy milk")
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if note.ContentEnhanced != nil {
		t.Errorf("ContentEnhanced = %v, want nil", note.ContentEnhanced)
	}
}

func TestAutoTagCreatesAliasForAcronym(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetOrCreateTag("machine-learning"); err != nil {
		t.Fatalf("GetOrCreateTag() error = %v", err)
	}

	tagger := &fakeTagger{tags: map[string]float64{"ml": 0.85}}
	o := New(s, tagger, nil, nil, Models{Tagger: "tagger-model"})

	note, err := o.Capture(context.Background(), "studying ML today")
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	assignments, err := s.TagsForNote(note.ID)
	if err != nil {
		t.Fatalf("TagsForNote() error = %v", err)
	}
	if len(assignments) != 1 || assignments[0].TagName != "machine-learning" {
		t.Fatalf("assignments = %+v, want canonical machine-learning tag attached, not the abbreviation", assignments)
	}

	alias, err := s.GetAlias("ml")
	if err != nil {
		t.Fatalf("GetAlias() error = %v, want the acronym heuristic to have created an alias", err)
	}
	if alias.Source != store.SourceLLM {
		t.Errorf("alias.Source = %v, want llm", alias.Source)
	}
}

func TestAutoTagCreatesAliasForPrefixMatch(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetOrCreateTag("rustlang"); err != nil {
		t.Fatalf("GetOrCreateTag() error = %v", err)
	}

	tagger := &fakeTagger{tags: map[string]float64{"rus": 0.7}}
	o := New(s, tagger, nil, nil, Models{Tagger: "tagger-model"})

	note, err := o.Capture(context.Background(), "writing rs code")
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	assignments, err := s.TagsForNote(note.ID)
	if err != nil {
		t.Fatalf("TagsForNote() error = %v", err)
	}
	if len(assignments) != 1 || assignments[0].TagName != "rustlang" {
		t.Fatalf("assignments = %+v, want canonical rustlang tag attached", assignments)
	}
}

func TestAutoTagAttachesDirectlyWhenNoAliasOpportunity(t *testing.T) {
	s := newTestStore(t)
	tagger := &fakeTagger{tags: map[string]float64{"golang": 0.9}}
	o := New(s, tagger, nil, nil, Models{Tagger: "tagger-model"})

	note, err := o.Capture(context.Background(), "writing go code")
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	assignments, err := s.TagsForNote(note.ID)
	if err != nil {
		t.Fatalf("TagsForNote() error = %v", err)
	}
	if len(assignments) != 1 || assignments[0].TagName != "golang" {
		t.Errorf("assignments = %+v, want golang tag attached directly", assignments)
	}
}

func TestFindAliasTargetRejectsLongTagNames(t *testing.T) {
	_, ok := findAliasTarget("database", []string{"database-systems"})
	if ok {
		t.Error("findAliasTarget should not trigger for tag names longer than 3 runes")
	}
}

func TestPopulateHierarchyInsertsAboveFloorAndRefreshesCentrality(t *testing.T) {
	s := newTestStore(t)
	transformer, err := s.GetOrCreateTag("transformer")
	if err != nil {
		t.Fatalf("GetOrCreateTag() error = %v", err)
	}
	neuralNetwork, err := s.GetOrCreateTag("neural-network")
	if err != nil {
		t.Fatalf("GetOrCreateTag() error = %v", err)
	}
	note := &store.Note{Content: "notes on transformers"}
	if err := s.CreateNote(note); err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	if err := s.AssignTag(&store.TagAssignment{NoteID: note.ID, TagID: transformer.ID, Source: store.SourceUser, Confidence: 1.0}); err != nil {
		t.Fatalf("AssignTag() error = %v", err)
	}
	if err := s.AssignTag(&store.TagAssignment{NoteID: note.ID, TagID: neuralNetwork.ID, Source: store.SourceUser, Confidence: 1.0}); err != nil {
		t.Fatalf("AssignTag() error = %v", err)
	}

	hierarchy := &fakeHierarchy{suggestions: []collaborators.RelationshipSuggestion{
		{SourceTag: "transformer", TargetTag: "neural-network", HierarchyType: collaborators.HierarchyGeneric, Confidence: 0.9},
	}}
	o := New(s, nil, nil, hierarchy, Models{Hierarchy: "hierarchy-model"})

	inserted, err := o.PopulateHierarchy(context.Background())
	if err != nil {
		t.Fatalf("PopulateHierarchy() error = %v", err)
	}
	if inserted != 1 {
		t.Fatalf("inserted = %d, want 1", inserted)
	}

	edges, err := s.EdgesFrom(transformer.ID)
	if err != nil {
		t.Fatalf("EdgesFrom() error = %v", err)
	}
	if len(edges) != 1 || edges[0].TargetTagID != neuralNetwork.ID {
		t.Fatalf("edges = %+v, want one edge to neural-network", edges)
	}

	refreshedSource, err := s.GetTag(transformer.ID)
	if err != nil {
		t.Fatalf("GetTag() error = %v", err)
	}
	if refreshedSource.DegreeCentrality != 1 {
		t.Errorf("DegreeCentrality = %d, want 1 after refresh", refreshedSource.DegreeCentrality)
	}
}

func TestPopulateHierarchyNoOpWithoutTaggedNotes(t *testing.T) {
	s := newTestStore(t)
	hierarchy := &fakeHierarchy{}
	o := New(s, nil, nil, hierarchy, Models{Hierarchy: "hierarchy-model"})

	inserted, err := o.PopulateHierarchy(context.Background())
	if err != nil {
		t.Fatalf("PopulateHierarchy() error = %v", err)
	}
	if inserted != 0 {
		t.Errorf("inserted = %d, want 0", inserted)
	}
}

func TestPopulateHierarchyDisabledWithoutSuggester(t *testing.T) {
	s := newTestStore(t)
	o := New(s, nil, nil, nil, Models{})

	inserted, err := o.PopulateHierarchy(context.Background())
	if err != nil {
		t.Fatalf("PopulateHierarchy() error = %v", err)
	}
	if inserted != 0 {
		t.Errorf("inserted = %d, want 0", inserted)
	}
}
