package enrichment

import (
	"context"
	"testing"

	"github.com/mattsonlyattack/cons/internal/collaborators"
	"github.com/mattsonlyattack/cons/internal/corerr"
	"github.com/mattsonlyattack/cons/internal/search"
	"github.com/mattsonlyattack/cons/internal/store"
)

type fakeAnswerer struct {
	result collaborators.AnswerResult
	err    error
}

func (f *fakeAnswerer) Answer(ctx context.Context, model, question string, context []collaborators.AnswerContextNote) (collaborators.AnswerResult, error) {
	return f.result, f.err
}

func TestAskReturnsNoRelevantNoteWhenSearchFindsNothing(t *testing.T) {
	s := newTestStore(t)
	engine := search.New(s)
	answerer := &fakeAnswerer{}
	a := NewAsker(engine, answerer, "answerer-model")

	result, err := a.Ask(context.Background(), s.GetNote, "what is the capital of mars")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if !result.NoRelevantNote {
		t.Error("expected NoRelevantNote=true when nothing was retrieved")
	}
}

func TestAskPassesRetrievedNotesToAnswerer(t *testing.T) {
	s := newTestStore(t)
	note := &store.Note{Content: "rust ownership system explained"}
	if err := s.CreateNote(note); err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	tag, err := s.GetOrCreateTag("rust")
	if err != nil {
		t.Fatalf("GetOrCreateTag() error = %v", err)
	}
	if err := s.AssignTag(&store.TagAssignment{NoteID: note.ID, TagID: tag.ID, Source: store.SourceUser, Confidence: 1.0}); err != nil {
		t.Fatalf("AssignTag() error = %v", err)
	}

	engine := search.New(s)
	answerer := &fakeAnswerer{result: collaborators.AnswerResult{Answer: "rust uses ownership", QueryType: "question_answering"}}
	a := NewAsker(engine, answerer, "answerer-model")

	result, err := a.Ask(context.Background(), s.GetNote, "rust ownership")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if result.Answer != "rust uses ownership" {
		t.Errorf("Answer = %q", result.Answer)
	}
}

func TestAskRequiresConfiguredAnswerer(t *testing.T) {
	s := newTestStore(t)
	engine := search.New(s)
	a := NewAsker(engine, nil, "")

	_, err := a.Ask(context.Background(), s.GetNote, "anything")
	if err == nil {
		t.Fatal("expected error for unconfigured answerer")
	}
	if corerr.KindOf(err) != corerr.KindValidation {
		t.Errorf("KindOf(err) = %v, want KindValidation", corerr.KindOf(err))
	}
}
