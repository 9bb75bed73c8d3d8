package collaborators

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mattsonlyattack/cons/internal/corerr"
)

func mockOllama(t *testing.T, response string) (*OllamaClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"response": response})
	}))
	t.Cleanup(srv.Close)
	return NewOllamaClient(srv.URL), srv
}

func TestGenerateTagsParsesAndClamps(t *testing.T) {
	client, _ := mockOllama(t, `{"rust": 0.9, "async": 1.5, "db": -1.0}`)
	tagger := NewOllamaTagger(client)

	tags, err := tagger.GenerateTags(context.Background(), "m", "content")
	if err != nil {
		t.Fatalf("GenerateTags() error = %v", err)
	}
	if tags["rust"] != 0.9 {
		t.Errorf("rust = %v, want 0.9", tags["rust"])
	}
	if tags["async"] != 1.0 {
		t.Errorf("async = %v, want clamped 1.0", tags["async"])
	}
	if tags["db"] != 0.0 {
		t.Errorf("db = %v, want clamped 0.0", tags["db"])
	}
}

func TestGenerateTagsFailsOpenOnUnparsableResponse(t *testing.T) {
	client, _ := mockOllama(t, "no json here at all")
	tagger := NewOllamaTagger(client)

	tags, err := tagger.GenerateTags(context.Background(), "m", "content")
	if err != nil {
		t.Fatalf("GenerateTags() error = %v, want fail-open nil error", err)
	}
	if len(tags) != 0 {
		t.Errorf("tags = %v, want empty map on parse failure", tags)
	}
}

func TestGenerateTagsExtractsFromMarkdownFence(t *testing.T) {
	client, _ := mockOllama(t, "```json\n{\"rust\": 0.8}\n```")
	tagger := NewOllamaTagger(client)

	tags, err := tagger.GenerateTags(context.Background(), "m", "content")
	if err != nil {
		t.Fatalf("GenerateTags() error = %v", err)
	}
	if tags["rust"] != 0.8 {
		t.Errorf("tags = %v, want rust=0.8", tags)
	}
}

func TestEnhanceContentSurfacesParseFailure(t *testing.T) {
	client, _ := mockOllama(t, "not json")
	enhancer := NewOllamaEnhancer(client)

	_, err := enhancer.EnhanceContent(context.Background(), "m", "buy milk")
	if err == nil {
		t.Fatal("expected parse error, got nil")
	}
	if corerr.KindOf(err) != corerr.KindParse {
		t.Errorf("KindOf(err) = %v, want KindParse", corerr.KindOf(err))
	}
}

func TestEnhanceContentClampsConfidence(t *testing.T) {
	client, _ := mockOllama(t, `{"enhanced_content": "Buy milk from the store.", "confidence": 1.9}`)
	enhancer := NewOllamaEnhancer(client)

	result, err := enhancer.EnhanceContent(context.Background(), "m", "buy milk")
	if err != nil {
		t.Fatalf("EnhanceContent() error = %v", err)
	}
	if result.EnhancedContent != "Buy milk from the store." {
		t.Errorf("EnhancedContent = %q", result.EnhancedContent)
	}
	if result.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want clamped 1.0", result.Confidence)
	}
}

func TestEnhanceContentTransportErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()
	client := NewOllamaClient(srv.URL)
	enhancer := NewOllamaEnhancer(client)

	_, err := enhancer.EnhanceContent(context.Background(), "m", "content")
	if err == nil {
		t.Fatal("expected transport error, got nil")
	}
	if corerr.KindOf(err) != corerr.KindTransport {
		t.Errorf("KindOf(err) = %v, want KindTransport", corerr.KindOf(err))
	}
}

func TestSuggestRelationshipsFiltersBelowConfidenceFloor(t *testing.T) {
	client, _ := mockOllama(t, `[
		{"source_tag": "transformer", "target_tag": "neural-network", "hierarchy_type": "generic", "confidence": 0.95},
		{"source_tag": "attention", "target_tag": "transformer", "hierarchy_type": "partitive", "confidence": 0.5}
	]`)
	suggester := NewOllamaHierarchySuggester(client)

	suggestions, err := suggester.SuggestRelationships(context.Background(), "m", []string{"transformer", "neural-network", "attention"})
	if err != nil {
		t.Fatalf("SuggestRelationships() error = %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("suggestions = %+v, want exactly 1 (the one >= 0.7)", suggestions)
	}
	if suggestions[0].SourceTag != "transformer" || suggestions[0].HierarchyType != HierarchyGeneric {
		t.Errorf("suggestions[0] = %+v", suggestions[0])
	}
}

func TestSuggestRelationshipsRejectsUnknownHierarchyType(t *testing.T) {
	client, _ := mockOllama(t, `[{"source_tag": "a", "target_tag": "b", "hierarchy_type": "bogus", "confidence": 0.9}]`)
	suggester := NewOllamaHierarchySuggester(client)

	suggestions, err := suggester.SuggestRelationships(context.Background(), "m", []string{"a", "b"})
	if err != nil {
		t.Fatalf("SuggestRelationships() error = %v", err)
	}
	if len(suggestions) != 0 {
		t.Errorf("suggestions = %+v, want empty (invalid hierarchy_type rejected)", suggestions)
	}
}

func TestAnswerReturnsNoRelevantNoteFlag(t *testing.T) {
	client, _ := mockOllama(t, `{"answer": "", "citations": [], "query_type": "question_answering", "no_relevant_notes": true}`)
	answerer := NewOllamaQueryAnswerer(client)

	result, err := answerer.Answer(context.Background(), "m", "what is the capital of mars", []AnswerContextNote{{NoteID: 1, Content: "unrelated"}})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !result.NoRelevantNote {
		t.Error("expected NoRelevantNote=true")
	}
}

func TestAnswerParsesCitations(t *testing.T) {
	client, _ := mockOllama(t, `{"answer": "Rust uses ownership [note:1]", "citations": [{"note_id": 1, "snippet": "ownership system"}], "query_type": "question_answering", "no_relevant_notes": false}`)
	answerer := NewOllamaQueryAnswerer(client)

	result, err := answerer.Answer(context.Background(), "m", "how does rust manage memory", []AnswerContextNote{{NoteID: 1, Content: "Rust's ownership system"}})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.NoRelevantNote {
		t.Error("expected NoRelevantNote=false")
	}
	if len(result.Citations) != 1 || result.Citations[0].NoteID != 1 {
		t.Errorf("Citations = %+v", result.Citations)
	}
}
