package enrichment

import (
	"context"

	"github.com/mattsonlyattack/cons/internal/collaborators"
	"github.com/mattsonlyattack/cons/internal/corerr"
	"github.com/mattsonlyattack/cons/internal/search"
	"github.com/mattsonlyattack/cons/internal/store"
)

// contextSize is how many top-ranked notes are handed to the answerer
// as retrieval context for a single question.
const contextSize = 8

// Asker answers natural-language questions by retrieving candidate
// notes through the dual-channel search engine and handing them to a
// QueryAnswerer collaborator (E4, supplemented beyond the distilled
// spec). It never returns citations the retrieval step didn't surface.
type Asker struct {
	engine   *search.Engine
	answerer collaborators.QueryAnswerer
	model    string
}

func NewAsker(engine *search.Engine, answerer collaborators.QueryAnswerer, model string) *Asker {
	return &Asker{engine: engine, answerer: answerer, model: model}
}

// Ask retrieves context notes for question via the search engine,
// then asks the collaborator to answer from that context. A
// no-answerer-configured Asker returns a KindValidation error rather
// than a silent empty response, since unlike enrichment this is a
// directly user-requested operation.
func (a *Asker) Ask(ctx context.Context, getNote func(int64) (*store.Note, error), question string) (collaborators.AnswerResult, error) {
	if a.answerer == nil || a.model == "" {
		return collaborators.AnswerResult{}, corerr.New(corerr.KindValidation, "no query answerer configured")
	}

	results, _, err := a.engine.Search(search.Options{Query: question, Limit: contextSize})
	if err != nil {
		return collaborators.AnswerResult{}, err
	}
	if len(results) == 0 {
		return collaborators.AnswerResult{NoRelevantNote: true}, nil
	}

	notes := make([]collaborators.AnswerContextNote, 0, len(results))
	for _, r := range results {
		note, err := getNote(r.NoteID)
		if err != nil {
			continue
		}
		content := note.Content
		if note.ContentEnhanced != nil {
			content = *note.ContentEnhanced
		}
		notes = append(notes, collaborators.AnswerContextNote{NoteID: r.NoteID, Content: content})
	}
	if len(notes) == 0 {
		return collaborators.AnswerResult{NoRelevantNote: true}, nil
	}

	answer, err := a.answerer.Answer(ctx, a.model, question, notes)
	if err != nil || len(answer.Citations) == 0 {
		return answer, err
	}
	retrieved := make(map[int64]bool, len(notes))
	for _, n := range notes {
		retrieved[n.NoteID] = true
	}
	kept := make([]collaborators.Citation, 0, len(answer.Citations))
	for _, c := range answer.Citations {
		if retrieved[c.NoteID] {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return collaborators.AnswerResult{NoRelevantNote: true, QueryType: answer.QueryType}, nil
	}
	answer.Citations = kept
	return answer, nil
}
