package enrichment

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/mattsonlyattack/cons/internal/alias"
	"github.com/mattsonlyattack/cons/internal/collaborators"
	"github.com/mattsonlyattack/cons/internal/corerr"
	"github.com/mattsonlyattack/cons/internal/logging"
	"github.com/mattsonlyattack/cons/internal/relationships"
	"github.com/mattsonlyattack/cons/internal/store"
	"github.com/mattsonlyattack/cons/internal/tagnorm"
)

var log = logging.GetLogger("enrichment")

// Models names the Ollama models used for each collaborator call. An
// empty field means the orchestrator skips that step entirely; no
// model is chosen automatically when none is named.
type Models struct {
	Tagger    string
	Enhancer  string
	Hierarchy string
}

// Orchestrator runs the C8 save -> enhance -> tag pipeline and the
// manually triggered hierarchy population pass.
type Orchestrator struct {
	store     *store.Store
	graph     *relationships.Graph
	resolver  *alias.Resolver
	tagger    collaborators.Tagger
	enhancer  collaborators.Enhancer
	hierarchy collaborators.HierarchySuggester
	models    Models
}

func New(s *store.Store, tagger collaborators.Tagger, enhancer collaborators.Enhancer, hierarchy collaborators.HierarchySuggester, models Models) *Orchestrator {
	return &Orchestrator{
		store:     s,
		graph:     relationships.New(s),
		resolver:  alias.New(s),
		tagger:    tagger,
		enhancer:  enhancer,
		hierarchy: hierarchy,
		models:    models,
	}
}

// Capture runs the full pipeline for a freshly authored note: save,
// then enhance, then auto-tag on the original content. Save failures
// are the only ones that abort the call; enhancement and tagging
// failures are logged and the captured note is still returned.
func (o *Orchestrator) Capture(ctx context.Context, content string) (*store.Note, error) {
	note := &store.Note{Content: content}
	if err := o.store.CreateNote(note); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	o.enhance(ctx, runID, note)
	o.autoTag(ctx, runID, note)

	refreshed, err := o.store.GetNote(note.ID)
	if err != nil {
		return note, nil
	}
	return refreshed, nil
}

func (o *Orchestrator) enhance(ctx context.Context, runID string, note *store.Note) {
	if o.enhancer == nil || o.models.Enhancer == "" {
		return
	}
	result, err := o.enhancer.EnhanceContent(ctx, o.models.Enhancer, note.Content)
	if err != nil {
		log.Warn("Enhancement skipped: "+err.Error(), "note_id", note.ID, "run_id", runID)
		return
	}
	if err := o.store.UpdateNoteEnhancement(note.ID, result.EnhancedContent, o.models.Enhancer, result.Confidence); err != nil {
		log.Warn("Enhancement skipped: "+err.Error(), "note_id", note.ID, "run_id", runID)
	}
}

func (o *Orchestrator) autoTag(ctx context.Context, runID string, note *store.Note) {
	if o.tagger == nil || o.models.Tagger == "" {
		return
	}
	tags, err := o.tagger.GenerateTags(ctx, o.models.Tagger, note.Content)
	if err != nil {
		log.Warn("Auto-tagging skipped: "+err.Error(), "note_id", note.ID, "run_id", runID)
		return
	}

	canonicalNames, err := o.canonicalTagNames()
	if err != nil {
		log.Warn("Auto-tagging skipped: "+err.Error(), "note_id", note.ID, "run_id", runID)
		return
	}

	for rawName, confidence := range tags {
		name := tagnorm.Normalize(rawName)
		if name == "" {
			continue
		}

		if target, ok := findAliasTarget(name, canonicalNames); ok {
			if err := o.resolver.CreateAlias(name, mustTagID(o.store, target), store.SourceLLM, confidence, &o.models.Tagger); err != nil {
				log.Warn("Failed to create alias "+name+" -> "+target+": "+err.Error(), "note_id", note.ID, "run_id", runID)
			}
			if err := o.attachTag(note.ID, target, confidence); err != nil {
				log.Warn("Auto-tagging skipped: "+err.Error(), "note_id", note.ID, "run_id", runID)
			}
			continue
		}

		if err := o.attachTag(note.ID, name, confidence); err != nil {
			log.Warn("Auto-tagging skipped: "+err.Error(), "note_id", note.ID, "run_id", runID)
		} else {
			canonicalNames = append(canonicalNames, name)
		}
	}
}

func (o *Orchestrator) attachTag(noteID int64, tagName string, confidence float64) error {
	tag, err := o.store.GetOrCreateTag(tagName)
	if err != nil {
		return err
	}
	modelVersion := o.models.Tagger
	return o.store.AssignTag(&store.TagAssignment{
		NoteID:       noteID,
		TagID:        tag.ID,
		Source:       store.SourceLLM,
		Confidence:   confidence,
		ModelVersion: &modelVersion,
	})
}

func (o *Orchestrator) canonicalTagNames() ([]string, error) {
	tags, err := o.store.ListTags()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names, nil
}

func mustTagID(s *store.Store, name string) int64 {
	tag, err := s.FindTagByName(name)
	if err != nil {
		return 0
	}
	return tag.ID
}

// findAliasTarget implements the §4.8 alias-opportunity heuristic:
// tagName must be short (<=3 runes), and either some multi-segment
// canonical tag's per-segment initials spell tagName exactly (an
// acronym match), or some canonical tag starts with tagName and is at
// least twice as long.
func findAliasTarget(tagName string, canonicalNames []string) (string, bool) {
	if len(tagName) == 0 || len(tagName) > 3 {
		return "", false
	}

	for _, name := range canonicalNames {
		if name == tagName {
			continue
		}
		segments := strings.Split(name, "-")
		if len(segments) < 2 {
			continue
		}
		var initials strings.Builder
		for _, seg := range segments {
			if seg == "" {
				continue
			}
			initials.WriteByte(seg[0])
		}
		if initials.String() == tagName {
			return name, true
		}
	}

	for _, name := range canonicalNames {
		if name == tagName {
			continue
		}
		if strings.HasPrefix(name, tagName) && len(name) >= 2*len(tagName) {
			return name, true
		}
	}

	return "", false
}

// PopulateHierarchy enumerates every tag with at least one note,
// requests relationship suggestions from E3, and batch-inserts the
// resulting edges in a single transaction: all or nothing. Only
// suggestions at confidence >= 0.7 are kept (the core's own floor,
// defensive against a non-conforming collaborator). Edges already in
// the graph are skipped and not counted as inserted.
func (o *Orchestrator) PopulateHierarchy(ctx context.Context) (int, error) {
	if o.hierarchy == nil || o.models.Hierarchy == "" {
		return 0, nil
	}

	tagNames, err := o.taggedTagNames()
	if err != nil {
		return 0, err
	}
	if len(tagNames) == 0 {
		return 0, nil
	}

	suggestions, err := o.hierarchy.SuggestRelationships(ctx, o.models.Hierarchy, tagNames)
	if err != nil {
		return 0, corerr.Wrap(corerr.KindTransport, "hierarchy suggestion request failed", err)
	}

	const confidenceFloor = 0.7
	modelVersion := o.models.Hierarchy
	seenPair := map[[2]int64]bool{}
	var batch []*store.Edge

	for _, sug := range suggestions {
		if sug.Confidence < confidenceFloor {
			continue
		}
		if sug.HierarchyType != collaborators.HierarchyGeneric && sug.HierarchyType != collaborators.HierarchyPartitive {
			continue
		}

		sourceTag, err := o.store.GetOrCreateTag(tagnorm.Normalize(sug.SourceTag))
		if err != nil {
			continue
		}
		targetTag, err := o.store.GetOrCreateTag(tagnorm.Normalize(sug.TargetTag))
		if err != nil {
			continue
		}
		if sourceTag.ID == targetTag.ID {
			continue
		}
		pair := [2]int64{sourceTag.ID, targetTag.ID}
		if seenPair[pair] {
			continue
		}
		seenPair[pair] = true

		batch = append(batch, &store.Edge{
			SourceTagID:   sourceTag.ID,
			TargetTagID:   targetTag.ID,
			HierarchyType: store.HierarchyType(sug.HierarchyType),
			Confidence:    sug.Confidence,
			Source:        store.SourceLLM,
			ModelVersion:  &modelVersion,
		})
	}

	if len(batch) == 0 {
		return 0, nil
	}

	// All-or-nothing: a failure partway through (e.g. a validation or
	// storage error) rolls back the entire pass rather than leaving some
	// suggestions applied and others dropped. Edges already stored are
	// skipped by CreateEdgesTx and keep ID 0.
	if err := o.graph.CreateEdgesTx(batch); err != nil {
		return 0, err
	}

	inserted := 0
	affected := map[int64]bool{}
	for _, e := range batch {
		if e.ID == 0 {
			continue
		}
		inserted++
		affected[e.SourceTagID] = true
		affected[e.TargetTagID] = true
	}
	ids := make([]int64, 0, len(affected))
	for id := range affected {
		ids = append(ids, id)
	}
	if err := o.graph.RefreshCentrality(ids); err != nil {
		return inserted, err
	}

	return inserted, nil
}

func (o *Orchestrator) taggedTagNames() ([]string, error) {
	tags, err := o.store.ListTags()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		noteIDs, err := o.store.NotesForTag(t.ID)
		if err != nil {
			return nil, err
		}
		if len(noteIDs) > 0 {
			names = append(names, t.Name)
		}
	}
	return names, nil
}
