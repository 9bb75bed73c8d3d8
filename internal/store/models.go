package store

import "time"

// Note is the primary capture unit: free-text content plus an
// optional model-produced enhancement. Its id is a stable integer
// identity assigned on creation and never reused.
type Note struct {
	ID                    int64
	Content               string
	ContentEnhanced       *string
	EnhancementModel      *string
	EnhancementConfidence *float64
	EnhancedAt            *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time

	// Tags is populated by callers that join note_tags; it is not a
	// stored column and Save/Update never read it.
	Tags []TagAssignment
}

// Tag is a canonical concept name. Name is unique case-insensitively
// and is always the output of tagnorm.Normalize. DegreeCentrality is a
// materialized cache of the tag's incident edge count (C5) and must be
// refreshed explicitly after graph writes.
type Tag struct {
	ID               int64
	Name             string
	DegreeCentrality int64
}

// AssignmentSource identifies who produced a TagAssignment, TagAlias,
// or Edge row.
type AssignmentSource string

const (
	SourceUser AssignmentSource = "user"
	SourceLLM  AssignmentSource = "llm"
)

// TagAssignment is the note_tags relation: at most one row per
// (NoteID, TagID) pair.
type TagAssignment struct {
	NoteID       int64
	TagID        int64
	TagName      string // populated on read by joins; not a stored column
	Source       AssignmentSource
	Confidence   float64
	ModelVersion *string
	Verified     bool
	CreatedAt    time.Time
}

// TagAlias maps an alternative label to a canonical tag. Resolution is
// one-step by construction (§4.4): CanonicalTagID always references a
// tags row, never another alias.
type TagAlias struct {
	Alias          string
	CanonicalTagID int64
	Source         AssignmentSource
	Confidence     float64
	ModelVersion   *string
	CreatedAt      time.Time
}

// HierarchyType classifies an Edge's semantics. The zero value ("")
// is treated as NULL / generic-weight per spec §4.6.
type HierarchyType string

const (
	HierarchyGeneric   HierarchyType = "generic"
	HierarchyPartitive HierarchyType = "partitive"
)

// Edge is a directed, typed, confidence-weighted, temporally-valid
// relation between two tags. SourceTagID is the narrower/specific
// concept; TargetTagID is the broader/general concept — edges always
// point "up".
type Edge struct {
	ID            int64
	SourceTagID   int64
	TargetTagID   int64
	HierarchyType HierarchyType // "" means NULL / generic-weight
	Confidence    float64
	ValidFrom     *time.Time
	ValidUntil    *time.Time
	Source        AssignmentSource
	ModelVersion  *string
	Verified      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ActiveAt reports whether the edge is valid at instant t: spec §3's
// temporal predicate (valid_from ≤ T or NULL) ∧ (valid_until ≥ T or NULL).
func (e *Edge) ActiveAt(t time.Time) bool {
	if e.ValidFrom != nil && e.ValidFrom.After(t) {
		return false
	}
	if e.ValidUntil != nil && e.ValidUntil.Before(t) {
		return false
	}
	return true
}
