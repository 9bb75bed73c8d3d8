// Package alias implements the Alias Resolver (C4): mapping any tag
// token to its canonical tag id, and expanding a search term into its
// full equivalence cluster of trusted aliases.
package alias

import (
	"github.com/mattsonlyattack/cons/internal/corerr"
	"github.com/mattsonlyattack/cons/internal/store"
	"github.com/mattsonlyattack/cons/internal/tagnorm"
)

// trustedConfidence is the minimum confidence an llm-sourced alias
// must carry to be included in expand's equivalence cluster.
const trustedConfidence = 0.8

// Resolver resolves and expands tag tokens against a Store.
type Resolver struct {
	store *store.Store
}

func New(s *store.Store) *Resolver {
	return &Resolver{store: s}
}

// Resolve normalizes token and, if it is a known alias, returns its
// canonical tag id.
func (r *Resolver) Resolve(token string) (int64, bool, error) {
	normalized := tagnorm.Normalize(token)
	if normalized == "" {
		return 0, false, nil
	}

	a, err := r.store.GetAlias(normalized)
	if err != nil {
		if corerr.KindOf(err) == corerr.KindNotFound {
			return 0, false, nil
		}
		return 0, false, err
	}
	return a.CanonicalTagID, true, nil
}

// Expand returns the equivalence cluster for a search term, per §4.4:
//  1. Normalize token.
//  2. Seed the set with {token}.
//  3. If token resolves to tag T via an alias, add T.name.
//  4. Otherwise, if token itself is a tag's name, anchor on it.
//  5. For the anchor tag, include every alias whose relationship is
//     trusted: source=user (any confidence), or source=llm with
//     confidence >= 0.8.
func (r *Resolver) Expand(token string) (map[string]bool, error) {
	normalized := tagnorm.Normalize(token)
	set := map[string]bool{}
	if normalized == "" {
		return set, nil
	}
	set[normalized] = true

	var anchor *store.Tag

	if canonicalID, ok, err := r.Resolve(normalized); err != nil {
		return nil, err
	} else if ok {
		tag, err := r.store.GetTag(canonicalID)
		if err != nil {
			if corerr.KindOf(err) == corerr.KindNotFound {
				return set, nil
			}
			return nil, err
		}
		set[tag.Name] = true
		anchor = tag
	} else {
		tag, err := r.store.FindTagByName(normalized)
		if err != nil {
			if corerr.KindOf(err) == corerr.KindNotFound {
				return set, nil
			}
			return nil, err
		}
		anchor = tag
	}

	aliases, err := r.store.AliasesForTag(anchor.ID)
	if err != nil {
		return nil, err
	}
	for _, a := range aliases {
		if isTrusted(a) {
			set[a.Alias] = true
		}
	}

	return set, nil
}

func isTrusted(a *store.TagAlias) bool {
	if a.Source == store.SourceUser {
		return true
	}
	return a.Source == store.SourceLLM && a.Confidence >= trustedConfidence
}

// CreateAlias validates and stores an alias, rejecting an alias string
// that is already a tag name and enforcing the no-chaining rule: the
// canonical tag's name must not itself appear as an alias string
// (which would make resolution recurse).
func (r *Resolver) CreateAlias(aliasStr string, canonicalTagID int64, source store.AssignmentSource, confidence float64, modelVersion *string) error {
	normalized := tagnorm.Normalize(aliasStr)
	if normalized == "" {
		return corerr.New(corerr.KindValidation, "alias must normalize to a non-empty string")
	}

	if isTag, err := r.store.IsTagName(normalized); err != nil {
		return err
	} else if isTag {
		return corerr.New(corerr.KindIntegrity, "alias would shadow an existing tag name")
	}

	tag, err := r.store.GetTag(canonicalTagID)
	if err != nil {
		return err
	}

	if _, err := r.store.GetAlias(tag.Name); err == nil {
		return corerr.New(corerr.KindIntegrity, "canonical tag name is itself an alias; would create a chain")
	} else if corerr.KindOf(err) != corerr.KindNotFound {
		return err
	}

	return r.store.CreateAlias(&store.TagAlias{
		Alias:          normalized,
		CanonicalTagID: canonicalTagID,
		Source:         source,
		Confidence:     confidence,
		ModelVersion:   modelVersion,
	})
}

// RemoveAlias is idempotent removal of an alias by its normalized string.
func (r *Resolver) RemoveAlias(aliasStr string) error {
	return r.store.RemoveAlias(tagnorm.Normalize(aliasStr))
}
