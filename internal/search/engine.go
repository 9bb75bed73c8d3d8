package search

import (
	"sort"
	"strings"

	"github.com/mattsonlyattack/cons/internal/activation"
	"github.com/mattsonlyattack/cons/internal/alias"
	"github.com/mattsonlyattack/cons/internal/corerr"
	"github.com/mattsonlyattack/cons/internal/store"
	"github.com/mattsonlyattack/cons/internal/tagnorm"
)

// Weights are the dual-channel fusion coefficients (spec §9 Open
// Questions: left as implementation parameters, both must be
// strictly positive).
type Weights struct {
	FTS   float64
	Graph float64
}

// Engine fuses the FTS channel (C3) and the spreading-activation
// graph channel (C6, over C5) into a single ranked result list.
type Engine struct {
	store    *store.Store
	resolver *alias.Resolver
	activate *activation.Engine
}

func New(s *store.Store) *Engine {
	return &Engine{
		store:    s,
		resolver: alias.New(s),
		activate: activation.New(s),
	}
}

// Options configures a Search call.
type Options struct {
	Query   string
	Limit   int // default 10 if <= 0
	Weights Weights
	Config  activation.Config
}

// Result is one fused, ranked hit.
type Result struct {
	NoteID       int64
	FusedScore   float64
	FTSScore     float64
	GraphScore   float64
	BothChannels bool
}

// Meta carries the diagnostic metadata spec §4.7 step 9 requires
// alongside the ranked results.
type Meta struct {
	ComposedQuery string
	FTSHitCount   int
	GraphHitCount int
	GraphSkipped  bool
}

const defaultLimit = 10

// Search runs the full §4.7 pipeline: tokenize, alias-expand,
// compose an FTS query, run both channels, fuse, and rank.
func (e *Engine) Search(opts Options) ([]Result, Meta, error) {
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return nil, Meta{}, corerr.New(corerr.KindValidation, "search query must not be empty")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	weights := opts.Weights
	if weights.FTS <= 0 {
		weights.FTS = 0.6
	}
	if weights.Graph <= 0 {
		weights.Graph = 0.4
	}

	tokens := tokenize(query)

	expansions := make([]map[string]bool, 0, len(tokens))
	for _, tok := range tokens {
		set, err := e.resolver.Expand(tok)
		if err != nil {
			return nil, Meta{}, err
		}
		if len(set) > 0 {
			expansions = append(expansions, set)
		}
	}

	composed := composeFTSQuery(expansions)

	meta := Meta{ComposedQuery: composed}

	ftsScores := map[int64]float64{}
	if composed != "" {
		hits, err := e.store.QueryMatch(composed, limit)
		if err != nil {
			return nil, Meta{}, err
		}
		meta.FTSHitCount = len(hits)
		for _, h := range hits {
			ftsScores[h.NoteID] = h.Score
		}
	}

	seeds := map[int64]float64{}
	for _, set := range expansions {
		for term := range set {
			tag, err := e.store.FindTagByName(term)
			if err != nil {
				if corerr.KindOf(err) == corerr.KindNotFound {
					continue
				}
				return nil, Meta{}, err
			}
			seeds[tag.ID] = 1.0
		}
	}

	graphScores := map[int64]float64{}
	if len(seeds) == 0 {
		meta.GraphSkipped = true
	} else {
		cfg := opts.Config
		if cfg == (activation.Config{}) {
			cfg = activation.DefaultConfig()
		}
		tagActivations, err := e.activate.Spread(seeds, cfg)
		if err != nil {
			return nil, Meta{}, err
		}

		noteScores, err := e.scoreNotesByTagActivation(tagActivations)
		if err != nil {
			return nil, Meta{}, err
		}
		graphScores = topN(noteScores, limit)
		meta.GraphHitCount = len(graphScores)
	}

	results := fuse(ftsScores, graphScores, weights)
	results, err := e.sortByRecency(results)
	if err != nil {
		return nil, Meta{}, err
	}
	if len(results) > limit {
		results = results[:limit]
	}

	return results, meta, nil
}

// GraphSearchFromNote runs the §4.6 from-note seed form with no FTS
// channel: the note's own tag assignments become seeds weighted by
// their confidence, and the note itself is excluded from results.
func (e *Engine) GraphSearchFromNote(noteID int64, limit int, cfg activation.Config) ([]Result, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if cfg == (activation.Config{}) {
		cfg = activation.DefaultConfig()
	}

	assignments, err := e.store.TagsForNote(noteID)
	if err != nil {
		return nil, err
	}

	seeds := map[int64]float64{}
	for _, a := range assignments {
		seeds[a.TagID] = a.Confidence
	}
	if len(seeds) == 0 {
		return nil, nil
	}

	tagActivations, err := e.activate.Spread(seeds, cfg)
	if err != nil {
		return nil, err
	}

	noteScores, err := e.scoreNotesByTagActivation(tagActivations)
	if err != nil {
		return nil, err
	}
	delete(noteScores, noteID)

	top := topN(noteScores, limit)

	results := make([]Result, 0, len(top))
	for id, score := range top {
		results = append(results, Result{NoteID: id, GraphScore: score, FusedScore: score})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].FusedScore > results[j].FusedScore })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// scoreNotesByTagActivation scores every note carrying at least one
// activated tag as Σ(tag_activation · assignment_confidence).
func (e *Engine) scoreNotesByTagActivation(tagActivations map[int64]float64) (map[int64]float64, error) {
	noteScores := map[int64]float64{}
	for tagID, act := range tagActivations {
		noteIDs, err := e.store.NotesForTag(tagID)
		if err != nil {
			return nil, err
		}
		for _, noteID := range noteIDs {
			assignments, err := e.store.TagsForNote(noteID)
			if err != nil {
				return nil, err
			}
			for _, a := range assignments {
				if a.TagID == tagID {
					noteScores[noteID] += act * a.Confidence
				}
			}
		}
	}
	return noteScores, nil
}

// sortByRecency orders fused results descending by score, breaking
// ties by newer created_at per §4.7 step 8.
func (e *Engine) sortByRecency(results []Result) ([]Result, error) {
	createdAt := map[int64]int64{}
	for _, r := range results {
		n, err := e.store.GetNote(r.NoteID)
		if err != nil {
			if corerr.KindOf(err) == corerr.KindNotFound {
				continue
			}
			return nil, err
		}
		createdAt[r.NoteID] = n.CreatedAt.UnixNano()
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].FusedScore != results[j].FusedScore {
			return results[i].FusedScore > results[j].FusedScore
		}
		return createdAt[results[i].NoteID] > createdAt[results[j].NoteID]
	})
	return results, nil
}

func fuse(fts, graph map[int64]float64, w Weights) []Result {
	ids := map[int64]bool{}
	for id := range fts {
		ids[id] = true
	}
	for id := range graph {
		ids[id] = true
	}

	results := make([]Result, 0, len(ids))
	for id := range ids {
		f := fts[id]
		g := graph[id]
		_, inFTS := fts[id]
		_, inGraph := graph[id]
		results = append(results, Result{
			NoteID:       id,
			FTSScore:     f,
			GraphScore:   g,
			FusedScore:   w.FTS*f + w.Graph*g,
			BothChannels: inFTS && inGraph,
		})
	}
	return results
}

func topN(scores map[int64]float64, n int) map[int64]float64 {
	type kv struct {
		id    int64
		score float64
	}
	pairs := make([]kv, 0, len(scores))
	for id, s := range scores {
		pairs = append(pairs, kv{id, s})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	out := make(map[int64]float64, len(pairs))
	for _, p := range pairs {
		out[p.id] = p.score
	}
	return out
}

// tokenize splits q on whitespace, normalizes each token via C1, and
// drops empties (§4.7 step 1).
func tokenize(q string) []string {
	fields := strings.Fields(q)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		n := tagnorm.Normalize(f)
		if n != "" {
			tokens = append(tokens, n)
		}
	}
	return tokens
}

// composeFTSQuery builds the FTS5 MATCH expression per §4.7 step 3:
// an AND of OR-groups, one OR-group per original token, whose members
// are that token's alias-expansion set. Every member is quoted so
// punctuation (including an internal hyphen) is treated as literal
// text rather than FTS5 query syntax.
func composeFTSQuery(expansions []map[string]bool) string {
	groups := make([]string, 0, len(expansions))
	for _, set := range expansions {
		members := sortedKeys(set)
		if len(members) == 0 {
			continue
		}
		quoted := make([]string, len(members))
		for i, m := range members {
			quoted[i] = `"` + strings.ReplaceAll(m, `"`, `""`) + `"`
		}
		groups = append(groups, "("+strings.Join(quoted, " OR ")+")")
	}
	return strings.Join(groups, " AND ")
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
