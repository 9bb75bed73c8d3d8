package api

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mattsonlyattack/cons/internal/activation"
	"github.com/mattsonlyattack/cons/internal/alias"
	"github.com/mattsonlyattack/cons/internal/search"
	"github.com/mattsonlyattack/cons/internal/store"
	"github.com/mattsonlyattack/cons/internal/tagnorm"
	"github.com/mattsonlyattack/cons/pkg/config"
)

func activationConfigFrom(cfg *config.Config) activation.Config {
	return activation.Config{
		Decay:     cfg.Activation.Decay,
		Threshold: cfg.Activation.Threshold,
		MaxHops:   cfg.Activation.MaxHops,
	}
}

// NoteData is the JSON shape a note is rendered as.
type NoteData struct {
	ID              int64      `json:"id"`
	Content         string     `json:"content"`
	ContentEnhanced *string    `json:"content_enhanced,omitempty"`
	Tags            []string   `json:"tags"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	EnhancedAt      *time.Time `json:"enhanced_at,omitempty"`
}

func (s *Server) toNoteData(n *store.Note) *NoteData {
	data := &NoteData{
		ID:              n.ID,
		Content:         n.Content,
		ContentEnhanced: n.ContentEnhanced,
		CreatedAt:       n.CreatedAt,
		UpdatedAt:       n.UpdatedAt,
		EnhancedAt:      n.EnhancedAt,
		Tags:            []string{},
	}
	assignments, err := s.svc.Store.TagsForNote(n.ID)
	if err == nil {
		for _, a := range assignments {
			data.Tags = append(data.Tags, a.TagName)
		}
	}
	return data
}

type createNoteRequest struct {
	Content string `json:"content" binding:"required"`
}

func (s *Server) createNote(c *gin.Context) {
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, err.Error())
		return
	}
	if err := validateContent(req.Content); err != nil {
		BadRequestError(c, err.Error())
		return
	}

	note, err := s.svc.Orch.Capture(c.Request.Context(), req.Content)
	if err != nil {
		WriteErr(c, err)
		return
	}
	CreatedResponse(c, "note captured", s.toNoteData(note))
}

func (s *Server) listNotes(c *gin.Context) {
	limit := clampLimit(atoiOr(c.Query("limit"), DefaultLimit))

	notes, err := s.svc.Store.ListNotes(limit)
	if err != nil {
		WriteErr(c, err)
		return
	}
	data := make([]*NoteData, len(notes))
	for i, n := range notes {
		data[i] = s.toNoteData(n)
	}
	SuccessResponse(c, "", data)
}

func (s *Server) getNote(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequestError(c, "invalid note id")
		return
	}
	note, err := s.svc.Store.GetNote(id)
	if err != nil {
		WriteErr(c, err)
		return
	}
	SuccessResponse(c, "", s.toNoteData(note))
}

// SearchResultData is one ranked search hit.
type SearchResultData struct {
	Note         *NoteData `json:"note"`
	FusedScore   float64   `json:"fused_score"`
	FTSScore     float64   `json:"fts_score"`
	GraphScore   float64   `json:"graph_score"`
	BothChannels bool      `json:"both_channels"`
}

func (s *Server) search(c *gin.Context) {
	query := c.Query("q")
	if err := validateQuery(query); err != nil {
		BadRequestError(c, err.Error())
		return
	}
	limit := clampLimit(atoiOr(c.Query("limit"), DefaultLimit))

	results, meta, err := s.svc.Engine.Search(search.Options{
		Query: query,
		Limit: limit,
		Weights: search.Weights{
			FTS:   s.config.Search.FTSWeight,
			Graph: s.config.Search.GraphWeight,
		},
	})
	if err != nil {
		WriteErr(c, err)
		return
	}

	SuccessResponse(c, "", gin.H{
		"results":        s.renderResults(results),
		"composed_query": meta.ComposedQuery,
		"graph_skipped":  meta.GraphSkipped,
	})
}

func (s *Server) graphSearch(c *gin.Context) {
	noteID, err := strconv.ParseInt(c.Query("note"), 10, 64)
	if err != nil {
		BadRequestError(c, "query parameter 'note' must be a valid note id")
		return
	}
	limit := clampLimit(atoiOr(c.Query("limit"), DefaultLimit))

	activationCfg := activationConfigFrom(s.config)
	results, err := s.svc.Engine.GraphSearchFromNote(noteID, limit, activationCfg)
	if err != nil {
		WriteErr(c, err)
		return
	}
	SuccessResponse(c, "", s.renderResults(results))
}

func (s *Server) renderResults(results []search.Result) []*SearchResultData {
	out := make([]*SearchResultData, 0, len(results))
	for _, r := range results {
		note, err := s.svc.Store.GetNote(r.NoteID)
		if err != nil {
			continue
		}
		out = append(out, &SearchResultData{
			Note:         s.toNoteData(note),
			FusedScore:   r.FusedScore,
			FTSScore:     r.FTSScore,
			GraphScore:   r.GraphScore,
			BothChannels: r.BothChannels,
		})
	}
	return out
}

// TagData is the JSON shape a tag is rendered as.
type TagData struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	DegreeCentrality int64    `json:"degree_centrality"`
	Aliases          []string `json:"aliases"`
}

func (s *Server) listTags(c *gin.Context) {
	tags, err := s.svc.Store.ListTags()
	if err != nil {
		WriteErr(c, err)
		return
	}
	data := make([]*TagData, 0, len(tags))
	for _, t := range tags {
		td := &TagData{ID: t.ID, Name: t.Name, DegreeCentrality: t.DegreeCentrality, Aliases: []string{}}
		aliases, err := s.svc.Store.AliasesForTag(t.ID)
		if err == nil {
			for _, a := range aliases {
				td.Aliases = append(td.Aliases, a.Alias)
			}
		}
		data = append(data, td)
	}
	SuccessResponse(c, "", data)
}

func (s *Server) createAlias(c *gin.Context) {
	canonicalName := c.Param("name")
	aliasName := c.Param("alias")

	tag, err := s.svc.Store.GetOrCreateTag(tagnorm.Normalize(canonicalName))
	if err != nil {
		WriteErr(c, err)
		return
	}

	resolver := alias.New(s.svc.Store)
	if err := resolver.CreateAlias(aliasName, tag.ID, store.SourceUser, 1.0, nil); err != nil {
		WriteErr(c, err)
		return
	}
	CreatedResponse(c, "alias created", gin.H{"alias": aliasName, "canonical": canonicalName})
}

func (s *Server) populateHierarchy(c *gin.Context) {
	n, err := s.svc.Orch.PopulateHierarchy(context.Background())
	if err != nil {
		WriteErr(c, err)
		return
	}
	SuccessResponse(c, "hierarchy populated", gin.H{"edges_inserted": n})
}

// EdgeData is one hierarchy edge, rendered with resolved tag names.
type EdgeData struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

func (s *Server) tagHierarchy(c *gin.Context) {
	tag, err := s.svc.Store.FindTagByName(c.Param("name"))
	if err != nil {
		WriteErr(c, err)
		return
	}
	edges, err := s.svc.Graph.Incident(tag.ID)
	if err != nil {
		WriteErr(c, err)
		return
	}

	data := make([]*EdgeData, 0, len(edges))
	for _, e := range edges {
		src, err := s.svc.Store.GetTag(e.SourceTagID)
		if err != nil {
			continue
		}
		dst, err := s.svc.Store.GetTag(e.TargetTagID)
		if err != nil {
			continue
		}
		kind := string(e.HierarchyType)
		if kind == "" {
			kind = "generic"
		}
		data = append(data, &EdgeData{Source: src.Name, Target: dst.Name, Type: kind, Confidence: e.Confidence})
	}
	SuccessResponse(c, "", data)
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

func (s *Server) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, err.Error())
		return
	}
	if err := validateQuery(req.Question); err != nil {
		BadRequestError(c, err.Error())
		return
	}

	result, err := s.svc.Asker.Ask(c.Request.Context(), s.svc.Store.GetNote, req.Question)
	if err != nil {
		WriteErr(c, err)
		return
	}
	SuccessResponse(c, "", result)
}

func (s *Server) stats(c *gin.Context) {
	stats, err := s.svc.Store.GetStats()
	if err != nil {
		WriteErr(c, err)
		return
	}
	SuccessResponse(c, "", stats)
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
