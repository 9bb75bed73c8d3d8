// Package app wires the store, search engine, and enrichment
// orchestrator into a single service graph from a loaded
// configuration, shared by cmd/cons's subcommands and the optional
// REST surface in internal/api.
package app

import (
	"github.com/mattsonlyattack/cons/internal/collaborators"
	"github.com/mattsonlyattack/cons/internal/enrichment"
	"github.com/mattsonlyattack/cons/internal/relationships"
	"github.com/mattsonlyattack/cons/internal/search"
	"github.com/mattsonlyattack/cons/internal/store"
	"github.com/mattsonlyattack/cons/pkg/config"
)

// Services bundles the store plus every higher-level component built
// on top of it.
type Services struct {
	Store  *store.Store
	Graph  *relationships.Graph
	Engine *search.Engine
	Orch   *enrichment.Orchestrator
	Asker  *enrichment.Asker
	Config *config.Config
}

// Open constructs the full service graph from cfg: the note store,
// the dual-channel search engine, and the enrichment orchestrator
// wired to Ollama-backed collaborators when cfg.Ollama.Enabled.
func Open(cfg *config.Config) (*Services, error) {
	s, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	var tagger collaborators.Tagger
	var enhancer collaborators.Enhancer
	var hierarchySuggester collaborators.HierarchySuggester
	var answerer collaborators.QueryAnswerer

	if cfg.Ollama.Enabled {
		client := collaborators.NewOllamaClient(cfg.Ollama.BaseURL)
		tagger = collaborators.NewOllamaTagger(client)
		enhancer = collaborators.NewOllamaEnhancer(client)
		hierarchySuggester = collaborators.NewOllamaHierarchySuggester(client)
		answerer = collaborators.NewOllamaQueryAnswerer(client)
	}

	models := enrichment.Models{
		Tagger:    cfg.Ollama.TaggerModel,
		Enhancer:  cfg.Ollama.EnhancerModel,
		Hierarchy: cfg.Ollama.HierarchyModel,
	}
	orch := enrichment.New(s, tagger, enhancer, hierarchySuggester, models)

	engine := search.New(s)
	asker := enrichment.NewAsker(engine, answerer, cfg.Ollama.AnswererModel)

	return &Services{
		Store:  s,
		Graph:  relationships.New(s),
		Engine: engine,
		Orch:   orch,
		Asker:  asker,
		Config: cfg,
	}, nil
}

func (svc *Services) Close() error {
	return svc.Store.Close()
}
