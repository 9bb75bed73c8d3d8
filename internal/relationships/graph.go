package relationships

import (
	"time"

	"github.com/mattsonlyattack/cons/internal/store"
)

// Graph wraps a Store with the C5 query surface used by C6
// (spreading activation) and the `hierarchy` CLI surface.
type Graph struct {
	store *store.Store
}

func New(s *store.Store) *Graph {
	return &Graph{store: s}
}

// Forward returns edges where tagID is the narrower/specific concept
// (source), i.e. "tagID is a kind of / part of ...".
func (g *Graph) Forward(tagID int64) ([]*store.Edge, error) {
	return g.store.EdgesFrom(tagID)
}

// Reverse returns edges where tagID is the broader/general concept
// (target), i.e. tags that specialize or compose tagID.
func (g *Graph) Reverse(tagID int64) ([]*store.Edge, error) {
	return g.store.EdgesTo(tagID)
}

// Incident returns every edge touching tagID on either end, used by
// the hierarchy show surfaces. C6 walks edges in its own recursive
// query and does not call this.
func (g *Graph) Incident(tagID int64) ([]*store.Edge, error) {
	return g.store.EdgesIncident(tagID)
}

// ActiveAt filters a set of edges down to those valid at instant t
// per the §3 temporal predicate.
func ActiveAt(edges []*store.Edge, t time.Time) []*store.Edge {
	active := make([]*store.Edge, 0, len(edges))
	for _, e := range edges {
		if e.ActiveAt(t) {
			active = append(active, e)
		}
	}
	return active
}

// MaxDegreeCentrality returns the normalizer for C6's centrality boost.
func (g *Graph) MaxDegreeCentrality() (int64, error) {
	return g.store.MaxDegreeCentrality()
}

// CreateEdge inserts the edge via store.CreateEdge; an endpoint that
// does not exist is rejected by the foreign key and surfaces as an
// IntegrityError.
func (g *Graph) CreateEdge(e *store.Edge) (int64, error) {
	return g.store.CreateEdge(e)
}

// CreateEdgesTx inserts a batch of edges atomically: all succeed or
// none are applied, used by hierarchy population to honor the
// all-or-nothing transaction-level guarantee over a whole suggestion
// pass.
func (g *Graph) CreateEdgesTx(edges []*store.Edge) error {
	return g.store.CreateEdgesTx(edges)
}

// RefreshCentrality recomputes degree_centrality for every tag in ids,
// per §4.5's "recomputed for every affected tag" rule. Called after a
// batch edge insert during hierarchy population.
func (g *Graph) RefreshCentrality(ids []int64) error {
	seen := map[int64]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := g.store.RefreshDegreeCentrality(id); err != nil {
			return err
		}
	}
	return nil
}
