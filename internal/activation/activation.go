// Package activation implements the Spreading Activation Engine (C6):
// a recursive, decaying, thresholded traversal of the tag graph that
// scores tags by semantic relevance to a seed set. The traversal is
// pushed down to SQLite as a recursive common table expression so the
// engine itself stays a thin, stateless wrapper.
package activation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattsonlyattack/cons/internal/corerr"
	"github.com/mattsonlyattack/cons/internal/store"
)

// Config holds the three scalars that parameterize a spreading run
// (spec §4.6). The engine itself is stateless; Config is passed per call.
type Config struct {
	Decay     float64 // multiplicative per-hop decay, default 0.7
	Threshold float64 // minimum activation to continue spreading, default 0.1
	MaxHops   int     // maximum traversal depth, default 3
}

// DefaultConfig matches the spec's documented defaults.
func DefaultConfig() Config {
	return Config{Decay: 0.7, Threshold: 0.1, MaxHops: 3}
}

// Engine runs spreading activation over the tag graph held in a Store.
type Engine struct {
	store *store.Store
}

func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Spread computes a final activation per tag reachable from seeds
// within cfg.MaxHops, applying decay, per-edge-type weighting,
// threshold pruning, multi-path summation, and a post-aggregation
// centrality boost. Returns an empty map for an empty seed set.
func (e *Engine) Spread(seeds map[int64]float64, cfg Config) (map[int64]float64, error) {
	if len(seeds) == 0 {
		return map[int64]float64{}, nil
	}

	maxDegree, err := e.store.MaxDegreeCentrality()
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(seeds))
	for tagID, activation := range seeds {
		values = append(values, fmt.Sprintf("(%d, %s, 0)", tagID, strconv.FormatFloat(activation, 'f', -1, 64)))
	}
	seedValuesClause := strings.Join(values, ", ")

	query := fmt.Sprintf(`
		WITH RECURSIVE activation_spread(tag_id, activation, hop_count) AS (
			SELECT * FROM (VALUES %s)

			UNION ALL

			SELECT
				CASE
					WHEN e.source_tag_id = a.tag_id THEN e.target_tag_id
					ELSE e.source_tag_id
				END AS tag_id,
				a.activation * e.confidence * ?1 *
					CASE WHEN e.hierarchy_type = 'partitive' THEN 0.5 ELSE 1.0 END AS activation,
				a.hop_count + 1 AS hop_count
			FROM activation_spread a
			JOIN edges e ON (e.source_tag_id = a.tag_id OR e.target_tag_id = a.tag_id)
			WHERE a.hop_count < ?2
			  AND a.activation * e.confidence * ?1 *
				  CASE WHEN e.hierarchy_type = 'partitive' THEN 0.5 ELSE 1.0 END >= ?3
		)
		SELECT
			a.tag_id,
			SUM(a.activation) AS total_activation,
			COALESCE(t.degree_centrality, 0) AS degree_centrality
		FROM activation_spread a
		LEFT JOIN tags t ON a.tag_id = t.id
		GROUP BY a.tag_id
	`, seedValuesClause)

	rows, err := e.store.DB().Query(query, cfg.Decay, cfg.MaxHops, cfg.Threshold)
	if err != nil {
		return nil, corerr.Wrap(corerr.KindStorage, "spreading activation query failed", err)
	}
	defer rows.Close()

	result := map[int64]float64{}
	for rows.Next() {
		var tagID int64
		var total float64
		var degree int64
		if err := rows.Scan(&tagID, &total, &degree); err != nil {
			return nil, corerr.Wrap(corerr.KindStorage, "failed to scan activation row", err)
		}

		boost := 1.0
		if maxDegree > 0 {
			boost = 1.0 + (float64(degree)/float64(maxDegree))*0.3
		}
		result[tagID] = total * boost
	}
	if err := rows.Err(); err != nil {
		return nil, corerr.Wrap(corerr.KindStorage, "spreading activation row iteration failed", err)
	}

	return result, nil
}
