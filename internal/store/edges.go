package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/mattsonlyattack/cons/internal/corerr"
)

// CreateEdge inserts a new hierarchy edge. HierarchyType "" is stored
// as NULL (treated as generic-weight by C6's type_mul).
func (s *Store) CreateEdge(e *Edge) (int64, error) {
	if e.Confidence < 0 || e.Confidence > 1 {
		return 0, corerr.New(corerr.KindValidation, "edge confidence must be in [0,1]")
	}
	if e.HierarchyType != "" && e.HierarchyType != HierarchyGeneric && e.HierarchyType != HierarchyPartitive {
		return 0, corerr.New(corerr.KindValidation, "edge hierarchy_type must be 'generic', 'partitive', or empty")
	}
	if e.Source != SourceUser && e.Source != SourceLLM {
		return 0, corerr.New(corerr.KindValidation, "edge source must be 'user' or 'llm'")
	}
	if e.SourceTagID == e.TargetTagID {
		return 0, corerr.New(corerr.KindValidation, "edge source and target tags must differ")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	var hierarchyType any
	if e.HierarchyType != "" {
		hierarchyType = string(e.HierarchyType)
	}

	res, err := s.db.Exec(
		`INSERT INTO edges (source_tag_id, target_tag_id, hierarchy_type, confidence, valid_from, valid_until, source, model_version, verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SourceTagID, e.TargetTagID, hierarchyType, e.Confidence, e.ValidFrom, e.ValidUntil, e.Source, e.ModelVersion, e.Verified, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return 0, corerr.Wrap(corerr.KindIntegrity, "edge references a missing tag", err)
		}
		return 0, corerr.Wrap(corerr.KindStorage, "failed to insert edge", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, corerr.Wrap(corerr.KindStorage, "failed to read inserted edge id", err)
	}
	e.ID = id
	return id, nil
}

// CreateEdgesTx inserts every edge in edges inside a single
// transaction: any failure (validation or storage) rolls the whole
// batch back, so a hierarchy population pass never leaves a partial
// set of suggested edges behind. An edge whose source, target and
// validity window match an edge already stored is skipped and keeps
// ID 0.
func (s *Store) CreateEdgesTx(edges []*Edge) error {
	if len(edges) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to begin edge batch transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for _, e := range edges {
		if e.Confidence < 0 || e.Confidence > 1 {
			return corerr.New(corerr.KindValidation, "edge confidence must be in [0,1]")
		}
		if e.HierarchyType != "" && e.HierarchyType != HierarchyGeneric && e.HierarchyType != HierarchyPartitive {
			return corerr.New(corerr.KindValidation, "edge hierarchy_type must be 'generic', 'partitive', or empty")
		}
		if e.Source != SourceUser && e.Source != SourceLLM {
			return corerr.New(corerr.KindValidation, "edge source must be 'user' or 'llm'")
		}
		if e.SourceTagID == e.TargetTagID {
			return corerr.New(corerr.KindValidation, "edge source and target tags must differ")
		}

		var existing int
		if err := tx.QueryRow(
			`SELECT COUNT(*) FROM edges WHERE source_tag_id = ? AND target_tag_id = ? AND valid_from IS ? AND valid_until IS ?`,
			e.SourceTagID, e.TargetTagID, e.ValidFrom, e.ValidUntil,
		).Scan(&existing); err != nil {
			return corerr.Wrap(corerr.KindStorage, "failed to check for duplicate edge", err)
		}
		if existing > 0 {
			continue
		}

		e.CreatedAt = now
		e.UpdatedAt = now

		var hierarchyType any
		if e.HierarchyType != "" {
			hierarchyType = string(e.HierarchyType)
		}

		res, err := tx.Exec(
			`INSERT INTO edges (source_tag_id, target_tag_id, hierarchy_type, confidence, valid_from, valid_until, source, model_version, verified, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.SourceTagID, e.TargetTagID, hierarchyType, e.Confidence, e.ValidFrom, e.ValidUntil, e.Source, e.ModelVersion, e.Verified, e.CreatedAt, e.UpdatedAt,
		)
		if err != nil {
			return corerr.Wrap(corerr.KindStorage, "failed to insert edge in batch", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return corerr.Wrap(corerr.KindStorage, "failed to read inserted edge id", err)
		}
		e.ID = id
	}

	if err := tx.Commit(); err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to commit edge batch transaction", err)
	}
	return nil
}

// GetEdge fetches an edge by id.
func (s *Store) GetEdge(id int64) (*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanEdgeLocked(`SELECT id, source_tag_id, target_tag_id, hierarchy_type, confidence, valid_from, valid_until, source, model_version, verified, created_at, updated_at FROM edges WHERE id = ?`, id)
}

func (s *Store) scanEdgeLocked(query string, args ...any) (*Edge, error) {
	e := &Edge{}
	var hierarchyType sql.NullString
	err := s.db.QueryRow(query, args...).Scan(
		&e.ID, &e.SourceTagID, &e.TargetTagID, &hierarchyType, &e.Confidence,
		&e.ValidFrom, &e.ValidUntil, &e.Source, &e.ModelVersion, &e.Verified, &e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, corerr.New(corerr.KindNotFound, "edge not found")
	}
	if err != nil {
		return nil, corerr.Wrap(corerr.KindStorage, "failed to fetch edge", err)
	}
	if hierarchyType.Valid {
		e.HierarchyType = HierarchyType(hierarchyType.String)
	}
	return e, nil
}

// EdgesFrom returns every edge whose source_tag_id is tagID (forward
// adjacency, i.e. "this tag is a specific instance of ...").
func (s *Store) EdgesFrom(tagID int64) ([]*Edge, error) {
	return s.queryEdges(`SELECT id, source_tag_id, target_tag_id, hierarchy_type, confidence, valid_from, valid_until, source, model_version, verified, created_at, updated_at FROM edges WHERE source_tag_id = ?`, tagID)
}

// EdgesTo returns every edge whose target_tag_id is tagID (reverse
// adjacency, i.e. "tags that are specific instances of this one").
func (s *Store) EdgesTo(tagID int64) ([]*Edge, error) {
	return s.queryEdges(`SELECT id, source_tag_id, target_tag_id, hierarchy_type, confidence, valid_from, valid_until, source, model_version, verified, created_at, updated_at FROM edges WHERE target_tag_id = ?`, tagID)
}

// EdgesIncident returns every edge touching tagID on either end
// (bidirectional adjacency, used by the hierarchy show surfaces).
func (s *Store) EdgesIncident(tagID int64) ([]*Edge, error) {
	return s.queryEdges(`SELECT id, source_tag_id, target_tag_id, hierarchy_type, confidence, valid_from, valid_until, source, model_version, verified, created_at, updated_at FROM edges WHERE source_tag_id = ? OR target_tag_id = ?`, tagID, tagID)
}

func (s *Store) queryEdges(query string, args ...any) ([]*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, corerr.Wrap(corerr.KindStorage, "failed to query edges", err)
	}
	defer rows.Close()

	var edges []*Edge
	for rows.Next() {
		e := &Edge{}
		var hierarchyType sql.NullString
		if err := rows.Scan(&e.ID, &e.SourceTagID, &e.TargetTagID, &hierarchyType, &e.Confidence, &e.ValidFrom, &e.ValidUntil, &e.Source, &e.ModelVersion, &e.Verified, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, corerr.Wrap(corerr.KindStorage, "failed to scan edge", err)
		}
		if hierarchyType.Valid {
			e.HierarchyType = HierarchyType(hierarchyType.String)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// UpdateEdgeValidity sets a temporal validity window on an existing
// edge (used to retire a superseded hierarchy claim without deleting
// its history).
func (s *Store) UpdateEdgeValidity(id int64, validFrom, validUntil *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE edges SET valid_from = ?, valid_until = ?, updated_at = ? WHERE id = ?`,
		validFrom, validUntil, time.Now().UTC(), id,
	)
	if err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to update edge validity", err)
	}
	return checkRowAffected(res, "edge")
}

// DeleteEdge removes an edge. Idempotent.
func (s *Store) DeleteEdge(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM edges WHERE id = ?`, id)
	if err != nil {
		return corerr.Wrap(corerr.KindStorage, "failed to delete edge", err)
	}
	return nil
}

// AllTagIDs returns every tag id. C6's max-degree normalizer comes
// from MaxDegreeCentrality, not from this list.
func (s *Store) AllTagIDs() ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id FROM tags`)
	if err != nil {
		return nil, corerr.Wrap(corerr.KindStorage, "failed to list tag ids", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, corerr.Wrap(corerr.KindStorage, "failed to scan tag id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MaxDegreeCentrality returns the largest degree_centrality value
// across all tags, used as the normalizer in C6's centrality boost.
func (s *Store) MaxDegreeCentrality() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max int64
	err := s.db.QueryRow(`SELECT COALESCE(MAX(degree_centrality), 0) FROM tags`).Scan(&max)
	if err != nil {
		return 0, corerr.Wrap(corerr.KindStorage, "failed to read max degree centrality", err)
	}
	return max, nil
}
