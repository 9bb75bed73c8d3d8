// Package relationships provides the Tag Graph (C5): a directed,
// multi-relational graph whose nodes are tags and whose edges carry a
// hierarchy type, confidence, temporal validity, and provenance.
// Implements forward/reverse/bidirectional adjacency queries, the
// active-at-instant temporal filter, and degree-centrality
// maintenance consumed by the spreading activation engine.
package relationships
