// Package search implements Dual-Channel Search (C7): a query fuses a
// lexical full-text channel (C3, BM25) with a semantic channel
// (C6, spreading activation over the tag graph, C5), alias-expanding
// query terms (C4) before either channel runs.
package search
