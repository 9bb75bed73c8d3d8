// Package tagnorm implements the tag-normalization rule applied to
// every tag token before it touches the store, on both the write and
// read paths. It is a pure, deterministic string transform with no
// dependency on the store or any collaborator.
package tagnorm

import "strings"

// Normalize maps a free-text tag token to its canonical form:
//
//  1. Lowercase.
//  2. Replace runs of whitespace with a single hyphen.
//  3. Remove characters outside [a-z0-9-].
//  4. Collapse runs of '-' to a single '-', strip leading/trailing '-'.
//
// The result may be empty; callers must treat an empty result as "no
// tag" and drop it.
func Normalize(s string) string {
	lower := strings.ToLower(s)

	var hyphenated strings.Builder
	inSpace := false
	for _, r := range lower {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f' {
			inSpace = true
			continue
		}
		if inSpace {
			hyphenated.WriteByte('-')
			inSpace = false
		}
		hyphenated.WriteRune(r)
	}

	var filtered strings.Builder
	for _, r := range hyphenated.String() {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			filtered.WriteRune(r)
		}
	}

	return collapseHyphens(filtered.String())
}

// collapseHyphens collapses runs of '-' to one and trims leading and
// trailing '-'.
func collapseHyphens(s string) string {
	var b strings.Builder
	lastWasHyphen := false
	for _, r := range s {
		if r == '-' {
			if lastWasHyphen {
				continue
			}
			lastWasHyphen = true
		} else {
			lastWasHyphen = false
		}
		b.WriteRune(r)
	}
	return strings.Trim(b.String(), "-")
}

// NormalizeAll normalizes a slice of tokens, dropping empties and
// deduplicating while preserving first-seen order.
func NormalizeAll(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	result := make([]string, 0, len(tokens))
	for _, t := range tokens {
		n := Normalize(t)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		result = append(result, n)
	}
	return result
}
