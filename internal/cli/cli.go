// Package cli holds output-formatting and error-to-exit-code helpers
// shared across cmd/cons's subcommands, so the Cobra command bodies
// stay focused on flag parsing and service wiring.
package cli

import (
	"fmt"
	"os"

	"github.com/mattsonlyattack/cons/internal/corerr"
)

// Fatal prints err to stderr and exits with the corerr.ExitCode
// mapping for its kind: 1 for validation/not-found, 2 otherwise.
func Fatal(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(corerr.ExitCode(err))
}

// Warn prints line to stderr as given. The fail-open enrichment
// diagnostics ("Enhancement skipped:", "Auto-tagging skipped:",
// "Failed to create alias ...") do not go through it: internal/enrichment
// emits them through its own logger at Warn level.
func Warn(line string) {
	fmt.Fprintln(os.Stderr, line)
}
