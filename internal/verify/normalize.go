// Package verify compiles a solution, executes it against stored test
// cases, and produces an aggregate verdict with per-case diagnostics.
package verify

import "strings"

// Normalize canonicalizes process output for grading comparison:
// line endings collapse to \n, leading/trailing blank content is stripped,
// and every remaining line is right-trimmed. Two outputs are considered
// equal iff their normalized forms are identical. Idempotent.
func Normalize(text string) string {
	unified := strings.ReplaceAll(text, "\r\n", "\n")
	unified = strings.ReplaceAll(unified, "\r", "\n")
	lines := strings.Split(strings.TrimSpace(unified), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
