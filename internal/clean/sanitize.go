// Package clean implements the table cleaning pipeline: column-name
// sanitization, content normalization (null canonicalization and empty
// row/column pruning), and heuristic type re-inference.
//
// The three stages compose in a fixed order via NormalizeAndInfer. Every
// stage is a pure transformation: it returns a new Table and never
// mutates its input across passes.
package clean

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"tabular/internal/table"
)

const safeSpaceChar = '_'

// unsafePunct is the fixed blacklist of punctuation purged from column
// names after space/hyphen replacement.
const unsafePunct = "!@#$%^&*()+={}[]:;\"'<>,./?|\\`~"

// foldMarks decomposes to NFD, strips combining marks, and recomposes,
// so accented letters survive sanitization as their base form
// ("Crédit" -> "Credit") instead of being dropped outright.
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeName normalizes a single column name to the safe identifier
// charset [A-Za-z0-9_]:
//
//  1. trim outer whitespace
//  2. fold diacritics to base letters
//  3. replace spaces and hyphens with underscores
//  4. purge blacklisted punctuation
//  5. drop any remaining character outside [A-Za-z0-9_]
//  6. trim underscore artifacts left at the edges
//
// An empty result (the whole name was unsafe) falls back to "column".
// Case is preserved.
func SanitizeName(s string) string {
	s = strings.TrimSpace(s)

	if folded, _, err := transform.String(foldMarks, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == ' ' || r == '-':
			b.WriteByte(safeSpaceChar)
		case strings.ContainsRune(unsafePunct, r):
			// purged
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			// anything else (control chars, non-Latin script) is dropped
		}
	}

	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "column"
	}
	return out
}

// SanitizeColumns returns a Table with identical row data and sanitized
// column names. Sanitization can map two distinct inputs to the same
// output; collisions are resolved deterministically by appending the
// lowest free numeric suffix ("_2", "_3", ...) in column order, so two
// distinct source columns are never silently merged.
func SanitizeColumns(t *table.Table) *table.Table {
	taken := make(map[string]struct{}, len(t.Cols))
	cols := make([]table.Column, len(t.Cols))

	for i, c := range t.Cols {
		name := SanitizeName(c.Name)
		if _, clash := taken[name]; clash {
			for n := 2; ; n++ {
				cand := fmt.Sprintf("%s_%d", name, n)
				if _, clash := taken[cand]; !clash {
					name = cand
					break
				}
			}
		}
		taken[name] = struct{}{}

		cols[i] = c
		cols[i].Name = name
	}
	return &table.Table{Cols: cols}
}
