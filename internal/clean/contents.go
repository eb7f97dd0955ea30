package clean

import (
	"strings"

	"tabular/internal/table"
)

// nullMarkers is the fixed set of strings that canonicalize to null.
// Matching happens AFTER whitespace stripping, so " N/A " is caught.
var nullMarkers = map[string]struct{}{
	"*":    {},
	"N/A":  {},
	"N.A.": {},
	"#N/A": {},
	"???":  {},
	"NULL": {},
	"null": {},
}

// IsNullMarker reports whether a (pre-stripped) string value is one of
// the canonical null markers. Exposed as a named predicate so the
// null-mapping contract is testable in isolation.
func IsNullMarker(s string) bool {
	_, ok := nullMarkers[s]
	return ok
}

// NormalizeContents canonicalizes cell contents and prunes fully-empty
// rows and columns. Steps run in a fixed order; stripping must precede
// null-marker matching:
//
//  1. strip outer whitespace from every Text value
//  2. replace null-marker values with null
//  3. drop rows that are null across every column
//  4. drop columns that are null across every row
//
// None of these steps can fail; a table with zero rows or zero columns
// is valid output.
func NormalizeContents(t *table.Table) *table.Table {
	cols := make([]table.Column, len(t.Cols))

	for i, c := range t.Cols {
		cols[i] = c
		if c.Type != table.Text {
			continue
		}

		vals := make([]any, len(c.Values))
		for j, v := range c.Values {
			s, ok := v.(string)
			if !ok {
				vals[j] = v
				continue
			}
			s = strings.TrimSpace(s)
			if IsNullMarker(s) {
				vals[j] = nil
				continue
			}
			vals[j] = s
		}
		cols[i].Values = vals
	}

	out := &table.Table{Cols: cols}
	out = dropNullRows(out)
	return dropNullColumns(out)
}

func dropNullRows(t *table.Table) *table.Table {
	n := t.NumRows()
	keep := make([]int, 0, n)
	for row := 0; row < n; row++ {
		empty := true
		for i := range t.Cols {
			if !table.IsNull(t.Cols[i].Values[row]) {
				empty = false
				break
			}
		}
		if !empty {
			keep = append(keep, row)
		}
	}
	if len(keep) == n {
		return t
	}

	cols := make([]table.Column, len(t.Cols))
	for i, c := range t.Cols {
		vals := make([]any, len(keep))
		for j, row := range keep {
			vals[j] = c.Values[row]
		}
		cols[i] = c
		cols[i].Values = vals
	}
	return &table.Table{Cols: cols}
}

func dropNullColumns(t *table.Table) *table.Table {
	cols := make([]table.Column, 0, len(t.Cols))
	for _, c := range t.Cols {
		if c.AllNull() {
			continue
		}
		cols = append(cols, c)
	}
	if len(cols) == len(t.Cols) {
		return t
	}
	return &table.Table{Cols: cols}
}
