// Package table defines the in-memory columnar Table used throughout the
// pipeline: an ordered set of equal-length, semantically typed, nullable
// columns with stable row order.
//
// Design constraints:
//   - Row order is significant and must survive every transformation.
//   - Column names are unique within a Table.
//   - Transformations replace columns functionally; they never mutate a
//     Table another component may still hold.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type is the closed set of semantic column types. It is deliberately an
// explicit enum (not duck-typed value inspection) so every component can
// switch exhaustively over it.
type Type uint8

const (
	Text Type = iota
	Integer
	Float
	Date
	Categorical
)

// String returns the lowercase label used in reports and DDL mapping.
func (t Type) String() string {
	switch t {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Date:
		return "date"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Column is a named, typed, nullable value sequence.
//
// Value representation per Type:
//   - Text, Categorical: string
//   - Integer:           int64
//   - Float:             float64
//   - Date:              time.Time (midnight UTC, date component only)
//
// A nil element is a null. Bits is storage width metadata for numeric
// columns (Integer: 8/16/32/64, Float: 32/64); it never changes the
// semantic type. Zero means "default width" (64).
type Column struct {
	Name   string
	Type   Type
	Bits   int
	Values []any
}

// Table is an ordered sequence of equal-length columns.
type Table struct {
	Cols []Column
}

// New validates column lengths and name uniqueness and returns a Table.
//
// Errors:
//   - mismatched column lengths
//   - duplicate column names
func New(cols []Column) (*Table, error) {
	if len(cols) == 0 {
		return &Table{}, nil
	}
	n := len(cols[0].Values)
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if len(c.Values) != n {
			return nil, fmt.Errorf("table: column %q has %d values, want %d", c.Name, len(c.Values), n)
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("table: duplicate column name %q", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return &Table{Cols: cols}, nil
}

// NumRows returns the row count (0 for an empty table).
func (t *Table) NumRows() int {
	if t == nil || len(t.Cols) == 0 {
		return 0
	}
	return len(t.Cols[0].Values)
}

// NumCols returns the column count.
func (t *Table) NumCols() int {
	if t == nil {
		return 0
	}
	return len(t.Cols)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Cols))
	for i, c := range t.Cols {
		out[i] = c.Name
	}
	return out
}

// Col returns the column with the given name, or false.
func (t *Table) Col(name string) (*Column, bool) {
	for i := range t.Cols {
		if t.Cols[i].Name == name {
			return &t.Cols[i], true
		}
	}
	return nil, false
}

// IsNull is the single null predicate applied uniformly across the
// pipeline. Only a nil element is null; empty strings are values.
func IsNull(v any) bool { return v == nil }

// NullCount returns the number of null values in the column.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if IsNull(v) {
			n++
		}
	}
	return n
}

// AllNull reports whether every value in the column is null.
// An empty column counts as all-null.
func (c *Column) AllNull() bool {
	for _, v := range c.Values {
		if !IsNull(v) {
			return false
		}
	}
	return true
}

// Project returns a new Table containing only the named columns, in the
// given order. Values are shared, not copied; projections are read-only
// views by convention.
func (t *Table) Project(names []string) (*Table, error) {
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		c, ok := t.Col(name)
		if !ok {
			return nil, fmt.Errorf("table: no column %q", name)
		}
		cols = append(cols, *c)
	}
	return &Table{Cols: cols}, nil
}

// DistinctRows counts distinct rows over the projection onto the named
// columns. When rowIdx is nil, all rows are scanned; otherwise only the
// listed row indexes.
//
// Nulls are distinct from every non-null value, including the empty
// string.
func (t *Table) DistinctRows(names []string, rowIdx []int) (int, error) {
	cols := make([]*Column, len(names))
	for i, name := range names {
		c, ok := t.Col(name)
		if !ok {
			return 0, fmt.Errorf("table: no column %q", name)
		}
		cols[i] = c
	}

	n := t.NumRows()
	seen := make(map[string]struct{}, n)
	var b strings.Builder

	key := func(row int) string {
		b.Reset()
		for i, c := range cols {
			if i > 0 {
				b.WriteByte(0x1f)
			}
			appendCanonical(&b, c.Values[row])
		}
		return b.String()
	}

	if rowIdx == nil {
		for row := 0; row < n; row++ {
			seen[key(row)] = struct{}{}
		}
	} else {
		for _, row := range rowIdx {
			seen[key(row)] = struct{}{}
		}
	}
	return len(seen), nil
}

// Canonical returns the canonical string form of a cell value, used for
// distinct-row keys and database binds. Nulls map to a reserved marker
// that cannot collide with a real string value.
func Canonical(v any) string {
	var b strings.Builder
	appendCanonical(&b, v)
	return b.String()
}

func appendCanonical(b *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		// \x00 cannot appear in sanitized data, so nulls never collide
		// with the empty string or any real value.
		b.WriteByte(0x00)
	case string:
		b.WriteString(t)
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
	case float64:
		b.WriteString(strconv.FormatFloat(t, 'g', -1, 64))
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case time.Time:
		b.WriteString(t.Format("2006-01-02"))
	default:
		fmt.Fprintf(b, "%v", t)
	}
}
