package storage

import (
	"fmt"
	"time"

	"tabular/internal/table"
)

// TableSpec describes one export target table.
type TableSpec struct {
	Name    string       `json:"name"`
	Columns []ColumnSpec `json:"columns"`
}

// ColumnSpec carries the semantic type and width; each backend maps it
// to its own SQL type.
type ColumnSpec struct {
	Name string     `json:"name"`
	Type table.Type `json:"type"`
	Bits int        `json:"bits,omitempty"`
}

// SpecFromTable derives a TableSpec from a processed table.
func SpecFromTable(name string, t *table.Table) (TableSpec, error) {
	if name == "" {
		return TableSpec{}, fmt.Errorf("storage: empty table name")
	}
	if t.NumCols() == 0 {
		return TableSpec{}, fmt.Errorf("storage: table %s has no columns", name)
	}
	spec := TableSpec{Name: name, Columns: make([]ColumnSpec, t.NumCols())}
	for i, c := range t.Cols {
		spec.Columns[i] = ColumnSpec{Name: c.Name, Type: c.Type, Bits: c.Bits}
	}
	return spec, nil
}

// RowsFromTable converts the table to row-major values for InsertRows.
// Nulls stay nil; drivers turn them into SQL NULL.
func RowsFromTable(t *table.Table) (columns []string, rows [][]any) {
	columns = t.Names()
	rows = make([][]any, t.NumRows())
	for r := 0; r < t.NumRows(); r++ {
		row := make([]any, t.NumCols())
		for c := range t.Cols {
			row[c] = t.Cols[c].Values[r]
		}
		rows[r] = row
	}
	return columns, rows
}

// FormatDate renders a date value the way date-less engines store it.
func FormatDate(v time.Time) string {
	return v.Format("2006-01-02")
}
