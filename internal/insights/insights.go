// Package insights summarizes a typed table per column: counts, null
// counts, distinct values, and basic numeric stats. The summary feeds
// run reports and the inspect command.
package insights

import (
	"time"

	"tabular/internal/table"
)

// ColumnProfile is one column's summary.
type ColumnProfile struct {
	Name     string `json:"name"`
	Dtype    string `json:"dtype"`
	Count    int    `json:"count"`
	Nulls    int    `json:"nulls"`
	Distinct int    `json:"distinct"`

	// Numeric columns only.
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Mean *float64 `json:"mean,omitempty"`

	// Date columns only.
	Earliest string `json:"earliest,omitempty"`
	Latest   string `json:"latest,omitempty"`
}

// Profile summarizes every column of t.
func Profile(t *table.Table) []ColumnProfile {
	out := make([]ColumnProfile, 0, t.NumCols())
	for _, col := range t.Cols {
		out = append(out, profileColumn(col))
	}
	return out
}

func profileColumn(col table.Column) ColumnProfile {
	p := ColumnProfile{Name: col.Name, Dtype: col.Type.String()}

	distinct := make(map[string]struct{})
	for _, v := range col.Values {
		if table.IsNull(v) {
			p.Nulls++
			continue
		}
		p.Count++
		distinct[table.Canonical(v)] = struct{}{}
	}
	p.Distinct = len(distinct)

	switch col.Type {
	case table.Integer, table.Float:
		fillNumeric(&p, col.Values)
	case table.Date:
		fillDates(&p, col.Values)
	}
	return p
}

func fillNumeric(p *ColumnProfile, values []any) {
	var sum float64
	var n int
	var min, max float64

	for _, v := range values {
		var f float64
		switch t := v.(type) {
		case int64:
			f = float64(t)
		case float64:
			f = t
		default:
			continue
		}
		if n == 0 || f < min {
			min = f
		}
		if n == 0 || f > max {
			max = f
		}
		sum += f
		n++
	}
	if n == 0 {
		return
	}
	mean := sum / float64(n)
	p.Min, p.Max, p.Mean = &min, &max, &mean
}

func fillDates(p *ColumnProfile, values []any) {
	var earliest, latest time.Time
	seen := false
	for _, v := range values {
		d, ok := v.(time.Time)
		if !ok {
			continue
		}
		if !seen || d.Before(earliest) {
			earliest = d
		}
		if !seen || d.After(latest) {
			latest = d
		}
		seen = true
	}
	if !seen {
		return
	}
	p.Earliest = earliest.Format("2006-01-02")
	p.Latest = latest.Format("2006-01-02")
}

// Describe renders the profiles as a small table, one row per source
// column, for spreadsheet embedding.
func Describe(t *table.Table) (*table.Table, error) {
	profiles := Profile(t)

	names := make([]any, len(profiles))
	dtypes := make([]any, len(profiles))
	counts := make([]any, len(profiles))
	nulls := make([]any, len(profiles))
	distincts := make([]any, len(profiles))

	for i, p := range profiles {
		names[i] = p.Name
		dtypes[i] = p.Dtype
		counts[i] = int64(p.Count)
		nulls[i] = int64(p.Nulls)
		distincts[i] = int64(p.Distinct)
	}

	return table.New([]table.Column{
		{Name: "column", Type: table.Text, Values: names},
		{Name: "dtype", Type: table.Text, Values: dtypes},
		{Name: "count", Type: table.Integer, Bits: 64, Values: counts},
		{Name: "nulls", Type: table.Integer, Bits: 64, Values: nulls},
		{Name: "distinct", Type: table.Integer, Bits: 64, Values: distincts},
	})
}
