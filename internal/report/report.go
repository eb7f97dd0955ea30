// Package report assembles the per-file run report: row and column
// totals, discovered key candidates, and the column profiles.
package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"tabular/internal/insights"
	"tabular/internal/keys"
	"tabular/internal/table"
)

// Report is the JSON document written next to each processed file.
type Report struct {
	RunID         string                   `json:"run_id"`
	Filename      string                   `json:"filename"`
	TotalRows     int                      `json:"total_rows"`
	TotalColumns  int                      `json:"total_columns"`
	CompositeKeys []KeyCandidate           `json:"composite_keys"`
	Describe      []insights.ColumnProfile `json:"describe"`
}

// KeyCandidate mirrors keys.Candidate with JSON names fixed for the
// report contract.
type KeyCandidate struct {
	Columns []string `json:"columns"`
	Score   int      `json:"score"`
}

// Build assembles a report for one processed table. Each report gets a
// fresh run id.
func Build(filename string, t *table.Table, candidates []keys.Candidate) Report {
	r := Report{
		RunID:        uuid.NewString(),
		Filename:     filename,
		TotalRows:    t.NumRows(),
		TotalColumns: t.NumCols(),
		Describe:     insights.Profile(t),
	}
	r.CompositeKeys = make([]KeyCandidate, len(candidates))
	for i, c := range candidates {
		r.CompositeKeys[i] = KeyCandidate{Columns: c.Columns, Score: c.Score}
	}
	return r
}

// WriteJSON writes the report as indented JSON.
func (r Report) WriteJSON(path string) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal %s: %w", r.Filename, err)
	}
	b = append(b, '\n')
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
