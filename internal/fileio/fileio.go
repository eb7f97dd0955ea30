// Package fileio reads raw tabular files into table values and writes
// processed tables back out. Readers other than parquet produce Text
// columns only; typing is the inference engine's job. Empty cells become
// nulls. Read failures are always surfaced, never swallowed into an
// empty table.
package fileio

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tabular/internal/table"
)

// parquet files start with this magic.
var parquetMagic = []byte("PAR1")

// readableExts are the extensions Read handles without sniffing.
var readableExts = map[string]bool{
	".csv":     true,
	".json":    true,
	".parquet": true,
	".xlsx":    true,
	".html":    true,
	".htm":     true,
}

// Read loads one file into a table, dispatching on extension and
// falling back to content sniffing for unknown ones.
func Read(path string) (*table.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	case ".json":
		return ReadJSON(path)
	case ".parquet":
		return ReadParquet(path)
	case ".xlsx":
		return ReadExcel(path)
	case ".html", ".htm":
		return ReadHTML(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fileio: read %s: %w", path, err)
	}
	switch sniffFormat(data) {
	case "parquet":
		return ReadParquet(path)
	case "json":
		return readJSONBytes(path, data)
	case "html":
		return readHTMLBytes(path, data)
	default:
		return readCSVBytes(path, data)
	}
}

// sniffFormat is heuristic and intentionally conservative: anything not
// clearly parquet, JSON, or markup is treated as CSV.
func sniffFormat(data []byte) string {
	if bytes.HasPrefix(data, parquetMagic) {
		return "parquet"
	}
	trim := bytes.TrimSpace(data)
	if len(trim) == 0 {
		return "csv"
	}
	if trim[0] == '{' || trim[0] == '[' {
		return "json"
	}
	if trim[0] == '<' {
		return "html"
	}
	return "csv"
}

// ListReadable returns the readable files directly under dir, sorted by
// name.
func ListReadable(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("fileio: list %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if readableExts[strings.ToLower(filepath.Ext(e.Name()))] {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// Stem returns the file name without directory or extension, used for
// staging and output naming.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// cellValue maps raw text to a column value: empty means null.
func cellValue(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// uniqueNames disambiguates duplicate raw headers with a numeric suffix
// so the table invariant holds. Empty headers become "column" first.
func uniqueNames(in []string) []string {
	out := make([]string, len(in))
	used := make(map[string]bool, len(in))
	for i, name := range in {
		if name == "" {
			name = "column"
		}
		candidate := name
		for n := 2; used[candidate]; n++ {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		used[candidate] = true
		out[i] = candidate
	}
	return out
}

// textTable builds an all-Text table from headers and string rows.
// Ragged rows must be filtered by the caller.
func textTable(headers []string, rows [][]string) (*table.Table, error) {
	names := uniqueNames(headers)
	cols := make([]table.Column, len(names))
	for i, name := range names {
		values := make([]any, len(rows))
		for j, row := range rows {
			values[j] = cellValue(strings.TrimSpace(row[i]))
		}
		cols[i] = table.Column{Name: name, Type: table.Text, Values: values}
	}
	return table.New(cols)
}
