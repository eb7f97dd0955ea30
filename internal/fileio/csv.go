package fileio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"tabular/internal/table"
)

// ReadCSV parses a CSV file into an all-Text table. Parsing is
// best-effort: records whose field count does not match the header are
// skipped rather than failing the file.
func ReadCSV(path string) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fileio: read %s: %w", path, err)
	}
	return readCSVBytes(path, data)
}

func readCSVBytes(path string, data []byte) (*table.Table, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return table.New(nil)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // misaligned rows are validated manually
	r.LazyQuotes = true

	headers, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("fileio: csv header %s: %w", path, err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	rows := make([][]string, 0, 1024)
	for {
		rec, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("fileio: csv rows %s: %w", path, err)
		}
		if len(rec) != len(headers) {
			continue
		}
		rows = append(rows, rec)
	}

	return textTable(headers, rows)
}
