package fileio

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"tabular/internal/table"
)

// ReadHTML extracts the first <table> element of an HTML document into
// an all-Text table. Header cells come from the first row (th or td);
// rows with a different cell count are skipped.
func ReadHTML(path string) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fileio: read %s: %w", path, err)
	}
	return readHTMLBytes(path, data)
}

func readHTMLBytes(path string, data []byte) (*table.Table, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("fileio: parse html %s: %w", path, err)
	}

	tbl := doc.Find("table").First()
	if tbl.Length() == 0 {
		return nil, fmt.Errorf("fileio: %s: no table element", path)
	}

	var headers []string
	var rows [][]string

	tbl.Find("tr").Each(func(i int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}
		if headers == nil {
			headers = cells
			return
		}
		if len(cells) != len(headers) {
			return
		}
		rows = append(rows, cells)
	})

	if headers == nil {
		return nil, fmt.Errorf("fileio: %s: table has no rows", path)
	}
	return textTable(headers, rows)
}
