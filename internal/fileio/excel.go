package fileio

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"tabular/internal/table"
)

// ReadExcel loads the first sheet of an .xlsx workbook into an all-Text
// table. The first row is the header; shorter rows are padded with
// nulls, longer ones are skipped.
func ReadExcel(path string) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("fileio: open xlsx %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return table.New(nil)
	}

	rawRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("fileio: read xlsx %s: %w", path, err)
	}
	if len(rawRows) == 0 {
		return table.New(nil)
	}

	headers := rawRows[0]
	var rows [][]string
	for _, r := range rawRows[1:] {
		if len(r) > len(headers) {
			continue
		}
		// GetRows trims trailing empty cells; pad them back.
		for len(r) < len(headers) {
			r = append(r, "")
		}
		rows = append(rows, r)
	}

	return textTable(headers, rows)
}

// Sheet names one worksheet of an output workbook.
type Sheet struct {
	Name  string
	Table *table.Table
}

// WriteExcel writes a table to a single-sheet .xlsx workbook. Typed
// values keep their Go types so spreadsheet tools see numbers and dates
// rather than text.
func WriteExcel(t *table.Table, path string) error {
	return WriteExcelSheets(path, []Sheet{{Name: "data", Table: t}})
}

// WriteExcelSheets writes a workbook with one worksheet per entry, in
// order. The first sheet is the one readers open on.
func WriteExcelSheets(path string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("fileio: xlsx %s: no sheets", path)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sh.Name); err != nil {
				return fmt.Errorf("fileio: xlsx sheet %s: %w", sh.Name, err)
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			return fmt.Errorf("fileio: xlsx sheet %s: %w", sh.Name, err)
		}
		if err := writeSheet(f, sh.Name, sh.Table); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("fileio: save xlsx %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t *table.Table) error {
	for c, col := range t.Cols {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return fmt.Errorf("fileio: xlsx cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, col.Name); err != nil {
			return fmt.Errorf("fileio: xlsx header %s: %w", col.Name, err)
		}
	}

	for c, col := range t.Cols {
		for r, v := range col.Values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("fileio: xlsx cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("fileio: xlsx value %s[%d]: %w", col.Name, r, err)
			}
		}
	}
	return nil
}
