// Package export renders result records as CSV or XLSX downloads.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Format identifies an export output format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Columns computes the header row: the sorted union of field names across
// all records, so exports are deterministic regardless of map order.
func Columns(records []map[string]any) []string {
	seen := make(map[string]bool)
	for _, rec := range records {
		for field := range rec {
			seen[field] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for field := range seen {
		cols = append(cols, field)
	}
	sort.Strings(cols)
	return cols
}

// WriteCSV writes records to w as CSV with a header row.
func WriteCSV(w io.Writer, records []map[string]any) error {
	cols := Columns(records)
	cw := csv.NewWriter(w)

	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(cols))
	for _, rec := range records {
		for i, col := range cols {
			row[i] = cellString(rec[col])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes records to w as a single-sheet workbook with a header row.
func WriteXLSX(w io.Writer, records []map[string]any, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Results"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	cols := Columns(records)
	for i, col := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("set header %q: %w", col, err)
		}
	}
	for r, rec := range records {
		for i, col := range cols {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, cellString(rec[col])); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// cellString renders one field value. Nested structures are rendered as
// compact JSON so they survive the flat output without loss.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", t)
	}
}
