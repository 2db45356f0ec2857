// Package sheet reads and writes the spreadsheet exports handled by the
// merger. XLSX workbooks go through excelize; CSV files through
// encoding/csv with automatic ';' / ',' detection.
package sheet

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrMissingHeader is returned when the first row holds no column names.
	ErrMissingHeader = errors.New("missing header row")
	// ErrUnsupportedFormat is returned for extensions other than xlsx/xlsm/csv.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Format is a supported file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// FormatOf derives the format from the path extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Table is the raw content of one sheet: row 1 is the header, rows 2+ data.
type Table struct {
	Path    string
	Sheet   string
	Headers []string
	Rows    [][]string
}

// Cell returns the cell at (row, col) of the data rows, or "" when the row
// is shorter than col.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

func newTable(path, sheet string, rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrMissingHeader)
	}
	headers := rows[0]
	blank := true
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if headers[i] != "" {
			blank = false
		}
	}
	if blank {
		return nil, fmt.Errorf("%s: %w", path, ErrMissingHeader)
	}
	return &Table{Path: path, Sheet: sheet, Headers: headers, Rows: rows[1:]}, nil
}
