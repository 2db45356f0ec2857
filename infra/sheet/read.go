package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// ReadOptions tunes Read.
type ReadOptions struct {
	// Sheet selects a workbook sheet by name. The first sheet is used when
	// empty or absent.
	Sheet string
}

// Read loads the table stored at path.
func Read(path string, opts ReadOptions) (*Table, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return readXLSX(path, opts.Sheet)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		return ReadCSV(path, f)
	}
}

// Loader returns a function suitable for cache.New.
func Loader(opts ReadOptions) func(path string) (*Table, error) {
	return func(path string) (*Table, error) { return Read(path, opts) }
}

func readXLSX(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	name := ""
	list := f.GetSheetList()
	for _, s := range list {
		if sheet != "" && s == sheet {
			name = s
			break
		}
	}
	if name == "" {
		if len(list) == 0 {
			return nil, fmt.Errorf("%s: %w", path, ErrMissingHeader)
		}
		name = list[0]
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", name, err)
	}
	return newTable(path, name, rows)
}

// ReadCSV parses CSV content from r. The delimiter is guessed from the
// header line.
func ReadCSV(path string, r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	cr := csv.NewReader(br)
	cr.Comma = guessDelimiter(head)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return newTable(path, "", rows)
}

func guessDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';'
	}
	return ','
}
