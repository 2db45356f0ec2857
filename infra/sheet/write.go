package sheet

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kilianp07/manifests/core/model"
)

// DefaultSheet is the name of the sheet written to XLSX artifacts.
const DefaultSheet = "Manifests"

// Write encodes headings and rows to w in the given format.
func Write(w io.Writer, format Format, headings []string, rows []*model.Record) error {
	switch format {
	case FormatXLSX:
		return writeXLSX(w, headings, rows)
	case FormatCSV:
		return writeCSV(w, headings, rows)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func writeCSV(w io.Writer, headings []string, rows []*model.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headings); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Strings()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, headings []string, rows []*model.Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", DefaultSheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(DefaultSheet)
	if err != nil {
		return err
	}
	head := make([]any, len(headings))
	for i, h := range headings {
		head[i] = h
	}
	if err := sw.SetRow("A1", head); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		vals := make([]any, len(r.Cells))
		for j, c := range r.Cells {
			vals[j] = cellValue(c)
		}
		if err := sw.SetRow(cell, vals); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

func cellValue(v model.Value) any {
	switch v.Kind() {
	case model.KindNull:
		return nil
	case model.KindNumber:
		f, _ := v.Float()
		return f
	default:
		return v.String()
	}
}
