// Package export renders run history entries for the command line.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/manifests/core/merge"
	"github.com/kilianp07/manifests/infra/report"
)

// WriteJSON writes the entries to w as a JSON array.
func WriteJSON(w io.Writer, entries []report.Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if entries == nil {
		entries = []report.Entry{}
	}
	return enc.Encode(entries)
}

// WriteSummary writes one run summary to w as indented JSON.
func WriteSummary(w io.Writer, s merge.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

var csvHeader = []string{
	"run_id", "timestamp", "outcome", "duration_ms",
	"files_processed", "files_skipped", "files_superseded",
	"rows_read", "rows_dropped", "rows_written",
	"output", "backup", "error",
}

// WriteCSV writes one line per entry to w.
func WriteCSV(w io.Writer, entries []report.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		s := e.Summary
		var output, backup string
		if s.Output != nil {
			output, backup = s.Output.Path, s.Output.Backup
		}
		rec := []string{
			e.RunID,
			e.Timestamp.Format(time.RFC3339),
			string(e.Outcome),
			strconv.FormatInt(s.Duration().Milliseconds(), 10),
			strings.Join(s.FilesProcessed, "|"),
			strconv.Itoa(len(s.FilesSkipped)),
			strconv.Itoa(len(s.Superseded())),
			strconv.Itoa(s.RowsRead),
			strconv.Itoa(s.RowsDropped),
			strconv.Itoa(s.RowsWritten),
			output,
			backup,
			e.Error,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
