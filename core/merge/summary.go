package merge

import (
	"time"

	"github.com/kilianp07/manifests/core/blocks"
	"github.com/kilianp07/manifests/infra/artifact"
)

// Summary is the structured outcome of one merge run. It is produced for
// partial and full successes alike.
type Summary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	FilesDiscovered int       `json:"files_discovered"`
	FilesProcessed  []string  `json:"files_processed"`
	FilesSkipped    []Skipped `json:"files_skipped,omitempty"`
	Buckets         []Bucket  `json:"buckets,omitempty"`

	RowsRead    int `json:"rows_read"`
	RowsDropped int `json:"rows_dropped"`
	RowsWritten int `json:"rows_written"`

	Columns          []string          `json:"columns"`
	DuplicateHeaders []DuplicateHeader `json:"duplicate_headers,omitempty"`

	Enrichment   EnrichStats           `json:"enrichment"`
	Groups       int                   `json:"groups"`
	Unterminated []blocks.Unterminated `json:"unterminated,omitempty"`
	Freight      *FreightStats         `json:"corrected_freight,omitempty"`

	Output *artifact.Result `json:"output,omitempty"`
}

// Superseded lists every file that lost its month bucket.
func (s Summary) Superseded() []string {
	var out []string
	for _, b := range s.Buckets {
		out = append(out, b.Superseded...)
	}
	return out
}

// Duration returns the wall time of the run.
func (s Summary) Duration() time.Duration { return s.FinishedAt.Sub(s.StartedAt) }
