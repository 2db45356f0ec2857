package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/manifests/core/merge"
	"github.com/kilianp07/manifests/infra/artifact"
)

func TestFromSummaryOutcome(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	s := merge.Summary{
		RunID:          "r1",
		StartedAt:      start,
		FinishedAt:     start.Add(3 * time.Second),
		FilesProcessed: []string{"a.csv", "b.csv"},
		Buckets:        []merge.Bucket{{Key: "2025-09", Winner: "a.csv", Superseded: []string{"old.csv"}}},
		RowsWritten:    10,
		Output:         &artifact.Result{Path: "out.xlsx"},
	}
	s.Enrichment.Vehicles = merge.EntityStats{Unique: 3, Found: 2, NotFound: 1}

	r := FromSummary(s, nil)
	assert.Equal(t, OutcomeSuccess, r.Outcome)
	assert.Equal(t, 2, r.FilesProcessed)
	assert.Equal(t, 1, r.FilesSuperseded)
	assert.Equal(t, 1, r.VehiclesNotFound)
	assert.Equal(t, 3*time.Second, r.Duration())

	s.FilesSkipped = []merge.Skipped{{Path: "bad.csv", Reason: "missing header"}}
	assert.Equal(t, OutcomePartial, FromSummary(s, nil).Outcome)

	r = FromSummary(s, errors.New("publish artifact"))
	assert.Equal(t, OutcomeFailed, r.Outcome)
	assert.Equal(t, "publish artifact", r.Error)
}
