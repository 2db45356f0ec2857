package report

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/manifests/core/merge"
	"github.com/kilianp07/manifests/core/metrics"
)

func summary(id string, ts time.Time, files ...string) merge.Summary {
	return merge.Summary{RunID: id, StartedAt: ts.Add(-time.Second), FinishedAt: ts, FilesProcessed: files, RowsWritten: len(files)}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(ctx, NewEntry(summary("r1", base, "in/manifest 09-2025.xlsx"), nil)))
	require.NoError(t, s.Append(ctx, NewEntry(summary("r2", base.Add(time.Hour), "in/manifest 10-2025.xlsx"), errors.New("publish artifact"))))
	require.NoError(t, s.Append(ctx, NewEntry(summary("r3", base.Add(2*time.Hour), "in/manifest 10-2025.xlsx"), nil)))

	all, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r1", all[0].RunID)
	assert.Equal(t, metrics.OutcomeFailed, all[1].Outcome)
	assert.Equal(t, "publish artifact", all[1].Error)

	failed, err := s.Query(ctx, Query{Outcome: metrics.OutcomeFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "r2", failed[0].RunID)

	byFile, err := s.Query(ctx, Query{File: "10-2025"})
	require.NoError(t, err)
	assert.Len(t, byFile, 2)

	ranged, err := s.Query(ctx, Query{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "r2", ranged[0].RunID)

	last, err := s.Query(ctx, Query{Limit: 1})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "r3", last[0].RunID)
	assert.Equal(t, []string{"in/manifest 10-2025.xlsx"}, last[0].Summary.FilesProcessed)
}

func TestRotatingJSONLStore(t *testing.T) {
	s, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "hist", "runs.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	s, err := NewRotatingJSONLStore(path, 1, 3, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	files := make([]string, 2000)
	for i := range files {
		files[i] = filepath.Join("in", "a-rather-long-source-file-name-for-rotation.xlsx")
	}
	for i := 0; i < 30; i++ {
		require.NoError(t, s.Append(context.Background(), NewEntry(summary("r", time.Now(), files...), nil)))
	}
	rotated, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "runs*.jsonl"))
	assert.Greater(t, len(rotated), 1)

	got, err := s.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Config{Backend: "sqlite", Path: filepath.Join(dir, "h.db")})
	require.NoError(t, err)
	_, ok := s.(*SQLiteStore)
	assert.True(t, ok)
	require.NoError(t, s.Close())

	s, err = Open(Config{Backend: "none"})
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, s)

	_, err = Open(Config{Backend: "kafka"})
	assert.Error(t, err)
}
