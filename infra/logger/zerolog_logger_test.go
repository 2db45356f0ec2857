package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger("merge", Options{Level: "info", Format: "json", Output: &buf})
	l.Debugf("hidden %d", 1)
	l.Infow("merge finished", map[string]any{"run_id": "r1", "rows_written": 3})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "merge", entry["component"])
	assert.Equal(t, "r1", entry["run_id"])
	assert.Equal(t, "info", entry["level"])
	assert.EqualValues(t, 3, entry["rows_written"])
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("watch", Options{Level: "debug", Output: &buf})
	l.Debugw("event", map[string]any{"path": "a.xlsx"})
	l.Warnf("skipped %s", "b.xlsx")
	l.Errorf("failed")
	assert.Contains(t, buf.String(), "skipped b.xlsx")
	assert.Contains(t, buf.String(), "path=a.xlsx")

	buf.Reset()
	lr := NewLogrusLogger("watch", Options{Format: "console", Output: &buf})
	lr.Infof("run %s", "r2")
	assert.Contains(t, buf.String(), "run r2")
	assert.Contains(t, buf.String(), "component=watch")
}

func TestNewSelectsBackend(t *testing.T) {
	t.Cleanup(func() { Configure(Options{}) })

	Configure(Options{Backend: "logrus", Level: "warn"})
	_, ok := New("merge").(*LogrusLogger)
	assert.True(t, ok)

	Configure(Options{})
	_, ok = New("merge").(*ZerologLogger)
	assert.True(t, ok)

	t.Setenv("LOG_BACKEND", "logrus")
	_, ok = New("merge").(*LogrusLogger)
	assert.True(t, ok)
}
