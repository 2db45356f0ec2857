package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestMergeAndHistory(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(in, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(in, "manifest 10-2025.csv"),
		[]byte("PLACA;CLIENTE;KM SAIDA;KM CHEGADA\nABC1234;Loja;10;20\n"), 0o644))
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`merge:
  sources: ["`+in+`"]
  output: "`+filepath.Join(dir, "out", "merged.csv")+`"
report:
  path: "`+filepath.Join(dir, "runs.jsonl")+`"
`), 0o644))

	var sum struct {
		RowsWritten int `json:"rows_written"`
	}
	require.NoError(t, json.Unmarshal([]byte(execute(t, "-c", cfg, "merge")), &sum))
	assert.Equal(t, 1, sum.RowsWritten)

	hist := execute(t, "-c", cfg, "history", "-f", "csv")
	lines := strings.Split(strings.TrimSpace(hist), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], ",success,")
}
