package artifact

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func content(s string) WriteFunc {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func fixedPublisher() *Publisher {
	p := NewPublisher()
	p.Now = func() time.Time { return time.Date(2025, 9, 30, 18, 4, 5, 0, time.UTC) }
	return p
}

func read(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestPublish_FreshAndBackup(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out", "merged.csv")
	p := fixedPublisher()

	res, err := p.Publish(out, "", content("v1"))
	require.NoError(t, err)
	assert.Empty(t, res.Backup)
	assert.Equal(t, "v1", read(t, out))

	res, err = p.Publish(out, "", content("v2"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "merged_backup_20250930-180405.csv"), res.Backup)
	assert.Equal(t, "v1", read(t, res.Backup))
	assert.Equal(t, "v2", read(t, out))

	res, err = p.Publish(out, "", content("v3"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(res.Backup, "_backup_20250930-180405_1.csv"), res.Backup)

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}
}

func TestPublish_EncodeFailureKeepsPrior(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "merged.csv")
	require.NoError(t, os.WriteFile(out, []byte("valid"), 0o644))
	p := fixedPublisher()
	_, err := p.Publish(out, "", func(w io.Writer) error {
		_, _ = io.WriteString(w, "half")
		return errors.New("disk full")
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPublish))
	assert.Equal(t, "valid", read(t, out))
	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, 1)
}

func TestPublish_BackupRenameFailsFallsBackToCopy(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "merged.csv")
	require.NoError(t, os.WriteFile(out, []byte("old"), 0o644))
	p := fixedPublisher()
	p.rename = func(oldpath, newpath string) error {
		if oldpath == out {
			return fmt.Errorf("file in use")
		}
		return os.Rename(oldpath, newpath)
	}
	res, err := p.Publish(out, "", content("new"))
	require.NoError(t, err)
	assert.Equal(t, "old", read(t, res.Backup))
	assert.Equal(t, "new", read(t, out))
}

func TestPublish_LockedPrimaryUsesFallback(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "merged.csv")
	alt := filepath.Join(dir, "merged_alt.csv")
	require.NoError(t, os.WriteFile(out, []byte("old"), 0o644))
	p := fixedPublisher()
	p.rename = func(oldpath, newpath string) error {
		if newpath == out && strings.Contains(oldpath, ".tmp-") {
			return fmt.Errorf("locked")
		}
		return os.Rename(oldpath, newpath)
	}
	res, err := p.Publish(out, alt, content("new"))
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, alt, res.Path)
	assert.Contains(t, res.PrimaryErr, "locked")
	assert.Equal(t, "old", read(t, out), "prior artifact restored")
	assert.Equal(t, "new", read(t, alt))
}

func TestPublish_BothPathsFail(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "merged.csv")
	require.NoError(t, os.WriteFile(out, []byte("old"), 0o644))
	p := fixedPublisher()
	p.rename = func(oldpath, newpath string) error {
		if strings.Contains(oldpath, ".tmp-") {
			return fmt.Errorf("locked")
		}
		return os.Rename(oldpath, newpath)
	}
	_, err := p.Publish(out, filepath.Join(dir, "alt.csv"), content("new"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPublish))
	assert.Contains(t, err.Error(), "fallback")
	assert.Equal(t, "old", read(t, out))
}
