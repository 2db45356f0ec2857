// Package artifact publishes merge outputs. A new artifact is always written
// to a temporary file next to its target and renamed into place; an artifact
// already present is first moved to a timestamped backup.
package artifact

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrPublish is returned when neither the primary nor the fallback path
// could be written.
var ErrPublish = errors.New("publish artifact")

// WriteFunc encodes the artifact content.
type WriteFunc func(w io.Writer) error

// Result describes a successful publication.
type Result struct {
	Path   string `json:"path"`
	Backup string `json:"backup,omitempty"`
	// Fallback is set when the primary path could not be used.
	Fallback bool `json:"fallback,omitempty"`
	// PrimaryErr holds the reason the primary path was abandoned.
	PrimaryErr string `json:"primary_error,omitempty"`
}

// Publisher writes artifacts with backup and fallback handling.
type Publisher struct {
	// Now stamps backup names.
	Now func() time.Time
	// rename is swapped in tests to simulate locked files.
	rename func(oldpath, newpath string) error
}

// NewPublisher returns a Publisher using the wall clock.
func NewPublisher() *Publisher {
	return &Publisher{Now: time.Now, rename: os.Rename}
}

// Publish writes the artifact to path. When that fails and fallback is
// not empty, it is written to fallback instead. A valid prior artifact is
// never modified in place.
func (p *Publisher) Publish(path, fallback string, write WriteFunc) (Result, error) {
	res, err := p.publishTo(path, write)
	if err == nil {
		return res, nil
	}
	if fallback == "" || fallback == path {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrPublish, path, err)
	}
	res, ferr := p.publishTo(fallback, write)
	if ferr != nil {
		return Result{}, fmt.Errorf("%w: %s: %v; fallback %s: %v", ErrPublish, path, err, fallback, ferr)
	}
	res.Fallback = true
	res.PrimaryErr = err.Error()
	return res, nil
}

func (p *Publisher) publishTo(path string, write WriteFunc) (Result, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return Result{}, err
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }
	if err := write(tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return Result{}, fmt.Errorf("encode: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return Result{}, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return Result{}, err
	}

	res := Result{Path: path}
	moved := false
	if _, err := os.Stat(path); err == nil {
		res.Backup = p.backupName(path)
		if err := p.rename(path, res.Backup); err == nil {
			moved = true
		} else if cerr := copyFile(path, res.Backup); cerr != nil {
			cleanup()
			return Result{}, fmt.Errorf("backup %s: rename: %v; copy: %w", path, err, cerr)
		}
	}
	if err := p.rename(tmpPath, path); err != nil {
		cleanup()
		if moved {
			if rerr := p.rename(res.Backup, path); rerr != nil {
				return Result{}, fmt.Errorf("replace %s: %v; restore from %s: %w", path, err, res.Backup, rerr)
			}
		}
		return Result{}, fmt.Errorf("replace %s: %w", path, err)
	}
	return res, nil
}

// backupName returns <stem>_backup_<timestamp><ext>, suffixed with a
// counter when that name is taken.
func (p *Publisher) backupName(path string) string {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	base := fmt.Sprintf("%s_backup_%s", stem, now().Format("20060102-150405"))
	name := base + ext
	for i := 1; ; i++ {
		if _, err := os.Stat(name); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
