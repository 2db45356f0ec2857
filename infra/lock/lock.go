// Package lock provides the advisory lock that keeps two merge runs from
// writing the same artifact concurrently.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrHeld is returned by TryAcquire when another holder owns the lock.
var ErrHeld = errors.New("lock already held")

// Lock is an acquired lock. Release must be called exactly once; further
// calls are no-ops.
type Lock struct {
	path string
	f    *os.File
	once sync.Once
	err  error
}

// Path returns the marker file path.
func (l *Lock) Path() string { return l.path }

// TryAcquire takes the lock at path without blocking.
func TryAcquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("lock dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock: %w", err)
	}
	if err := tryLock(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	_ = f.Truncate(0)
	_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
	return &Lock{path: path, f: f}, nil
}

// Release unlocks and closes the marker. The file itself is left in place.
func (l *Lock) Release() error {
	l.once.Do(func() {
		uerr := unlock(l.f)
		cerr := l.f.Close()
		l.err = errors.Join(uerr, cerr)
	})
	return l.err
}

// With runs fn while holding the lock at path. When the lock is held
// elsewhere fn is not called and ran is false with a nil error. The lock is
// released on every exit path, including a panic in fn.
func With(path string, fn func() error) (ran bool, err error) {
	l, err := TryAcquire(path)
	if errors.Is(err, ErrHeld) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer func() {
		if rerr := l.Release(); rerr != nil && err == nil {
			err = fmt.Errorf("release lock: %w", rerr)
		}
	}()
	return true, fn()
}
