//go:build !unix

package lock

import (
	"os"
	"path/filepath"
	"sync"
)

// Without flock the lock only excludes runs within this process.
var held sync.Map

func tryLock(f *os.File) error {
	key, err := filepath.Abs(f.Name())
	if err != nil {
		key = f.Name()
	}
	if _, loaded := held.LoadOrStore(key, struct{}{}); loaded {
		return ErrHeld
	}
	return nil
}

func unlock(f *os.File) error {
	key, err := filepath.Abs(f.Name())
	if err != nil {
		key = f.Name()
	}
	held.Delete(key)
	return nil
}
