// Package cache memoizes expensive file loads keyed by source path. An entry
// is reused while the file's modification time and size are unchanged.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Loader parses the file at path.
type Loader[T any] func(path string) (T, error)

type entry[T any] struct {
	modTime time.Time
	size    int64
	data    T
}

// Stats counts cache activity since creation.
type Stats struct {
	Hits   int
	Loads  int
	Errors int
}

// Cache is owned by its caller; there is no process-wide instance.
// It is safe for concurrent use.
type Cache[T any] struct {
	mu      sync.Mutex
	load    Loader[T]
	entries map[string]entry[T]
	stats   Stats
}

// New returns an empty cache that parses files with load.
func New[T any](load Loader[T]) *Cache[T] {
	return &Cache[T]{load: load, entries: make(map[string]entry[T])}
}

func key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Get returns the parsed content of path, loading it when it is not cached
// or when the file changed since it was cached. Load errors are not cached.
func (c *Cache[T]) Get(path string) (T, error) {
	var zero T
	k := key(path)
	fi, err := os.Stat(k)
	if err != nil {
		c.mu.Lock()
		delete(c.entries, k)
		c.stats.Errors++
		c.mu.Unlock()
		return zero, fmt.Errorf("stat %s: %w", path, err)
	}
	c.mu.Lock()
	e, ok := c.entries[k]
	if ok && fresh(e, fi) {
		c.stats.Hits++
		c.mu.Unlock()
		return e.data, nil
	}
	c.mu.Unlock()

	data, err := c.load(k)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		delete(c.entries, k)
		c.stats.Errors++
		return zero, err
	}
	c.stats.Loads++
	c.entries[k] = entry[T]{modTime: fi.ModTime(), size: fi.Size(), data: data}
	return data, nil
}

// Invalidate drops the entry of path. The next Get reloads it.
func (c *Cache[T]) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, key(path))
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[T])
	c.mu.Unlock()
}

// Refresh re-stats every cached file, reloads the stale ones and drops the
// ones that vanished or fail to load. It returns the number of reloads.
func (c *Cache[T]) Refresh() (int, error) {
	c.mu.Lock()
	paths := make([]string, 0, len(c.entries))
	for k := range c.entries {
		paths = append(paths, k)
	}
	c.mu.Unlock()

	reloaded := 0
	var firstErr error
	for _, p := range paths {
		c.mu.Lock()
		e, ok := c.entries[p]
		c.mu.Unlock()
		if !ok {
			continue
		}
		fi, err := os.Stat(p)
		if err != nil {
			c.Invalidate(p)
			continue
		}
		if fresh(e, fi) {
			continue
		}
		if _, err := c.Get(p); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		reloaded++
	}
	return reloaded, firstErr
}

// Len returns the number of cached entries.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func fresh[T any](e entry[T], fi os.FileInfo) bool {
	return e.modTime.Equal(fi.ModTime()) && e.size == fi.Size()
}
