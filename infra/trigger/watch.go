package trigger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kilianp07/manifests/core/logger"
	"github.com/kilianp07/manifests/core/merge"
)

// Watcher publishes an event when a source export lands in one of the
// watched directories.
type Watcher struct {
	dirs     []string
	patterns []string
	own      merge.OwnFiles
	debounce time.Duration
	bus      *Bus
	log      logger.Logger
	now      func() time.Time
}

// NewWatcher builds a watcher over dirs. Files whose names do not match
// patterns and the merge job's own files (outputs, backups, lock) never
// fire.
func NewWatcher(dirs, patterns []string, own merge.OwnFiles, debounce time.Duration, bus *Bus, log logger.Logger) *Watcher {
	return &Watcher{
		dirs:     dirs,
		patterns: patterns,
		own:      own,
		debounce: debounce,
		bus:      bus,
		log:      logger.OrNop(log),
		now:      time.Now,
	}
}

// Run registers the directories and keeps watching in the background
// until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	for _, d := range w.dirs {
		if err := fw.Add(d); err != nil {
			_ = fw.Close()
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}
	w.log.Infof("watching %d directories", len(w.dirs))
	go w.loop(ctx, fw)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer func() { _ = fw.Close() }()
	var (
		mu    sync.Mutex
		timer *time.Timer
		last  string
	)
	fire := func() {
		mu.Lock()
		path := last
		mu.Unlock()
		w.log.Debugf("source landed: %s", path)
		w.bus.Publish(Event{Source: SourceWatch, Path: path, Time: w.now()})
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.log.Warnf("watch error: %v", err)
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			mu.Lock()
			last = ev.Name
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if !merge.IsCandidate(filepath.Base(ev.Name), w.patterns) {
		return false
	}
	return !w.own.Match(ev.Name)
}
