package merge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SourceFile is a candidate export found on disk.
type SourceFile struct {
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

// Skipped records an input left out of the run and why.
type Skipped struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Discover lists the files of dirs whose names match one of patterns.
// Office lock files (~$*), dotfiles and the files matched by own are
// ignored. Unreadable directories are reported as skipped rather than
// failing the run.
func Discover(dirs, patterns []string, own OwnFiles) ([]SourceFile, []Skipped) {
	var (
		files   []SourceFile
		skipped []Skipped
		seen    = map[string]struct{}{}
	)
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			skipped = append(skipped, Skipped{Path: dir, Reason: fmt.Sprintf("read dir: %v", err)})
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !IsCandidate(name, patterns) {
				continue
			}
			path := filepath.Join(dir, name)
			if own.Match(path) {
				continue
			}
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			info, err := e.Info()
			if err != nil {
				skipped = append(skipped, Skipped{Path: path, Reason: fmt.Sprintf("stat: %v", err)})
				continue
			}
			files = append(files, SourceFile{Path: path, ModTime: info.ModTime(), Size: info.Size()})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, skipped
}

// IsCandidate reports whether a file name is a source export: not a lock
// file or dotfile, and matching one of patterns (all names when empty).
func IsCandidate(name string, patterns []string) bool {
	if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
		return false
	}
	return matchAny(patterns, name)
}

func matchAny(patterns []string, name string) bool {
	if len(patterns) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if ok, _ := filepath.Match(strings.ToLower(p), lower); ok {
			return true
		}
	}
	return false
}
