package merge

import (
	"path/filepath"
	"strings"
)

// OwnFiles matches the files a merge job writes itself: the output, the
// fallback output, their timestamped backups and the lock marker. Such
// files are never read back as sources. The zero value matches nothing.
type OwnFiles struct {
	exact     map[string]struct{}
	artifacts []string
}

// OwnFiles returns the matcher for the files c writes.
func (c Config) OwnFiles() OwnFiles {
	o := OwnFiles{exact: map[string]struct{}{}}
	for _, p := range []string{c.Output, c.FallbackOutput} {
		if abs := absPath(p); abs != "" {
			o.exact[abs] = struct{}{}
			o.artifacts = append(o.artifacts, abs)
		}
	}
	if abs := absPath(c.LockPath); abs != "" {
		o.exact[abs] = struct{}{}
	}
	return o
}

// Match reports whether path is one of the job's own files.
func (o OwnFiles) Match(path string) bool {
	abs := absPath(path)
	if abs == "" {
		return false
	}
	if _, ok := o.exact[abs]; ok {
		return true
	}
	dir, base := filepath.Split(abs)
	for _, a := range o.artifacts {
		adir, abase := filepath.Split(a)
		if adir != dir {
			continue
		}
		ext := filepath.Ext(abase)
		prefix := strings.TrimSuffix(abase, ext) + "_backup_"
		if strings.HasPrefix(base, prefix) && strings.HasSuffix(base, ext) {
			return true
		}
	}
	return false
}

func absPath(p string) string {
	if p == "" {
		return ""
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return ""
	}
	return filepath.Clean(abs)
}
