package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// fileFilter decides whether a raw event's path deserves any processing.
// Filtered-out events are dropped silently.
type fileFilter struct {
	extensions map[string]struct{}
	minSize    int64
	maxSize    int64
	ignore     []*regexp.Regexp
}

func newFileFilter(extensions []string, minSize, maxSize int64, ignorePatterns []string) (*fileFilter, error) {
	f := &fileFilter{minSize: minSize, maxSize: maxSize}
	if len(extensions) > 0 {
		f.extensions = make(map[string]struct{}, len(extensions))
		for _, ext := range extensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			f.extensions[ext] = struct{}{}
		}
	}
	for _, pattern := range ignorePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile ignore pattern %q: %w", pattern, err)
		}
		f.ignore = append(f.ignore, re)
	}
	return f, nil
}

// allow reports whether the path passes the filter chain. checkFile controls
// whether the on-disk file is consulted for size and type; removal events
// skip that since the file is already gone. A stat failure is fail-open: the
// dispatch path decides what a vanished file means.
func (f *fileFilter) allow(path string, checkFile bool) bool {
	if len(f.extensions) > 0 {
		if _, ok := f.extensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return false
		}
	}
	for _, re := range f.ignore {
		if re.MatchString(path) {
			return false
		}
	}
	if checkFile {
		info, err := os.Stat(path)
		if err != nil {
			return true
		}
		if info.IsDir() {
			return false
		}
		if f.minSize > 0 && info.Size() < f.minSize {
			return false
		}
		if f.maxSize > 0 && info.Size() > f.maxSize {
			return false
		}
	}
	return true
}
