package metadata

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"papermill/internal/document"
	"papermill/internal/logging"
)

// SearchCriteria filters documents by exact metadata matches. Zero-valued
// fields do not constrain the search.
type SearchCriteria struct {
	Stage    document.Stage
	Author   string
	Platform string
	Mode     string
	Tag      string
}

// Match pairs a found document with its path.
type Match struct {
	Path     string
	Document *document.Document
}

// Search scans the files directly under dir and returns documents matching
// the criteria. Individual unreadable files are logged and skipped; only a
// failure to list the directory aborts the scan.
func (m *Manager) Search(dir string, criteria SearchCriteria) ([]Match, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list directory %s: %w", dir, err)
	}

	var matches []Match
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		doc, err := m.ReadDocument(path)
		if err != nil {
			m.logger.Warn("skipping unreadable document",
				slog.String(logging.FieldPath, path),
				slog.Any("error", err))
			continue
		}
		if criteria.matches(doc.Metadata) {
			matches = append(matches, Match{Path: path, Document: doc})
		}
	}
	return matches, nil
}

func (c SearchCriteria) matches(meta document.Metadata) bool {
	if c.Stage != "" && meta.Stage != c.Stage {
		return false
	}
	if c.Author != "" && meta.Author != c.Author {
		return false
	}
	if c.Platform != "" && meta.Platform != c.Platform {
		return false
	}
	if c.Mode != "" && meta.Mode != c.Mode {
		return false
	}
	if c.Tag != "" {
		found := false
		for _, tag := range meta.Tags {
			if tag == c.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// StageStats aggregates the documents of one stage directory.
type StageStats struct {
	Documents int
	Bytes     int64
	Oldest    time.Time
	Newest    time.Time
}

// Statistics aggregates counts, sizes, and timestamp bounds for every stage
// directory. Missing directories report zero stats; unreadable individual
// files are logged and skipped rather than aborting the scan.
func (m *Manager) Statistics(dirs map[document.Stage]string) map[document.Stage]StageStats {
	stats := make(map[document.Stage]StageStats, len(dirs))
	for stage, dir := range dirs {
		stats[stage] = m.stageStats(dir)
	}
	return stats
}

func (m *Manager) stageStats(dir string) StageStats {
	var stats StageStats
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn("skipping unreadable stage directory",
				slog.String(logging.FieldPath, dir),
				slog.Any("error", err))
		}
		return stats
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			m.logger.Warn("skipping unreadable file",
				slog.String(logging.FieldPath, path),
				slog.Any("error", err))
			continue
		}
		doc, err := m.ReadDocument(path)
		if err != nil {
			m.logger.Warn("skipping unreadable document",
				slog.String(logging.FieldPath, path),
				slog.Any("error", err))
			continue
		}

		stats.Documents++
		stats.Bytes += info.Size()
		ts := doc.Metadata.Timestamp
		if stats.Oldest.IsZero() || ts.Before(stats.Oldest) {
			stats.Oldest = ts
		}
		if ts.After(stats.Newest) {
			stats.Newest = ts
		}
	}
	return stats
}
