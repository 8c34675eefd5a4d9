package metadata

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"papermill/internal/document"
	"papermill/internal/fileutil"
	"papermill/internal/logging"
)

// Manager reads and writes documents and maintains in-memory caches keyed by
// path and by document ID. The caches live for the Manager's lifetime and
// are dropped wholesale by ClearCache; no partial clear is exposed.
type Manager struct {
	logger *slog.Logger

	mu      sync.RWMutex
	byPath  map[string]*document.Document
	idIndex map[string]string
}

// NewManager constructs a Manager. A nil logger is replaced with a no-op one.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger:  logging.WithComponent(logger, "metadata"),
		byPath:  make(map[string]*document.Document),
		idIndex: make(map[string]string),
	}
}

// ReadDocument loads and decodes the document at path. A missing timestamp
// is backfilled from the file's modification time and a missing hash is
// recomputed from the body. Missing paths return an error wrapping
// ErrNotFound; malformed headers are not errors (the file reads back as a
// headerless body).
func (m *Manager) ReadDocument(path string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read document %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}

	doc := document.DecodeDocument(data)
	if doc.Metadata.Timestamp.IsZero() {
		if info, statErr := os.Stat(path); statErr == nil {
			doc.Metadata.Timestamp = info.ModTime().UTC()
		}
	}
	if doc.Metadata.Hash == "" {
		doc.Metadata.Hash = document.FingerprintString(doc.Content)
	}

	m.cache(path, doc)
	return doc, nil
}

// WriteDocument persists the document at path, assigning an ID, timestamp,
// and initial version when absent and recomputing the content hash. Parent
// directories are created as needed and the file is replaced atomically, so
// a failed write never leaves a partial document behind.
func (m *Manager) WriteDocument(path string, doc *document.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrWrite)
	}
	if doc.Metadata.ID == "" {
		doc.Metadata.ID = uuid.NewString()
	}
	if doc.Metadata.Timestamp.IsZero() {
		doc.Metadata.Timestamp = time.Now().UTC()
	}
	if doc.Metadata.Version.IsZero() {
		doc.Metadata.Version = document.InitialVersion
	}
	doc.Metadata.Hash = document.FingerprintString(doc.Content)

	data, err := document.Render(doc)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create directory %s: %v", ErrWrite, dir, err)
		}
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}

	m.cache(path, doc)
	m.logger.Debug("document written",
		slog.String(logging.FieldPath, path),
		slog.String(logging.FieldDocumentID, doc.Metadata.ID),
		slog.String(logging.FieldStage, string(doc.Metadata.Stage)))
	return nil
}

// CachedDocument returns the cached document for path, if any.
func (m *Manager) CachedDocument(path string) (*document.Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.byPath[path]
	return doc, ok
}

// CachedByID returns the cached document with the given ID, if any.
func (m *Manager) CachedByID(id string) (*document.Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path, ok := m.idIndex[id]
	if !ok {
		return nil, false
	}
	doc, ok := m.byPath[path]
	return doc, ok
}

// ClearCache drops both indices atomically.
func (m *Manager) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byPath = make(map[string]*document.Document)
	m.idIndex = make(map[string]string)
}

func (m *Manager) cache(path string, doc *document.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byPath[path] = doc
	if doc.Metadata.ID != "" {
		m.idIndex[doc.Metadata.ID] = path
	}
}
