package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"papermill/internal/document"
	"papermill/internal/logging"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(logging.NewNop())
}

func TestWriteReadRoundTrip(t *testing.T) {
	m := newTestManager(t)
	path := filepath.Join(t.TempDir(), "input", "note.md")

	doc := &document.Document{
		Metadata: document.Metadata{Stage: document.StageInput, Author: "collector"},
		Content:  "Hello world\n",
	}
	if err := m.WriteDocument(path, doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	if doc.Metadata.ID == "" {
		t.Fatal("write should assign an id")
	}
	if doc.Metadata.Timestamp.IsZero() {
		t.Fatal("write should stamp a timestamp")
	}
	if doc.Metadata.Hash != document.FingerprintString(doc.Content) {
		t.Fatalf("hash not recomputed: %q", doc.Metadata.Hash)
	}
	if doc.Metadata.Version != document.InitialVersion {
		t.Fatalf("version not defaulted: %v", doc.Metadata.Version)
	}

	got, err := m.ReadDocument(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Metadata.ID != doc.Metadata.ID || got.Content != doc.Content {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestReadMissingPath(t *testing.T) {
	m := newTestManager(t)
	_, err := m.ReadDocument(filepath.Join(t.TempDir(), "missing.md"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReadBackfillsTimestampAndHash(t *testing.T) {
	m := newTestManager(t)
	path := filepath.Join(t.TempDir(), "plain.md")
	if err := os.WriteFile(path, []byte("no frontmatter at all\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	doc, err := m.ReadDocument(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if doc.Metadata.Timestamp.IsZero() {
		t.Fatal("timestamp should backfill from mtime")
	}
	if time.Since(doc.Metadata.Timestamp) > time.Minute {
		t.Fatalf("backfilled timestamp implausible: %v", doc.Metadata.Timestamp)
	}
	if doc.Metadata.Hash != document.FingerprintString(doc.Content) {
		t.Fatalf("hash should recompute from body: %q", doc.Metadata.Hash)
	}
}

func TestReadMalformedHeaderIsFailSoft(t *testing.T) {
	m := newTestManager(t)
	path := filepath.Join(t.TempDir(), "broken.md")
	raw := "---\nid: [oops\n---\n\nstill readable\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	doc, err := m.ReadDocument(path)
	if err != nil {
		t.Fatalf("malformed header must not fail the read: %v", err)
	}
	if doc.Metadata.ID != "" {
		t.Fatalf("expected empty metadata id, got %q", doc.Metadata.ID)
	}
	if doc.Content != raw {
		t.Fatalf("body should be the original text, got %q", doc.Content)
	}
}

func TestCaches(t *testing.T) {
	m := newTestManager(t)
	path := filepath.Join(t.TempDir(), "doc.md")
	doc := &document.Document{
		Metadata: document.Metadata{Stage: document.StageInput, Author: "a"},
		Content:  "cached\n",
	}
	if err := m.WriteDocument(path, doc); err != nil {
		t.Fatalf("write: %v", err)
	}

	if cached, ok := m.CachedDocument(path); !ok || cached.Metadata.ID != doc.Metadata.ID {
		t.Fatal("path cache miss after write")
	}
	if cached, ok := m.CachedByID(doc.Metadata.ID); !ok || cached.Content != "cached\n" {
		t.Fatal("id cache miss after write")
	}

	m.ClearCache()
	if _, ok := m.CachedDocument(path); ok {
		t.Fatal("path cache should be empty after clear")
	}
	if _, ok := m.CachedByID(doc.Metadata.ID); ok {
		t.Fatal("id cache should be empty after clear")
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	m := newTestManager(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	doc := &document.Document{
		Metadata: document.Metadata{Stage: document.StageInput, Author: "a"},
		Content:  "body\n",
	}
	for i := 0; i < 3; i++ {
		if err := m.WriteDocument(path, doc); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || strings.Contains(entries[0].Name(), ".tmp-") {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected only doc.md, got %v", names)
	}
}
