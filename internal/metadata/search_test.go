package metadata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"papermill/internal/document"
)

func writeTestDoc(t *testing.T, m *Manager, path string, meta document.Metadata, content string) {
	t.Helper()
	if err := m.WriteDocument(path, &document.Document{Metadata: meta, Content: content}); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestSearchExactMatch(t *testing.T) {
	m := newTestManager(t)
	dir := t.TempDir()

	writeTestDoc(t, m, filepath.Join(dir, "a.md"), document.Metadata{
		Stage: document.StagePublished, Author: "adapter", Platform: "linkedin",
	}, "one\n")
	writeTestDoc(t, m, filepath.Join(dir, "b.md"), document.Metadata{
		Stage: document.StagePublished, Author: "adapter", Platform: "twitter",
	}, "two\n")
	writeTestDoc(t, m, filepath.Join(dir, "c.md"), document.Metadata{
		Stage: document.StagePublished, Author: "other", Platform: "linkedin",
	}, "three\n")

	matches, err := m.Search(dir, SearchCriteria{Author: "adapter", Platform: "linkedin"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 1 || filepath.Base(matches[0].Path) != "a.md" {
		t.Fatalf("unexpected matches: %+v", matches)
	}
}

func TestSearchByTag(t *testing.T) {
	m := newTestManager(t)
	dir := t.TempDir()
	writeTestDoc(t, m, filepath.Join(dir, "tagged.md"), document.Metadata{
		Stage: document.StageInsights, Author: "s", Tags: []string{"alpha", "beta"},
	}, "x\n")
	writeTestDoc(t, m, filepath.Join(dir, "untagged.md"), document.Metadata{
		Stage: document.StageInsights, Author: "s",
	}, "y\n")

	matches, err := m.Search(dir, SearchCriteria{Tag: "beta"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 1 || filepath.Base(matches[0].Path) != "tagged.md" {
		t.Fatalf("unexpected matches: %+v", matches)
	}
}

func TestSearchSkipsUnreadableFiles(t *testing.T) {
	m := newTestManager(t)
	dir := t.TempDir()
	writeTestDoc(t, m, filepath.Join(dir, "good.md"), document.Metadata{
		Stage: document.StageInput, Author: "p",
	}, "fine\n")
	// A dangling symlink fails the read without failing the directory listing.
	if err := os.Symlink(filepath.Join(dir, "gone"), filepath.Join(dir, "dangling.md")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	matches, err := m.Search(dir, SearchCriteria{})
	if err != nil {
		t.Fatalf("scan should not abort on one unreadable file: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected the readable document only, got %d", len(matches))
	}
}

func TestStatistics(t *testing.T) {
	m := newTestManager(t)
	inputDir := t.TempDir()
	insightsDir := t.TempDir()

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	writeTestDoc(t, m, filepath.Join(inputDir, "a.md"), document.Metadata{
		Stage: document.StageInput, Author: "p", Timestamp: older,
	}, "aaaa\n")
	writeTestDoc(t, m, filepath.Join(inputDir, "b.md"), document.Metadata{
		Stage: document.StageInput, Author: "p", Timestamp: newer,
	}, "bbbb\n")

	stats := m.Statistics(map[document.Stage]string{
		document.StageInput:    inputDir,
		document.StageInsights: insightsDir,
		document.StageContent:  filepath.Join(insightsDir, "does-not-exist"),
	})

	input := stats[document.StageInput]
	if input.Documents != 2 {
		t.Fatalf("input documents = %d, want 2", input.Documents)
	}
	if input.Bytes == 0 {
		t.Fatal("input bytes should be non-zero")
	}
	if !input.Oldest.Equal(older) || !input.Newest.Equal(newer) {
		t.Fatalf("timestamp bounds wrong: oldest=%v newest=%v", input.Oldest, input.Newest)
	}
	if stats[document.StageInsights].Documents != 0 {
		t.Fatal("empty stage should report zero documents")
	}
	if stats[document.StageContent].Documents != 0 {
		t.Fatal("missing directory should report zero stats, not abort")
	}
}
