package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"papermill/internal/config"
	"papermill/internal/document"
	"papermill/internal/ledger"
	"papermill/internal/logging"
	"papermill/internal/watcher"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	workspace := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "papermill.toml")
	body := fmt.Sprintf(`[paths]
workspace_dir = %q

[watcher]
debounce_ms = 50
drain_interval_ms = 100
settle_ms = 100
`, workspace)
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestDaemonLifecycle(t *testing.T) {
	cfg := newTestConfig(t)
	d, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("second Start on a running daemon should fail")
	}

	// Ingest one document and let the consumer journal it.
	path := filepath.Join(cfg.Paths.InputDir, "note.md")
	if err := os.WriteFile(path, []byte("# raw material\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(500 * time.Millisecond)

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		t.Fatalf("reopen ledger: %v", err)
	}
	defer func() { _ = store.Close() }()
	entries, err := store.Tail(context.Background(), 50)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	var sawFile, sawTrigger bool
	for _, entry := range entries {
		if entry.Path != path {
			continue
		}
		switch entry.Kind {
		case watcher.KindFile:
			sawFile = entry.Stage == document.StageInput
		case watcher.KindTrigger:
			sawTrigger = entry.NextStage == document.StageInsights
		}
	}
	if !sawFile {
		t.Fatalf("ledger missing the file event: %+v", entries)
	}
	if !sawTrigger {
		t.Fatalf("ledger missing the trigger event: %+v", entries)
	}
}

func TestSecondInstanceRefused(t *testing.T) {
	cfg := newTestConfig(t)

	first, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = first.Close() }()

	// The rival skips the ledger; the lock is what must refuse it.
	second := *cfg
	second.Ledger.Enabled = false
	rival, err := New(&second, logging.NewNop())
	if err != nil {
		t.Fatalf("New rival: %v", err)
	}
	defer func() { _ = rival.Close() }()
	if err := rival.Start(context.Background()); err == nil {
		t.Fatal("second instance should be refused while the lock is held")
	}
}

func TestStopReleasesLock(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Ledger.Enabled = false

	d, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	d.Stop()
	d.Stop() // idempotent

	successor, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New successor: %v", err)
	}
	defer func() { _ = successor.Close() }()
	if err := successor.Start(context.Background()); err != nil {
		t.Fatalf("lock should be free after Stop: %v", err)
	}
}
