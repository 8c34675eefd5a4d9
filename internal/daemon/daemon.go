package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"papermill/internal/config"
	"papermill/internal/ledger"
	"papermill/internal/logging"
	"papermill/internal/metadata"
	"papermill/internal/watcher"
)

// Daemon owns the watch-process lifecycle for one workspace.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	manager *metadata.Manager
	watcher *watcher.Watcher
	store   *ledger.Store

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a daemon from configuration. The ledger is opened only when
// enabled; everything else is mandatory.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	manager := metadata.NewManager(logger)
	w, err := watcher.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build watcher: %w", err)
	}

	var store *ledger.Store
	if cfg.Ledger.Enabled {
		store, err = ledger.Open(cfg.LedgerPath())
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		manager:  manager,
		watcher:  w,
		store:    store,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Manager exposes the daemon's metadata manager for CLI reuse.
func (d *Daemon) Manager() *metadata.Manager {
	return d.manager
}

// Watcher exposes the daemon's stage watcher.
func (d *Daemon) Watcher() *watcher.Watcher {
	return d.watcher
}

// Ledger exposes the daemon's event journal, nil when disabled.
func (d *Daemon) Ledger() *ledger.Store {
	return d.store
}

// Start acquires the daemon lock, starts the stage watcher, and begins
// consuming pipeline events.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another papermill instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.watcher.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start watcher: %w", err)
	}

	d.wg.Add(1)
	go d.consume()

	d.running.Store(true)
	d.logger.Info("daemon started",
		slog.String("lock", d.lockPath),
		slog.String("workspace", d.cfg.Paths.WorkspaceDir))
	return nil
}

// Run starts the daemon and blocks until the context is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.Stop()
	return nil
}

// consume drains the watcher's event channel, journaling and acting on each
// event until shutdown.
func (d *Daemon) consume() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case evt, ok := <-d.watcher.Events():
			if !ok {
				return
			}
			d.handleEvent(evt)
		}
	}
}

func (d *Daemon) handleEvent(evt watcher.Event) {
	switch evt.Kind {
	case watcher.KindStarted:
		d.logger.Info("watcher online")
	case watcher.KindStopped:
		d.logger.Info("watcher offline")
	case watcher.KindError:
		d.logger.Warn("watcher error",
			slog.String(logging.FieldStage, string(evt.Stage)), slog.Any("error", evt.Err))
	case watcher.KindFile:
		d.handleFileEvent(evt)
	case watcher.KindTrigger:
		d.logger.Info("stage advance available",
			slog.String(logging.FieldPath, evt.Path),
			slog.String("from", string(evt.Stage)),
			slog.String("to", string(evt.NextStage)))
		d.record(evt, "")
	case watcher.KindMoved, watcher.KindCopied:
		d.record(evt, "")
	case watcher.KindQueueItem:
		d.logger.Debug("queue item settled",
			slog.String(logging.FieldPath, evt.Path),
			slog.String("type", string(evt.Type)))
	}
}

// handleFileEvent journals the event and, for files that should carry a
// header, checks the document against its stage's metadata contract. A
// failing document is reported, never rejected.
func (d *Daemon) handleFileEvent(evt watcher.Event) {
	var fingerprint string
	if evt.Type == watcher.EventAdded || evt.Type == watcher.EventChanged {
		doc, err := d.manager.ReadDocument(evt.Path)
		switch {
		case err != nil:
			d.logger.Warn("cannot read document",
				slog.String(logging.FieldPath, evt.Path), slog.Any("error", err))
		default:
			fingerprint = doc.Metadata.Hash
			if !metadata.ValidateMetadata(doc.Metadata, evt.Stage) {
				d.logger.Warn("document metadata incomplete for stage",
					slog.String(logging.FieldPath, evt.Path),
					slog.String(logging.FieldStage, string(evt.Stage)),
					slog.String(logging.FieldDocumentID, doc.Metadata.ID))
			}
		}
	}
	d.record(evt, fingerprint)
}

func (d *Daemon) record(evt watcher.Event, fingerprint string) {
	if d.store == nil {
		return
	}
	if err := d.store.Record(d.ctx, evt, fingerprint); err != nil {
		d.logger.Warn("ledger write failed", slog.Any("error", err))
	}
}

// Stop halts the watcher and event consumer and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.watcher.Stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", slog.Any("error", err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close releases every resource held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	d.watcher.Close()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}
