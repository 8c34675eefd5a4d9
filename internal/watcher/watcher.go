package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"papermill/internal/config"
	"papermill/internal/document"
	"papermill/internal/logging"
)

// Options describes watcher construction parameters.
type Options struct {
	StageDirs      map[document.Stage]string
	Debounce       time.Duration
	DrainInterval  time.Duration
	Settle         time.Duration
	QueueSize      int
	Extensions     []string
	MinSizeBytes   int64
	MaxSizeBytes   int64
	IgnorePatterns []string
	Logger         *slog.Logger
}

const (
	defaultDebounce      = 500 * time.Millisecond
	defaultDrainInterval = time.Second
	defaultSettle        = time.Second
	defaultQueueSize     = 256
)

type timerKey struct {
	etype EventType
	path  string
}

type queueEntry struct {
	event    Event
	enqueued time.Time
	retries  int
}

// Watcher owns one filesystem watcher per stage directory plus the debounce
// timers, content-hash cache, and processing queue behind them. All shared
// state is guarded by mu; consumers interact only through Events() and the
// exported methods.
type Watcher struct {
	opts    Options
	logger  *slog.Logger
	filter  *fileFilter
	events  chan Event
	dropped atomic.Uint64

	mu        sync.Mutex
	timers    map[timerKey]*time.Timer
	hashes    map[string]string
	queue     []queueEntry
	notifiers []*fsnotify.Watcher
	started   bool
	stopped   bool
	closed    bool
	stop      chan struct{}

	wg sync.WaitGroup
}

// New constructs a Watcher. It does not touch the filesystem; Start does.
func New(opts Options) (*Watcher, error) {
	if len(opts.StageDirs) == 0 {
		return nil, errors.New("watcher requires at least one stage directory")
	}
	for stage, dir := range opts.StageDirs {
		if !stage.Valid() {
			return nil, fmt.Errorf("unknown stage %q", stage)
		}
		if dir == "" {
			return nil, fmt.Errorf("stage %s has no directory", stage)
		}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.DrainInterval <= 0 {
		opts.DrainInterval = defaultDrainInterval
	}
	if opts.Settle <= 0 {
		opts.Settle = defaultSettle
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}

	filter, err := newFileFilter(opts.Extensions, opts.MinSizeBytes, opts.MaxSizeBytes, opts.IgnorePatterns)
	if err != nil {
		return nil, err
	}

	return &Watcher{
		opts:   opts,
		logger: logging.WithComponent(opts.Logger, "watcher"),
		filter: filter,
		events: make(chan Event, opts.QueueSize),
		timers: make(map[timerKey]*time.Timer),
		hashes: make(map[string]string),
		stop:   make(chan struct{}),
	}, nil
}

// NewFromConfig constructs a Watcher from application configuration.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Watcher, error) {
	if cfg == nil {
		return nil, errors.New("watcher requires config")
	}
	return New(Options{
		StageDirs:      cfg.StageDirs(),
		Debounce:       cfg.Debounce(),
		DrainInterval:  cfg.DrainInterval(),
		Settle:         cfg.Settle(),
		QueueSize:      cfg.Watcher.QueueSize,
		Extensions:     cfg.Watcher.Extensions,
		MinSizeBytes:   cfg.Watcher.MinSizeBytes,
		MaxSizeBytes:   cfg.Watcher.MaxSizeBytes,
		IgnorePatterns: cfg.Watcher.IgnorePatterns,
		Logger:         logger,
	})
}

// Events returns the channel pipeline events are delivered on. The channel
// is bounded; when a consumer lags, the watcher drops the oldest pending
// event and counts it in Dropped.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Dropped reports how many events were discarded because the channel was full.
func (w *Watcher) Dropped() uint64 {
	return w.dropped.Load()
}

// Start creates every stage directory, seeds the content-hash cache from the
// files already present, and attaches one filesystem watcher per stage. It
// returns only once every stage watcher is ready; the initial scan never
// dispatches events.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return errors.New("watcher is destroyed")
	}
	if w.started && !w.stopped {
		w.mu.Unlock()
		return errors.New("watcher already started")
	}
	if w.stopped {
		w.mu.Unlock()
		return errors.New("watcher cannot be restarted")
	}
	w.started = true
	w.mu.Unlock()

	// Deterministic attach order keeps logs and failures reproducible.
	stages := make([]document.Stage, 0, len(w.opts.StageDirs))
	for stage := range w.opts.StageDirs {
		stages = append(stages, stage)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })

	for _, stage := range stages {
		dir := w.opts.StageDirs[stage]
		if err := os.MkdirAll(dir, 0o755); err != nil {
			w.Stop()
			return fmt.Errorf("create stage directory %s: %w", dir, err)
		}
		if err := w.seedHashes(dir); err != nil {
			w.Stop()
			return fmt.Errorf("scan stage directory %s: %w", dir, err)
		}

		notifier, err := fsnotify.NewWatcher()
		if err != nil {
			w.Stop()
			return fmt.Errorf("create watcher for stage %s: %w", stage, err)
		}
		if err := notifier.Add(dir); err != nil {
			_ = notifier.Close()
			w.Stop()
			return fmt.Errorf("watch %s: %w", dir, err)
		}

		w.mu.Lock()
		w.notifiers = append(w.notifiers, notifier)
		w.mu.Unlock()

		w.wg.Add(1)
		go w.run(ctx, stage, notifier)
		w.logger.Debug("stage watcher ready",
			slog.String(logging.FieldStage, string(stage)),
			slog.String(logging.FieldPath, dir))
	}

	w.wg.Add(1)
	go w.drainLoop(ctx)

	w.emit(Event{Kind: KindStarted, Timestamp: time.Now().UTC()})
	w.logger.Info("watching stage directories", slog.Int("stages", len(stages)))
	return nil
}

// seedHashes fingerprints the files already in dir so the first real change
// after startup is judged against current content.
func (w *Watcher) seedHashes(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !w.filter.allow(path, true) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			w.logger.Warn("skipping unreadable file during initial scan",
				slog.String(logging.FieldPath, path), slog.Any("error", err))
			continue
		}
		w.mu.Lock()
		w.hashes[path] = document.Fingerprint(data)
		w.mu.Unlock()
	}
	return nil
}

func (w *Watcher) run(ctx context.Context, stage document.Stage, notifier *fsnotify.Watcher) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case raw, ok := <-notifier.Events:
			if !ok {
				return
			}
			w.handleRaw(stage, raw)
		case err, ok := <-notifier.Errors:
			if !ok {
				return
			}
			w.logger.Warn("stage watcher error",
				slog.String(logging.FieldStage, string(stage)), slog.Any("error", err))
			w.emit(Event{Kind: KindError, Stage: stage, Err: err, Timestamp: time.Now().UTC()})
		}
	}
}

// handleRaw maps a filesystem notification to an event type, applies the
// filter chain, and parks the event behind its debounce timer. A newer event
// with the same (type, path) key restarts the timer instead of queuing a
// duplicate.
func (w *Watcher) handleRaw(stage document.Stage, raw fsnotify.Event) {
	var etype EventType
	switch {
	case raw.Op.Has(fsnotify.Create):
		etype = EventAdded
	case raw.Op.Has(fsnotify.Write):
		etype = EventChanged
	case raw.Op.Has(fsnotify.Chmod):
		// Permission/mtime touches surface as changes; the fingerprint
		// comparison at dispatch decides whether content really moved.
		etype = EventChanged
	case raw.Op.Has(fsnotify.Remove), raw.Op.Has(fsnotify.Rename):
		etype = EventRemoved
	default:
		return
	}

	path := raw.Name
	if !w.filter.allow(path, etype != EventRemoved) {
		return
	}

	key := timerKey{etype: etype, path: path}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if timer, ok := w.timers[key]; ok {
		timer.Reset(w.opts.Debounce)
		return
	}
	w.timers[key] = time.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		delete(w.timers, key)
		stopped := w.stopped
		w.mu.Unlock()
		if stopped {
			return
		}
		w.dispatch(stage, etype, path)
	})
}

// dispatch runs once a debounce window closes. Change events are compared
// against the fingerprint cache and suppressed when content is identical; an
// unreadable file is assumed changed so a real edit is never silently lost.
func (w *Watcher) dispatch(stage document.Stage, etype EventType, path string) {
	switch etype {
	case EventAdded, EventChanged:
		data, err := os.ReadFile(path)
		if err != nil {
			w.logger.Warn("cannot read file for change detection, assuming changed",
				slog.String(logging.FieldPath, path), slog.Any("error", err))
		} else {
			fingerprint := document.Fingerprint(data)
			w.mu.Lock()
			previous, seen := w.hashes[path]
			w.hashes[path] = fingerprint
			w.mu.Unlock()
			if etype == EventChanged && seen && previous == fingerprint {
				w.logger.Debug("suppressing unchanged content",
					slog.String(logging.FieldPath, path),
					slog.String("fingerprint", fingerprint))
				return
			}
		}
	case EventRemoved:
		w.mu.Lock()
		delete(w.hashes, path)
		w.mu.Unlock()
	}

	evt := Event{
		Kind:      KindFile,
		Type:      etype,
		Path:      path,
		Stage:     stage,
		Timestamp: time.Now().UTC(),
	}

	w.mu.Lock()
	w.queue = append(w.queue, queueEntry{event: evt, enqueued: evt.Timestamp})
	w.mu.Unlock()

	w.logger.Info("file event",
		slog.String("type", string(etype)),
		slog.String(logging.FieldStage, string(stage)),
		slog.String(logging.FieldPath, path))
	w.emit(evt)
	w.TriggerNextStage(evt)
}

// TriggerNextStage emits an advisory stage-transition event for added or
// changed file events. Terminal stages produce nothing. The watcher never
// performs the advancement itself.
func (w *Watcher) TriggerNextStage(evt Event) {
	if evt.Type != EventAdded && evt.Type != EventChanged {
		return
	}
	next, ok := document.NextStage(evt.Stage)
	if !ok {
		return
	}
	w.logger.Info("stage transition requested",
		slog.String("current", string(evt.Stage)),
		slog.String("next", string(next)),
		slog.String(logging.FieldPath, evt.Path))
	w.emit(Event{
		Kind:      KindTrigger,
		Type:      evt.Type,
		Path:      evt.Path,
		Stage:     evt.Stage,
		NextStage: next,
		Timestamp: time.Now().UTC(),
	})
}

func (w *Watcher) drainLoop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.opts.DrainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.drainQueue()
		}
	}
}

// drainQueue re-emits queue entries older than the settle window so a
// consumer that attached late still observes them. FIFO by arrival, no
// further ordering guarantee.
func (w *Watcher) drainQueue() {
	cutoff := time.Now().UTC().Add(-w.opts.Settle)

	w.mu.Lock()
	var ready, waiting []queueEntry
	for _, entry := range w.queue {
		if entry.enqueued.After(cutoff) {
			waiting = append(waiting, entry)
			continue
		}
		ready = append(ready, entry)
	}
	w.queue = waiting
	w.mu.Unlock()

	for _, entry := range ready {
		evt := entry.event
		evt.Kind = KindQueueItem
		evt.Retries = entry.retries
		w.emit(evt)
	}
}

// Stop cancels pending debounce timers, closes every stage watcher, and
// clears the hash cache and processing queue. In-flight dispatches finish
// but emit nothing once the stopped flag is set.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.stop)
	for key, timer := range w.timers {
		timer.Stop()
		delete(w.timers, key)
	}
	notifiers := w.notifiers
	w.notifiers = nil
	w.hashes = make(map[string]string)
	w.queue = nil
	w.mu.Unlock()

	for _, notifier := range notifiers {
		if err := notifier.Close(); err != nil {
			w.logger.Warn("closing stage watcher", slog.Any("error", err))
		}
	}
	w.wg.Wait()

	w.emitStopped()
	w.logger.Info("watcher stopped")
}

// emitStopped bypasses the stopped guard so consumers see the final event.
func (w *Watcher) emitStopped() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.events <- Event{Kind: KindStopped, Timestamp: time.Now().UTC()}:
	default:
		w.dropped.Add(1)
	}
}

// Close stops the watcher and closes the event channel. A closed watcher
// cannot be restarted.
func (w *Watcher) Close() {
	w.Stop()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.events)
}

// emit delivers an event without ever blocking the watcher: when the channel
// is full the oldest pending event is discarded in favor of the new one.
func (w *Watcher) emit(evt Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.stopped {
		return
	}
	select {
	case w.events <- evt:
		return
	default:
	}
	select {
	case <-w.events:
		w.dropped.Add(1)
	default:
	}
	select {
	case w.events <- evt:
	default:
		w.dropped.Add(1)
	}
}
