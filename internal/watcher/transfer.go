package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"log/slog"

	"papermill/internal/document"
	"papermill/internal/fileutil"
	"papermill/internal/logging"
)

// MoveFileToStage relocates a file into the target stage's directory and
// emits a move event. The fingerprint cache entry follows the file so the
// arrival in the new stage is not mistaken for a content change.
func (w *Watcher) MoveFileToStage(path string, target document.Stage) (string, error) {
	dest, err := w.stageDestination(path, target)
	if err != nil {
		return "", err
	}
	fromStage := w.stageOf(path)

	if err := fileutil.MoveFile(path, dest); err != nil {
		return "", fmt.Errorf("move %s to stage %s: %w", path, target, err)
	}

	w.mu.Lock()
	if fingerprint, ok := w.hashes[path]; ok {
		delete(w.hashes, path)
		w.hashes[dest] = fingerprint
	}
	w.mu.Unlock()

	w.logger.Info("moved file to stage",
		slog.String("from", path),
		slog.String("to", dest),
		slog.String(logging.FieldStage, string(target)))
	w.emit(Event{
		Kind:      KindMoved,
		From:      path,
		To:        dest,
		FromStage: fromStage,
		ToStage:   target,
		Timestamp: time.Now().UTC(),
	})
	return dest, nil
}

// CopyFileToStage copies a file into the target stage's directory, leaving
// the original in place, and emits a copy event. The copy inherits the
// source's cached fingerprint.
func (w *Watcher) CopyFileToStage(path string, target document.Stage) (string, error) {
	dest, err := w.stageDestination(path, target)
	if err != nil {
		return "", err
	}
	fromStage := w.stageOf(path)

	if err := fileutil.CopyFileVerified(path, dest); err != nil {
		return "", fmt.Errorf("copy %s to stage %s: %w", path, target, err)
	}

	w.mu.Lock()
	if fingerprint, ok := w.hashes[path]; ok {
		w.hashes[dest] = fingerprint
	}
	w.mu.Unlock()

	w.logger.Info("copied file to stage",
		slog.String("from", path),
		slog.String("to", dest),
		slog.String(logging.FieldStage, string(target)))
	w.emit(Event{
		Kind:      KindCopied,
		From:      path,
		To:        dest,
		FromStage: fromStage,
		ToStage:   target,
		Timestamp: time.Now().UTC(),
	})
	return dest, nil
}

func (w *Watcher) stageDestination(path string, target document.Stage) (string, error) {
	dir, ok := w.opts.StageDirs[target]
	if !ok {
		return "", fmt.Errorf("no directory configured for stage %s", target)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create stage directory %s: %w", dir, err)
	}
	return filepath.Join(dir, filepath.Base(path)), nil
}

// stageOf reports which stage directory contains path, or the zero Stage.
func (w *Watcher) stageOf(path string) document.Stage {
	dir := filepath.Dir(path)
	for stage, stageDir := range w.opts.StageDirs {
		if filepath.Clean(stageDir) == filepath.Clean(dir) {
			return stage
		}
	}
	return ""
}
