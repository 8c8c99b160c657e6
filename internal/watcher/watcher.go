// Package watcher reloads the phone catalog when its import file changes.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"techhourse/internal/logging"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Reloader replaces the catalog from the import file.
type Reloader interface {
	Reload(ctx context.Context) (int, error)
}

// ReloadFunc is called after every reload attempt.
type ReloadFunc func(count int, err error)

// Watcher monitors the catalog import file for changes
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	reloader  Reloader
	path      string
	debounce  time.Duration
	onReload  ReloadFunc
	logger    *logging.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for the file at path. The parent directory
// is watched so that editors which replace the file are still seen.
func NewWatcher(reloader Reloader, path string, onReload ReloadFunc, logger *logging.Logger) (*Watcher, error) {
	logger = logging.OrDiscard(logger)
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		logger.WithContext("error", err.Error()).Error("failed to create fsnotify watcher")
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		reloader:  reloader,
		path:      abs,
		debounce:  DefaultDebounce,
		onReload:  onReload,
		logger:    logger,
	}, nil
}

// Start begins watching and runs the event loop until ctx is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		w.fsWatcher.Close()
		return fmt.Errorf("catalog directory does not exist: %s", dir)
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		w.fsWatcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go w.eventLoop(ctx)
	w.logger.WithContext("file_path", w.path).Info("watching catalog file")
	return nil
}

// eventLoop processes filesystem events
func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			w.fsWatcher.Close()
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.WithContext("error", err.Error()).Error("watcher error")
		}
	}
}

// handleEvent schedules a reload for writes, creates and renames of the
// catalog file. Removal alone keeps the current catalog.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	w.logger.WithContext("event_type", event.Op.String()).Debug("catalog file event")

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	w.schedule(ctx)
}

// schedule (re)arms the debounce timer.
func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.reload(ctx) })
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := os.Stat(w.path); err != nil {
		w.logger.WithContext("file_path", w.path).Debug("catalog file gone, skipping reload")
		return
	}

	n, err := w.reloader.Reload(ctx)
	if err != nil {
		w.logger.WithContext("error", err.Error()).Warn("catalog reload failed")
	} else {
		w.logger.WithContext("phones", n).Info("catalog reloaded")
	}
	if w.onReload != nil {
		w.onReload(n, err)
	}
}
