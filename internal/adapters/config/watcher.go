package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"github.com/fsnotify/fsnotify"
	"go.trai.ch/zerr"
)

// DefaultDebounceWindow is the quiet period after the last file event before the config is reloaded.
const DefaultDebounceWindow = 100 * time.Millisecond

// ChangeFunc receives the configuration before and after a change on disk.
type ChangeFunc func(prev, next *domain.Config)

// Watcher reloads the configuration when its file changes and reports the change.
// It watches the parent directory so editors that replace the file are seen.
type Watcher struct {
	store    ports.ConfigStore
	logger   ports.Logger
	onChange ChangeFunc
	window   time.Duration

	mu        sync.Mutex
	current   *domain.Config
	fsWatcher *fsnotify.Watcher
	debounce  *debouncer
}

// NewWatcher creates a Watcher over store. onChange runs after every successful reload.
func NewWatcher(store ports.ConfigStore, logger ports.Logger, onChange ChangeFunc) *Watcher {
	return &Watcher{
		store:    store,
		logger:   logger,
		onChange: onChange,
		window:   DefaultDebounceWindow,
	}
}

// SetWindow changes the debounce window. It must be called before Start.
func (w *Watcher) SetWindow(window time.Duration) {
	w.window = window
}

// Start loads the current configuration and begins watching until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	cfg, err := w.store.Load()
	if err != nil {
		return err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return zerr.Wrap(err, "failed to create config watcher")
	}
	dir := filepath.Dir(w.store.Path())
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return zerr.With(zerr.Wrap(err, "failed to watch config directory"), "dir", dir)
	}

	w.mu.Lock()
	w.current = cfg
	w.fsWatcher = fsWatcher
	w.debounce = newDebouncer(w.window, w.reload)
	w.mu.Unlock()

	go w.processEvents(ctx, fsWatcher)
	return nil
}

// Stop stops watching and releases the underlying watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	if w.fsWatcher == nil {
		return nil
	}
	err := w.fsWatcher.Close()
	w.fsWatcher = nil
	return err
}

func (w *Watcher) processEvents(ctx context.Context, fsWatcher *fsnotify.Watcher) {
	name := filepath.Base(w.store.Path())
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			d := w.debounce
			w.mu.Unlock()
			d.Trigger()
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	next, err := w.store.Load()
	if err != nil {
		w.logger.Error(zerr.With(err, "path", w.store.Path()))
		return
	}

	w.mu.Lock()
	prev := w.current
	w.current = next
	w.mu.Unlock()

	w.logger.Debug("configuration reloaded", "path", w.store.Path())
	if w.onChange != nil {
		w.onChange(prev, next)
	}
}
