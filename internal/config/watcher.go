package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDebounce coalesces the burst of events an editor save makes.
const DefaultReloadDebounce = 500 * time.Millisecond

// Watcher reloads a config file after it changes on disk and passes the
// fresh value to every registered handler. The parent directory is
// watched, so saves that replace the file by rename are seen too.
type Watcher[T any] struct {
	path     string
	debounce time.Duration
	load     func(path string) (T, error)
	logger   *slog.Logger

	mu       sync.Mutex
	handlers []func(T)
}

// NewWatcher creates a watcher for path. load runs on every change.
func NewWatcher[T any](path string, load func(path string) (T, error), debounce time.Duration, logger *slog.Logger) *Watcher[T] {
	return &Watcher[T]{
		path:     filepath.Clean(path),
		debounce: debounce,
		load:     load,
		logger:   logger,
	}
}

// OnReload registers a handler. Handlers run on the watcher goroutine,
// one reload at a time.
func (w *Watcher[T]) OnReload(handler func(T)) {
	w.mu.Lock()
	w.handlers = append(w.handlers, handler)
	w.mu.Unlock()
}

// Start begins watching. The watch is in place when Start returns; it is
// torn down when ctx is done.
func (w *Watcher[T]) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return fmt.Errorf("config watcher: watch %s: %w", dir, err)
	}

	w.logger.Info("Config watcher started", "path", w.path, "debounce", w.debounce)
	go w.watch(ctx, fw)
	return nil
}

func (w *Watcher[T]) watch(ctx context.Context, fw *fsnotify.Watcher) {
	defer fw.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Config watcher stopped")
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Debug("Config file change detected", "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Config watcher error", "error", err)
		}
	}
}

func (w *Watcher[T]) reload() {
	value, err := w.load(w.path)
	if err != nil {
		w.logger.Warn("Failed to reload config, keeping current settings", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	handlers := append([]func(T)(nil), w.handlers...)
	w.mu.Unlock()

	w.logger.Info("Config file changed, applying", "path", w.path)
	for _, h := range handlers {
		h(value)
	}
}
