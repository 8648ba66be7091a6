package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDebounce coalesces the write bursts editors produce on save.
const DefaultReloadDebounce = 200 * time.Millisecond

// Watcher reloads the config file whenever it changes on disk and hands the
// validated result to onChange. Parse errors are logged and skipped so a
// half-written file never replaces a good config.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(Config)

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	pending *time.Timer
}

// NewWatcher creates a watcher for path. debounce <= 0 uses
// DefaultReloadDebounce.
func NewWatcher(path string, debounce time.Duration, onChange func(Config)) *Watcher {
	if debounce <= 0 {
		debounce = DefaultReloadDebounce
	}
	return &Watcher{path: path, debounce: debounce, onChange: onChange}
}

// Start begins watching the directory containing the config file. Watching
// the directory rather than the file survives atomic rename-based saves.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != nil {
		return errors.New("config watcher already running")
	}
	if w.onChange == nil {
		return errors.New("config watcher: onChange is required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("config watcher: watch %s: %w", dir, err)
	}
	w.fsw = fsw
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.loop(fsw, w.stopCh, w.doneCh)
	slog.Debug("[DEBUG-CONFIG] config watcher started", "path", w.path)
	return nil
}

// Stop ends the watch loop and cancels any pending reload.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	fsw := w.fsw
	stopCh := w.stopCh
	doneCh := w.doneCh
	w.fsw = nil
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
	w.mu.Unlock()
	if fsw == nil {
		return nil
	}
	close(stopCh)
	err := fsw.Close()
	<-doneCh
	return err
}

func (w *Watcher) loop(fsw *fsnotify.Watcher, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)
	target := filepath.Clean(w.path)
	for {
		select {
		case <-stopCh:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.schedule(stopCh)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("[WARN-CONFIG] config watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule(stopCh <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.debounce, func() {
		select {
		case <-stopCh:
			return
		default:
		}
		w.reload()
	})
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		slog.Warn("[WARN-CONFIG] config reload skipped", "path", w.path, "error", err)
		return
	}
	slog.Info("[config] reloaded", "path", w.path)
	w.onChange(cfg)
}
