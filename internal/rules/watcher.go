package rules

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits after the last write
// event before reparsing. Editors that save through a temp file emit
// several events per save; the debounce folds them into one reload.
const DefaultDebounce = 400 * time.Millisecond

// ReloadFunc receives the result of every reparse triggered by a file
// change, on the watcher goroutine. A reparse with rejected lines
// still delivers the partial knowledge base, per the skip-and-warn
// load policy.
type ReloadFunc func(*KnowledgeBase, []ParseError)

// WatcherStats is a snapshot of watcher activity.
type WatcherStats struct {
	Events     int
	Reloads    int
	Failures   int // unreadable file; parse errors are not failures
	LastReload time.Time
}

// Watcher reparses a rule file whenever it changes on disk and hands
// the new KnowledgeBase to a callback. It watches the parent directory
// rather than the file itself so atomic saves (write temp, rename over
// target) keep the watch alive.
type Watcher struct {
	path     string
	debounce time.Duration
	reload   ReloadFunc
	logger   *zap.Logger

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	doneCh chan struct{}

	mu      sync.Mutex
	pending time.Time
	running bool
	stats   WatcherStats
}

// NewWatcher prepares a watcher for the rule file at path. A
// non-positive debounce selects DefaultDebounce; a nil logger is
// replaced with a no-op one. Call Start to begin watching.
func NewWatcher(path string, debounce time.Duration, logger *zap.Logger, reload ReloadFunc) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		reload:   reload,
		logger:   logger,
	}
}

// Start begins watching and returns once the watch is registered.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("watcher already running")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	w.fsw = fsw
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true
	go w.run()

	w.logger.Info("watching rules file",
		zap.String("path", w.path),
		zap.Duration("debounce", w.debounce))
	return nil
}

// Stop ends watching and waits for the run loop to exit. Safe to call
// on a stopped watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
	w.fsw.Close()
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-ticker.C:
			w.maybeReload()
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	w.pending = time.Now()
	w.stats.Events++
	w.mu.Unlock()

	w.logger.Debug("rules file event", zap.String("op", ev.Op.String()))
}

func (w *Watcher) maybeReload() {
	w.mu.Lock()
	due := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
	if due {
		w.pending = time.Time{}
	}
	w.mu.Unlock()
	if !due {
		return
	}

	kb, errs, err := ParseFile(w.path)

	w.mu.Lock()
	if err != nil {
		w.stats.Failures++
	} else {
		w.stats.Reloads++
		w.stats.LastReload = time.Now()
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("reload failed", zap.Error(err))
		return
	}
	w.logger.Info("rules reloaded",
		zap.Int("rules", kb.Len()),
		zap.Int("parse_errors", len(errs)))
	w.reload(kb, errs)
}
