package config

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/genflow/catalog"
)

// CatalogReloadFunc receives the freshly parsed catalog after the watched
// file changes.
type CatalogReloadFunc func(cat *catalog.Catalog)

// Watcher reloads the model catalog when its YAML file changes on disk.
// Detection is mtime polling with a debounce, so a burst of writes from
// an editor produces a single reload. A file that fails to parse keeps
// the previously loaded catalog in place.
type Watcher struct {
	mu sync.RWMutex

	path          string
	pollInterval  time.Duration
	debounceDelay time.Duration
	logger        *zap.Logger

	running   bool
	stopChan  chan struct{}
	callbacks []CatalogReloadFunc
	lastMod   time.Time
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithPollInterval sets the spacing between mtime checks.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.pollInterval = d
	}
}

// WithDebounceDelay sets how long the watcher waits after the last
// detected change before reloading.
func WithDebounceDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDelay = d
	}
}

// WithWatcherLogger sets the logger.
func WithWatcherLogger(logger *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher creates a catalog watcher for path. A missing file is not an
// error; the watcher fires once the file appears.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("catalog watcher needs a file path")
	}

	w := &Watcher{
		path:          path,
		pollInterval:  time.Second,
		debounceDelay: 100 * time.Millisecond,
		stopChan:      make(chan struct{}),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if info, err := os.Stat(path); err == nil {
		w.lastMod = info.ModTime()
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat catalog file %s: %w", path, err)
	} else {
		w.logger.Warn("catalog file does not exist, watching for creation",
			zap.String("path", path))
	}

	return w, nil
}

// OnReload registers a callback invoked with every successfully parsed
// catalog.
func (w *Watcher) OnReload(cb CatalogReloadFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start begins watching. It returns an error when already running.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	go w.pollLoop(ctx)

	w.logger.Info("catalog watcher started",
		zap.String("path", w.path),
		zap.Duration("poll_interval", w.pollInterval),
	)
	return nil
}

// Stop stops the watcher. Safe to call when not running.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	close(w.stopChan)
	w.running = false
	w.logger.Info("catalog watcher stopped")
}

// IsRunning reports whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Watcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			if !w.changed() {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(w.debounceDelay, w.reload)
		}
	}
}

// changed checks the file's mtime and records it when newer.
func (w *Watcher) changed() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lastMod.IsZero() || info.ModTime().After(w.lastMod) {
		w.lastMod = info.ModTime()
		return true
	}
	return false
}

// reload parses the file and fans the new catalog out to the callbacks.
func (w *Watcher) reload() {
	cat, err := catalog.LoadFile(w.path)
	if err != nil {
		// keep serving the previous catalog
		w.logger.Warn("catalog reload failed, keeping previous catalog",
			zap.String("path", w.path),
			zap.Error(err),
		)
		return
	}

	w.mu.RLock()
	callbacks := make([]CatalogReloadFunc, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	w.logger.Info("catalog reloaded",
		zap.String("path", w.path),
		zap.Int("models", cat.Len()),
	)
	for _, cb := range callbacks {
		cb(cat)
	}
}
