// Package watch re-runs checks when model files change on disk.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long to wait for more changes before reporting.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc receives the model paths that changed since the last call,
// in the order they were first given to New.
type ChangeFunc func(ctx context.Context, changed []string)

// ModelWatcher watches a fixed set of model files. Directories are watched
// rather than files so editors that save by rename are still seen.
type ModelWatcher struct {
	debounce time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher

	// tracked maps absolute path to the caller's spelling of it
	tracked map[string]string
	order   map[string]int

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashes map[string]string
}

// New creates a watcher for paths. A debounce of zero uses DefaultDebounce.
func New(paths []string, debounce time.Duration, logger *slog.Logger) (*ModelWatcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no model files to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &ModelWatcher{
		debounce: debounce,
		logger:   logger,
		watcher:  fsw,
		tracked:  make(map[string]string, len(paths)),
		order:    make(map[string]int, len(paths)),
		pending:  make(map[string]fsnotify.Op),
		hashes:   make(map[string]string, len(paths)),
	}

	dirs := make(map[string]bool)
	for i, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close() //nolint:errcheck
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		w.tracked[abs] = p
		w.order[p] = i
		if h, err := hashFile(abs); err == nil {
			w.hashes[abs] = h
		}
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close() //nolint:errcheck
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
		logger.Debug("Watching directory", "path", dir)
	}
	return w, nil
}

// Run blocks until ctx is done, calling onChange after each quiet period
// that followed at least one content change.
func (w *ModelWatcher) Run(ctx context.Context, onChange ChangeFunc) error {
	defer w.watcher.Close() //nolint:errcheck

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	w.logger.Info("Watching for model changes", "files", len(w.tracked), "debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			if changed := w.flushPending(); len(changed) > 0 {
				onChange(ctx, changed)
			}
		}
	}
}

// handleFSEvent records events for tracked files and ignores the rest.
func (w *ModelWatcher) handleFSEvent(event fsnotify.Event) {
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if _, ok := w.tracked[abs]; !ok {
		return
	}

	w.pendingMu.Lock()
	w.pending[abs] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Model change detected", "path", abs, "op", event.Op.String())
}

// flushPending returns tracked files whose content changed. Removed files
// are dropped until they reappear.
func (w *ModelWatcher) flushPending() []string {
	w.pendingMu.Lock()
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	var changed []string
	for abs := range toProcess {
		h, err := hashFile(abs)
		if err != nil {
			if os.IsNotExist(err) {
				delete(w.hashes, abs)
				w.logger.Info("Model removed", "path", w.tracked[abs])
			} else {
				w.logger.Warn("Failed to read model", "path", w.tracked[abs], "error", err)
			}
			continue
		}
		if old, ok := w.hashes[abs]; ok && old == h {
			continue
		}
		w.hashes[abs] = h
		changed = append(changed, w.tracked[abs])
	}

	sort.Slice(changed, func(i, j int) bool { return w.order[changed[i]] < w.order[changed[j]] })
	return changed
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
