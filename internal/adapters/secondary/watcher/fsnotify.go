package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

// TreeWatcher watches a directory tree with fsnotify. Events are coalesced
// per path and delivered once the tree has been quiet for the debounce
// period.
type TreeWatcher struct {
	debounce time.Duration
	logger   ports.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	root    string
	events  chan ports.FileChangeEvent
	pending map[string]ports.FileChangeEvent
	wg      sync.WaitGroup
	started bool
	stopped bool
	stopCh  chan struct{}
}

// NewTreeWatcher creates a new recursive watcher
func NewTreeWatcher(debounce time.Duration, logger ports.Logger) *TreeWatcher {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	return &TreeWatcher{
		debounce: debounce,
		logger:   logger,
		events:   make(chan ports.FileChangeEvent, 64),
		pending:  make(map[string]ports.FileChangeEvent),
		stopCh:   make(chan struct{}),
	}
}

// Watch starts watching root and every directory below it. The returned
// channel is closed when ctx ends or Stop is called.
func (w *TreeWatcher) Watch(ctx context.Context, root string) (<-chan ports.FileChangeEvent, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absRoot)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return nil, errors.New("watcher already started")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}

	w.fsw = fsw
	w.root = absRoot
	if _, err := w.addDirsRecursive(absRoot); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("initial scan: %w", err)
	}
	w.started = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop(ctx)
	}()

	return w.events, nil
}

// Stop stops the watcher and waits for the event loop to exit
func (w *TreeWatcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

func (w *TreeWatcher) loop(ctx context.Context) {
	defer close(w.events)
	defer func() { _ = w.fsw.Close() }()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.handle(ev) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error: %v", err)

		case <-timer.C:
			if !w.flush(ctx) {
				return
			}
		}
	}
}

// handle records ev as pending and reports whether anything was recorded
func (w *TreeWatcher) handle(ev fsnotify.Event) bool {
	changeType, ok := changeTypeOf(ev.Op)
	if !ok || shouldIgnore(ev.Name) {
		return false
	}

	now := time.Now()
	recorded := w.record(ev.Name, changeType, now)

	if changeType == ports.Created {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			// files may land before the new directory is watched
			files, err := w.addDirsRecursive(ev.Name)
			if err != nil {
				w.logger.Warn("watching %s: %v", ev.Name, err)
			}
			for _, f := range files {
				if w.record(f, ports.Created, now) {
					recorded = true
				}
			}
		}
	}

	return recorded
}

func (w *TreeWatcher) record(abs string, changeType ports.ChangeType, now time.Time) bool {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)

	if prev, ok := w.pending[rel]; ok && prev.Type == ports.Created && changeType == ports.Modified {
		changeType = ports.Created
	}
	w.pending[rel] = ports.FileChangeEvent{Path: rel, Type: changeType, Timestamp: now}
	return true
}

// flush delivers pending events in path order. It returns false when the
// watcher is shutting down.
func (w *TreeWatcher) flush(ctx context.Context) bool {
	if len(w.pending) == 0 {
		return true
	}

	batch := make([]ports.FileChangeEvent, 0, len(w.pending))
	for _, ev := range w.pending {
		batch = append(batch, ev)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	w.pending = make(map[string]ports.FileChangeEvent)

	for _, ev := range batch {
		select {
		case w.events <- ev:
		case <-ctx.Done():
			return false
		case <-w.stopCh:
			return false
		}
	}
	return true
}

// addDirsRecursive watches dir and its subdirectories and returns the
// regular files found along the way
func (w *TreeWatcher) addDirsRecursive(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path != w.root && shouldIgnore(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			files = append(files, path)
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			if path == dir {
				return err
			}
			w.logger.Warn("watch add failed for %s: %v", path, err)
		}
		return nil
	})
	return files, err
}

func changeTypeOf(op fsnotify.Op) (ports.ChangeType, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return ports.Created, true
	case op.Has(fsnotify.Remove):
		return ports.Deleted, true
	case op.Has(fsnotify.Rename):
		return ports.Renamed, true
	case op.Has(fsnotify.Write):
		return ports.Modified, true
	default:
		return 0, false
	}
}

// shouldIgnore reports hidden files and editor scratch files
func shouldIgnore(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "#") {
		return true
	}

	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") {
		return true
	}

	return base == "Thumbs.db"
}

var _ ports.FileWatcher = (*TreeWatcher)(nil)
