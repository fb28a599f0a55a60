// Package watcher watches the uploads directory and ingests papers dropped
// into per-project subdirectories.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// IngestFunc is called with the project ID (the subdirectory name) and the
// file path.
type IngestFunc func(projectID, path string)

// Watcher watches one uploads root. Each immediate subdirectory is a project
// ID; files appearing inside are handed to the ingest callback after a
// debounce, so partially written files settle first.
type Watcher struct {
	root       string
	extensions []string
	onIngest   IngestFunc
	debounce   time.Duration
	logger     *zap.Logger

	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	timers   map[string]*time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the settle delay before a file is ingested.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a watcher over root. extensions filters which files are
// ingested (empty = all).
func New(root string, extensions []string, onIngest IngestFunc, opts ...Option) *Watcher {
	w := &Watcher{
		root:       filepath.Clean(root),
		extensions: extensions,
		onIngest:   onIngest,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		timers:     make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. The root and existing project subdirectories are
// registered; the watcher runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	if err := os.MkdirAll(w.root, 0755); err != nil {
		w.mu.Unlock()
		return err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := fsw.Add(w.root); err != nil {
		_ = fsw.Close()
		w.mu.Unlock()
		return err
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		_ = fsw.Close()
		w.mu.Unlock()
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if err := fsw.Add(filepath.Join(w.root, entry.Name())); err != nil {
				w.logger.Warn("watch project dir failed",
					zap.String("dir", entry.Name()),
					zap.Error(err))
			}
		}
	}
	w.watcher = fsw
	w.started = true
	w.mu.Unlock()

	w.logger.Info("uploads watcher started", zap.String("root", w.root))
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		if ev.Op&fsnotify.Remove != 0 {
			w.cancelTimer(ev.Name)
		}
		return
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		// A new project directory appeared directly under the root.
		if filepath.Dir(ev.Name) == w.root {
			w.mu.Lock()
			if w.watcher != nil {
				if err := w.watcher.Add(ev.Name); err != nil {
					w.logger.Warn("watch new project dir failed", zap.Error(err))
				}
			}
			w.mu.Unlock()
			w.syncDir(ev.Name)
		}
		return
	}
	if w.projectIDFor(ev.Name) == "" || !w.matchExtension(ev.Name) {
		return
	}
	w.scheduleIngest(ev.Name)
}

// projectIDFor returns the project subdirectory a file belongs to, or ""
// for files outside project subdirectories (including the root itself).
func (w *Watcher) projectIDFor(path string) string {
	rel, err := filepath.Rel(w.root, filepath.Clean(path))
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) != 2 {
		return ""
	}
	return parts[0]
}

func (w *Watcher) matchExtension(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) scheduleIngest(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		projectID := w.projectIDFor(path)
		w.logger.Debug("ingesting uploaded file",
			zap.String("project_id", projectID),
			zap.String("path", path))
		w.onIngest(projectID, path)
	})
}

func (w *Watcher) cancelTimer(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) syncDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if w.matchExtension(path) {
			w.scheduleIngest(path)
		}
	}
}

// SyncExisting schedules ingestion for files already present in project
// subdirectories. Call after Start to pick up files dropped while the
// watcher was down.
func (w *Watcher) SyncExisting() {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			w.syncDir(filepath.Join(w.root, entry.Name()))
		}
	}
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
