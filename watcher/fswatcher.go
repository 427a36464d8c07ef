package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"
)

// Sink receives dependency events.
type Sink interface {
	Handle(Event) bool
	ScanComplete()
}

// FSWatcher reports changes to files matching a set of glob patterns.
type FSWatcher struct {
	patterns []string
	sink     Sink
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	watched  map[string]bool
}

// NewFSWatcher creates a watcher for patterns such as src/layouts/*.hbs or
// an exact file path. Only the final path element may contain wildcards.
func NewFSWatcher(patterns []string, sink Sink, logger *slog.Logger) (*FSWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cleaned := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = filepath.Clean(pattern)
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		cleaned = append(cleaned, pattern)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	return &FSWatcher{
		patterns: cleaned,
		sink:     sink,
		logger:   logger,
		watcher:  w,
		watched:  make(map[string]bool),
	}, nil
}

// Run watches until ctx is done. It reports every existing match as an add,
// signals ScanComplete and then forwards live changes.
func (w *FSWatcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	w.ensureWatches()
	for _, path := range w.scan() {
		w.sink.Handle(Event{Op: OpAdd, Path: path})
	}
	w.sink.ScanComplete()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleFsnotifyEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher", "error", err)
		}
	}
}

func (w *FSWatcher) handleFsnotifyEvent(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.ensureWatches()
			return
		}
	}
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		if dir := filepath.Clean(ev.Name); w.watched[dir] {
			delete(w.watched, dir)
			_ = w.watcher.Remove(dir)
			w.logger.Debug("watched dir gone", "dir", dir)
			w.ensureWatches()
			return
		}
	}
	if !w.matches(ev.Name) {
		return
	}

	var op Op
	switch {
	case ev.Has(fsnotify.Create):
		op = OpAdd
	case ev.Has(fsnotify.Write):
		op = OpChange
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		op = OpUnlink
	default:
		return
	}
	w.sink.Handle(Event{Op: op, Path: ev.Name})
}

// ensureWatches watches the directory of every pattern, or its closest
// existing ancestor so the directory is noticed once created.
func (w *FSWatcher) ensureWatches() {
	for _, pattern := range w.patterns {
		dir := filepath.Dir(pattern)
		for {
			info, err := os.Stat(dir)
			if err == nil && info.IsDir() {
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
		if w.watched[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				w.logger.Warn("watch", "dir", dir, "error", err)
			}
			continue
		}
		w.watched[dir] = true
		w.logger.Debug("watching", "dir", dir)
	}
}

func (w *FSWatcher) scan() []string {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range w.patterns {
		matches, _ := filepath.Glob(pattern)
		for _, path := range matches {
			if info, err := os.Stat(path); err != nil || info.IsDir() || seen[path] {
				continue
			}
			seen[path] = true
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

func (w *FSWatcher) matches(path string) bool {
	path = filepath.Clean(path)
	for _, pattern := range w.patterns {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
	}
	return false
}
