// Package watcher reports document changes on disk using fsnotify.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/logger"
)

var (
	// ErrClosed is returned by Watch after Close.
	ErrClosed = errors.New("watcher closed")

	// ErrAlreadyWatching is returned by a second call to Watch.
	ErrAlreadyWatching = errors.New("watcher already started")
)

// Ensure Watcher implements the interface.
var _ driven.FileWatcher = (*Watcher)(nil)

// Watcher watches files and directory trees for changes to supported documents.
// Directories are watched recursively; hidden files and directories are ignored.
type Watcher struct {
	roots     []string
	supported func(path string) bool

	mu      sync.Mutex
	closed  bool
	started bool
	fsw     *fsnotify.Watcher
	dirs    []string        // directory roots, absolute
	files   map[string]bool // file roots, absolute
}

// New creates a watcher over roots. supported filters files by path; nil accepts every file.
func New(roots []string, supported func(path string) bool) *Watcher {
	if supported == nil {
		supported = func(string) bool { return true }
	}
	return &Watcher{
		roots:     roots,
		supported: supported,
		files:     make(map[string]bool),
	}
}

// Watch starts watching every root.
func (w *Watcher) Watch(ctx context.Context) (<-chan domain.FileChange, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if w.started {
		return nil, ErrAlreadyWatching
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	for _, root := range w.roots {
		if err := w.addRoot(fsw, root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	w.fsw = fsw
	w.started = true

	out := make(chan domain.FileChange)
	go w.run(ctx, fsw, out)
	return out, nil
}

// addRoot registers root, walking directories so nested folders are watched too.
func (w *Watcher) addRoot(fsw *fsnotify.Watcher, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}

	if !info.IsDir() {
		w.files[abs] = true
		if err := fsw.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watch %s: %w", abs, err)
		}
		return nil
	}

	w.dirs = append(w.dirs, abs)
	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != abs && isHidden(path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, out chan<- domain.FileChange) {
	defer close(out)
	defer func() { _ = fsw.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			change := w.handleFsEvent(ev)
			if change == nil {
				continue
			}
			logger.Debug("Watch: %s %s", change.Type, change.Path)
			select {
			case out <- *change:
			case <-ctx.Done():
				return
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch: %v", err)
		}
	}
}

// handleFsEvent maps a raw event to a document change, or nil when it is
// not relevant. New directories under a watched tree are added to the watch.
func (w *Watcher) handleFsEvent(ev fsnotify.Event) *domain.FileChange {
	path := filepath.Clean(ev.Name)
	if isHidden(path) || !w.inScope(path) {
		return nil
	}

	switch {
	case ev.Has(fsnotify.Create):
		info, err := os.Stat(path)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			w.watchDir(path)
			return nil
		}
		if !w.supported(path) {
			return nil
		}
		return &domain.FileChange{Path: path, Type: domain.ChangeCreated}

	case ev.Has(fsnotify.Write):
		if !w.supported(path) {
			return nil
		}
		return &domain.FileChange{Path: path, Type: domain.ChangeUpdated}

	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		// The file is gone, so only its name can be checked.
		if !w.supported(path) {
			return nil
		}
		return &domain.FileChange{Path: path, Type: domain.ChangeDeleted}
	}

	return nil
}

// inScope reports whether path is a file root or lies under a directory root.
func (w *Watcher) inScope(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.files[path] {
		return true
	}
	for _, dir := range w.dirs {
		if rel, err := filepath.Rel(dir, path); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) watchDir(path string) {
	w.mu.Lock()
	fsw := w.fsw
	w.mu.Unlock()
	if fsw == nil {
		return
	}
	if err := fsw.Add(path); err != nil {
		logger.Warn("watch %s: %v", path, err)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.fsw != nil {
		err := w.fsw.Close()
		w.fsw = nil
		return err
	}
	return nil
}

// isHidden reports whether the final path element is a dot file or directory.
func isHidden(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
