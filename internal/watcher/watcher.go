// Package watcher turns a directory into a drop folder: files that land in it
// (or in subdirectories created under it) are handed to a callback once their
// writes settle.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultSettle = 400 * time.Millisecond

// Handler receives the path of a settled file.
type Handler func(ctx context.Context, path string)

// Watcher watches one root directory.
type Watcher struct {
	root       string
	extensions []string
	recursive  bool
	settle     time.Duration
	handle     Handler
	logger     *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending map[string]*time.Timer
	ctx     context.Context
	done    chan struct{}
	once    sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithSettle sets how long a file must go without writes before it is handled.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithRecursive also watches subdirectories, including ones created later.
func WithRecursive(on bool) Option {
	return func(w *Watcher) { w.recursive = on }
}

// New creates a watcher for root. extensions filters files (".json", "zip");
// empty accepts everything.
func New(root string, extensions []string, handle Handler, opts ...Option) *Watcher {
	w := &Watcher{
		root:       filepath.Clean(root),
		extensions: extensions,
		settle:     defaultSettle,
		handle:     handle,
		logger:     zap.NewNop(),
		pending:    make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the watched directory.
func (w *Watcher) Root() string { return w.root }

// Start creates the root if missing, registers it and runs the event loop
// until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.fsw = fsw
	w.ctx = ctx
	w.mu.Unlock()
	if err := w.addTree(w.root); err != nil {
		_ = fsw.Close()
		return err
	}
	w.logger.Info("watching drop folder", zap.String("root", w.root), zap.Strings("extensions", w.extensions), zap.Bool("recursive", w.recursive))
	go w.run(ctx, fsw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.onEvent(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) onEvent(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
			w.cancel(ev.Name)
		}
		return
	}
	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if w.recursive {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("watch subdirectory failed", zap.String("path", ev.Name), zap.Error(err))
			}
			w.walk(ev.Name, w.schedule)
		}
		return
	}
	if Match(ev.Name, w.extensions) {
		w.schedule(ev.Name)
	}
}

func (w *Watcher) addTree(dir string) error {
	w.mu.Lock()
	fsw := w.fsw
	w.mu.Unlock()
	if fsw == nil {
		return nil
	}
	if !w.recursive {
		return fsw.Add(dir)
	}
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(p)
		}
		return nil
	})
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	ctx := w.ctx
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		w.logger.Debug("file settled", zap.String("path", path))
		w.handle(ctx, path)
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

// Sync hands every matching file already under the root to the handler,
// synchronously.
func (w *Watcher) Sync(ctx context.Context) {
	w.walk(w.root, func(p string) { w.handle(ctx, p) })
}

func (w *Watcher) walk(dir string, fn func(string)) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != dir && !w.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if Match(p, w.extensions) {
			fn(p)
		}
		return nil
	})
}

// Stop releases the fsnotify watcher and drops pending files.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		w.mu.Lock()
		for p, t := range w.pending {
			t.Stop()
			delete(w.pending, p)
		}
		if w.fsw != nil {
			_ = w.fsw.Close()
			w.fsw = nil
		}
		w.mu.Unlock()
		close(w.done)
	})
}

// Match reports whether path has one of extensions, case-insensitively.
func Match(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
