// Package watch re-runs an export when a scene or any of its inputs change.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// RunFunc is called once per settled burst of changes.
type RunFunc func(ctx context.Context) error

// Stats tracks watcher activity.
type Stats struct {
	Events int
	Runs   int
	Errors int
}

// Watcher watches the parent directories of a set of files, so editors that
// save by rename are still seen, and debounces events into single runs.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	files    map[string]bool
	dirs     map[string]bool
	debounce time.Duration
	run      RunFunc
	log      *zap.Logger

	pending   bool
	lastEvent time.Time
	stats     Stats

	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func New(run RunFunc, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		fsw:      fsw,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		debounce: debounce,
		run:      run,
		log:      log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch adds files to the watched set. It may be called again from RunFunc
// when the scene starts referencing new inputs.
func (w *Watcher) Watch(files ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		w.files[abs] = true

		dir := filepath.Dir(abs)
		if w.dirs[dir] {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = true
		w.log.Debug("watching directory", zap.String("dir", dir))
	}
	return nil
}

// Start begins watching. It does not block.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.loop(ctx)
}

// Stop stops the loop and releases the fsnotify handle.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.fsw.Close(); err != nil {
		w.log.Warn("closing watcher", zap.Error(err))
	}
}

func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)

	tick := time.NewTicker(w.debounce / 5)
	defer tick.Stop()

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
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case now := <-tick.C:
			if w.due(now) {
				w.fire(ctx)
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.files[abs] {
		return
	}
	w.stats.Events++
	w.pending = true
	w.lastEvent = time.Now()
	w.log.Debug("change", zap.String("file", abs), zap.String("op", ev.Op.String()))
}

func (w *Watcher) due(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.pending || now.Sub(w.lastEvent) < w.debounce {
		return false
	}
	w.pending = false
	return true
}

func (w *Watcher) fire(ctx context.Context) {
	err := w.run(ctx)

	w.mu.Lock()
	w.stats.Runs++
	if err != nil {
		w.stats.Errors++
	}
	w.mu.Unlock()

	if err != nil {
		w.log.Warn("re-export failed", zap.Error(err))
	}
}
