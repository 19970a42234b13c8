package source

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the bursts of write events editors and
// generators produce when rewriting a file.
const DefaultDebounce = 250 * time.Millisecond

// ErrWatcherClosed is returned by Start after Close.
var ErrWatcherClosed = errors.New("watcher closed")

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce overrides the event coalescing window.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithOnError sets the callback invoked on watch errors.
func WithOnError(fn func(error)) WatchOption {
	return func(w *Watcher) { w.onError = fn }
}

// Watcher monitors a record file and invokes a callback when its
// content changes. The parent directory is watched rather than the
// file itself so atomic rename-over saves keep being seen.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func()
	onError  func(error)

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	timer   *time.Timer
	closed  bool
	started bool
}

// NewWatcher creates a watcher for the given file. onChange fires on
// the watcher's goroutine after the debounce window closes.
func NewWatcher(path string, onChange func(), opts ...WatchOption) *Watcher {
	w := &Watcher{
		path:     path,
		debounce: DefaultDebounce,
		onChange: onChange,
		onError:  func(error) {},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It returns once the underlying watch is
// registered; events are delivered asynchronously until Close.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if w.started {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return err
	}
	w.fsw = fsw
	w.started = true

	go w.loop(fsw)
	return nil
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

func (w *Watcher) loop(fsw *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.bump()
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

// bump restarts the debounce timer; the callback fires only after the
// file has been quiet for the full window.
func (w *Watcher) bump() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}
