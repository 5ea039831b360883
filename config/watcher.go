package config

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ReloadCallback is invoked with the newly parsed session-profile file
// after a successful reload.
type ReloadCallback func(*File) error

// ErrWatcherClosed is returned by an operation on an already-closed Watcher.
var ErrWatcherClosed = errors.New("config: watcher already closed")

// Watcher monitors a session-profile file for changes, debouncing rapid
// edits, and reloads it via Load on each settled change.
type Watcher struct {
	ctx           context.Context
	fsWatcher     *fsnotify.Watcher
	cancel        context.CancelFunc
	path          string
	callbacks     []ReloadCallback
	debounceDelay time.Duration
	logger        zerolog.Logger
	mu            sync.RWMutex
	closed        bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay overrides the default 100ms debounce window.
func WithDebounceDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounceDelay = d }
}

// WithWatcherLogger attaches a structured logger for watcher diagnostics.
func WithWatcherLogger(logger zerolog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = logger }
}

// NewWatcher watches the parent directory of path (to catch atomic
// temp-file-then-rename writes from editors and config-management tools).
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:          absPath,
		fsWatcher:     fsWatcher,
		debounceDelay: 100 * time.Millisecond,
		logger:        zerolog.Nop(),
		ctx:           ctx,
		cancel:        cancel,
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		fsWatcher.Close()
		cancel()
		return nil, err
	}

	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// OnReload registers a callback invoked in registration order on each
// successful reload.
func (w *Watcher) OnReload(cb ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Watch blocks processing file events until ctx is canceled.
func (w *Watcher) Watch(ctx context.Context) error {
	var (
		timer      *time.Timer
		timerMu    sync.Mutex
		targetFile = filepath.Base(w.path)
	)

	for {
		select {
		case <-ctx.Done():
			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timerMu.Unlock()
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != targetFile {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.debounceReload(&timerMu, &timer)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("config watcher error")
		}
	}
}

func (w *Watcher) debounceReload(timerMu *sync.Mutex, timer **time.Timer) {
	timerMu.Lock()
	defer timerMu.Unlock()

	if *timer != nil {
		(*timer).Stop()
	}
	*timer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case <-w.ctx.Done():
			return
		default:
		}
		w.triggerReload()
	})
}

func (w *Watcher) triggerReload() {
	f, err := Load(w.path)
	if err != nil {
		w.logger.Error().Err(err).Str("path", w.path).Msg("failed to reload session profiles")
		return
	}

	w.logger.Info().Str("path", w.path).Msg("session profiles reloaded")

	w.mu.RLock()
	callbacks := make([]ReloadCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		if err := cb(f); err != nil {
			w.logger.Error().Err(err).Msg("session profile reload callback error")
		}
	}
}

// Close stops watching and releases resources. Returns ErrWatcherClosed if
// already closed.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	w.closed = true
	w.cancel()
	return w.fsWatcher.Close()
}
