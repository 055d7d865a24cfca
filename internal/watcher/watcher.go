// Package watcher reports changes another process makes to the timer state file.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/bgtimer/internal/logfields"
)

// StateWatcher monitors a single file and emits a debounced notification
// whenever it is written, created or renamed into place.
type StateWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	clock    clockwork.Clock
	debounce time.Duration
	logger   *slog.Logger

	changes  chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	started  bool
	stopped  bool
}

// Option configures a StateWatcher.
type Option func(*StateWatcher)

// WithClock sets the clock used for debouncing.
func WithClock(c clockwork.Clock) Option { return func(w *StateWatcher) { w.clock = c } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(w *StateWatcher) { w.logger = l } }

// New creates a watcher for path. Call Start to begin watching.
func New(path string, debounce time.Duration, opts ...Option) (*StateWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Resolve absolute path for consistent watching
	absPath, err := filepath.Abs(path)
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to resolve state path: %w", err)
	}

	w := &StateWatcher{
		path:     absPath,
		watcher:  fsw,
		clock:    clockwork.NewRealClock(),
		debounce: debounce,
		logger:   slog.Default(),
		changes:  make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Changes delivers one value per debounced burst of changes. Notifications
// are dropped while a previous one is still unread.
func (w *StateWatcher) Changes() <-chan struct{} {
	return w.changes
}

// Start watches the file's directory, which survives atomic renames of the file.
func (w *StateWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return errors.New("watcher already started")
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch state directory %s: %w", dir, err)
	}
	w.started = true

	w.logger.Debug("watching state file", logfields.Path(w.path))
	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *StateWatcher) Close() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.stopChan)
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *StateWatcher) loop(ctx context.Context) {
	defer w.wg.Done()

	target := filepath.Base(w.path)
	var timer clockwork.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				if event.Has(fsnotify.Remove) {
					w.logger.Warn("state file removed", logfields.Path(event.Name))
				}
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = w.clock.NewTimer(w.debounce)
			fire = timer.Chan()
		case <-fire:
			fire = nil
			w.logger.Debug("state file changed", logfields.Path(w.path))
			select {
			case w.changes <- struct{}{}:
			default:
				// Notification already pending
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("state watcher error", logfields.Error(err))
		}
	}
}
