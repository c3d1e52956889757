// Package watcher reloads file-backed stats sources when the file changes on
// disk. It uses fsnotify on the containing directory and falls back to stat
// polling when notifications are unavailable or TB_FORCE_POLL is set.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/teamboard/pkg/debug"
)

// DefaultPollInterval is the default polling interval for fallback mode.
const DefaultPollInterval = 2 * time.Second

// Common errors.
var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// sqliteCompanions are the files SQLite writes next to a database; a commit
// in WAL mode may touch only these.
var sqliteCompanions = []string{"-wal", "-journal"}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDuration = d
	}
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.pollInterval = d
	}
}

// WithOnChange sets the callback invoked when the file changes.
func WithOnChange(fn func()) WatcherOption {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback invoked on errors.
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) WatcherOption {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

// Watcher monitors a stats file (and, for SQLite databases, its WAL and
// journal files) for changes.
type Watcher struct {
	path             string
	targets          map[string]bool // base names that count as a change
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func()
	onError          func(error)
	forcePoll        bool

	fsWatcher   *fsnotify.Watcher
	debouncer   *Debouncer
	useFallback bool
	fsType      FilesystemType
	lastSig     signature

	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
	changeCh chan struct{}
}

// signature summarizes the watched files for polling.
type signature struct {
	mtime  time.Time
	size   int64
	exists bool
}

// NewWatcher creates a new file watcher for the given path.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(absPath)
	targets := map[string]bool{base: true}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".db", ".sqlite", ".sqlite3":
		for _, suffix := range sqliteCompanions {
			targets[base+suffix] = true
		}
	}

	w := &Watcher{
		path:             absPath,
		targets:          targets,
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func() {},
		onError:          func(error) {},
		changeCh:         make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(w)
	}
	if w.pollInterval <= 0 {
		w.pollInterval = DefaultPollInterval
	}

	w.debouncer = NewDebouncer(w.debounceDuration)

	return w, nil
}

// Start begins watching the file for changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	sig, err := w.stat()
	if err != nil {
		return err
	}
	w.lastSig = sig

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.useFallback = w.forcePoll || envBool("TB_FORCE_POLL")
	w.fsType = DetectFilesystemType(w.path)
	if isRemoteFilesystem(w.fsType) {
		// Network and FUSE mounts rarely deliver inotify events for remote writes.
		w.useFallback = true
	}

	if !w.useFallback {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			w.useFallback = true
		} else if err := fsw.Add(filepath.Dir(w.path)); err != nil {
			// Watch the directory, not the file, so atomic renames are seen.
			fsw.Close()
			w.useFallback = true
		} else {
			w.fsWatcher = fsw
			go w.watchFsnotify(fsw)
		}
	}

	if w.useFallback {
		debug.Log("watcher: polling %s every %v (fs=%s)", w.path, w.pollInterval, w.fsType)
		go w.watchPolling()
	} else {
		debug.Log("watcher: fsnotify on %s", filepath.Dir(w.path))
	}

	w.started = true
	return nil
}

// Stop stops watching the file. The Changed channel stays open so a
// goroutine blocked on it is not woken by the close.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}

	if w.cancel != nil {
		w.cancel()
	}

	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}

	w.debouncer.Cancel()
	w.started = false
}

// IsPolling returns true if the watcher is using polling mode.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.useFallback
}

// FilesystemType returns the best-effort filesystem classification for the
// watched path. Unknown until Start.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.fsType == "" {
		return FSTypeUnknown
	}
	return w.fsType
}

// IsStarted returns true if the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed returns a channel that receives when the file changes.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changeCh
}

// Path returns the watched file path.
func (w *Watcher) Path() string {
	return w.path
}

// PollInterval returns the polling interval used when polling mode is active.
func (w *Watcher) PollInterval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pollInterval
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

// stat combines the state of every target. A missing main file yields
// exists=false; missing companions are ignored.
func (w *Watcher) stat() (signature, error) {
	var sig signature
	dir := filepath.Dir(w.path)
	for name := range w.targets {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			if os.IsPermission(err) {
				return sig, ErrPermission
			}
			continue
		}
		if name == filepath.Base(w.path) {
			sig.exists = true
		}
		if info.ModTime().After(sig.mtime) {
			sig.mtime = info.ModTime()
		}
		sig.size += info.Size()
	}
	return sig, nil
}

// watchFsnotify monitors using fsnotify events.
func (w *Watcher) watchFsnotify(fsw *fsnotify.Watcher) {
	main := filepath.Base(w.path)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}

			name := filepath.Base(event.Name)
			if !w.targets[name] {
				continue
			}

			switch {
			case event.Op&fsnotify.Remove != 0 && name == main:
				w.onError(ErrFileRemoved)

			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.debouncer.Trigger(w.notifyChange)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

// watchPolling monitors using periodic stat checks.
func (w *Watcher) watchPolling() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			sig, err := w.stat()
			if err != nil {
				w.onError(err)
				continue
			}

			w.mu.Lock()
			prev := w.lastSig
			w.lastSig = sig
			w.mu.Unlock()

			switch {
			case prev.exists && !sig.exists:
				w.onError(ErrFileRemoved)
			case sig.exists && (sig.mtime.After(prev.mtime) || sig.size != prev.size || !prev.exists):
				w.debouncer.Trigger(w.notifyChange)
			}
		}
	}
}

// notifyChange invokes the onChange callback and signals the change channel.
func (w *Watcher) notifyChange() {
	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()

	// Stop() may have run while the debounce timer was pending.
	if !started {
		return
	}

	w.onChange()

	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}
