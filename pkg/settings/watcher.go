package settings

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/racing-lottery-go/log"
)

// Watcher keeps the settings of a file current.
// Changes are picked up by the next race; a running race keeps its settings.
type Watcher struct {
	path     string
	log      *log.Logger
	mu       sync.RWMutex
	current  Settings
	onChange func(Settings)
	debounce time.Duration
}

type WatcherOption func(*Watcher)

func WithOnChange(cb func(Settings)) WatcherOption {
	return func(w *Watcher) {
		w.onChange = cb
	}
}

// WithDebounce sets the quiet time after the last change before the file is read
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

func NewWatcher(path string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		path:     path,
		log:      log.Default().Named("settings.watcher"),
		debounce: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.current = Load(path)
	return w
}

func (w *Watcher) Current() Settings {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Run watches the settings file until ctx is done.
// It returns immediately if there is no file to watch.
//
//nolint:cyclop // by design
func (w *Watcher) Run(ctx context.Context) error {
	if w.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	// editors often replace the file, so the directory is watched
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	target := filepath.Clean(w.path)
	var pending <-chan time.Time
	for {
		select {
		case <-pending:
			pending = nil
			w.reload()
		case <-ctx.Done():
			w.log.Debug("context done, stopping settings watcher")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			w.log.Debug("change detected",
				log.String("file", event.Name), log.String("op", event.Op.String()))
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				pending = time.After(w.debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher error", log.ErrorField(err))
		}
	}
}

// reload keeps the current settings if the file cannot be used
func (w *Watcher) reload() {
	s, err := LoadFile(w.path)
	if err != nil {
		w.log.Warn("could not reload settings, keeping current ones",
			log.String("file", w.path), log.ErrorField(err))
		return
	}
	w.mu.Lock()
	w.current = s
	w.mu.Unlock()
	w.log.Info("settings reloaded", log.String("file", w.path))
	if w.onChange != nil {
		w.onChange(s)
	}
}
