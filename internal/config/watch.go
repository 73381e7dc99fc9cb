package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceDelay collapses bursts of editor writes into one reload.
const DebounceDelay = 150 * time.Millisecond

// Watcher reloads the config file when it, or any extra watched directory,
// changes.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce *time.Timer
	mu       sync.Mutex
	onChange func(Config, error)
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher watches the directory holding path plus any extra directories
// that exist. Extra directories trigger a reload on any write, the config
// directory only on writes to the config file itself.
func NewWatcher(path string, extra []string, onChange func(Config, error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     filepath.Clean(path),
		watcher:  fsw,
		onChange: onChange,
		done:     make(chan struct{}),
	}

	dirs := append([]string{filepath.Dir(w.path)}, extra...)
	for _, d := range dirs {
		// Watch directory if exists, ignore errors for missing dirs
		if _, err := os.Stat(d); err == nil {
			_ = fsw.Add(d)
		}
	}

	go w.run()

	return w, nil
}

func (w *Watcher) run() {
	configDir := filepath.Dir(w.path)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Clean(event.Name)
			if filepath.Dir(name) == configDir && name != w.path {
				continue
			}
			w.scheduleReload()

		case <-w.watcher.Errors:
			// Ignore errors, keep watching

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}

	w.debounce = time.AfterFunc(DebounceDelay, func() {
		cfg, err := LoadFile(w.path)
		if w.onChange != nil {
			w.onChange(cfg, err)
		}
	})
}

// Stop closes the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		if w.debounce != nil {
			w.debounce.Stop()
		}
		w.mu.Unlock()
	})
}
