// Package watcher observes the checkfile root and signals debounced
// change batches.
package watcher

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Config holds watcher configuration
type Config struct {
	// Debounce is how long to wait for further events before emitting
	// one change batch; a single editor save typically produces
	// several events. Default: 300ms.
	Debounce time.Duration
}

// DefaultConfig returns default watcher configuration
func DefaultConfig() *Config {
	return &Config{
		Debounce: 300 * time.Millisecond,
	}
}

// Watcher watches a directory tree for checkfile changes. Consumers
// receive a signal per debounced batch on Events and rescan the root;
// the batch carries no payload because a reload always re-reads
// everything.
type Watcher struct {
	root     string
	config   *Config
	fs       *fsnotify.Watcher
	events   chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	watched map[string]bool // resolved dirs, guards symlink cycles
}

// New creates a watcher for the given root directory
func New(root string, config *Config) (*Watcher, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Debounce <= 0 {
		config.Debounce = 300 * time.Millisecond
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:    root,
		config:  config,
		fs:      fs,
		events:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		watched: make(map[string]bool),
	}

	if err := w.addRecursive(root); err != nil {
		fs.Close()
		return nil, err
	}

	go w.loop()
	return w, nil
}

// Events delivers one signal per debounced change batch. The channel
// has capacity one; a batch that arrives while a signal is already
// pending coalesces into it.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Stop shuts the watcher down. Idempotent.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
		w.fs.Close()
	})
}

// addRecursive watches dir and every subdirectory, following symlinked
// directories. Hidden directories are ignored.
func (w *Watcher) addRecursive(dir string) error {
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		if dir == w.root {
			return err
		}
		return nil // dangling symlink
	}

	w.mu.Lock()
	if w.watched[real] {
		w.mu.Unlock()
		return nil
	}
	w.watched[real] = true
	w.mu.Unlock()

	if err := w.fs.Add(dir); err != nil {
		if dir == w.root {
			return err
		}
		log.Printf("watcher: cannot watch %s: %v", dir, err)
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := w.addRecursive(path); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) loop() {
	defer close(w.doneCh)

	var pending bool
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if w.ignore(ev) {
				continue
			}
			// New directories join the watch so checks in them are
			// discovered without a restart.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					w.addRecursive(ev.Name) //nolint:errcheck // best effort after startup
				}
			}
			pending = true
			if timer == nil {
				timer = time.NewTimer(w.config.Debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.config.Debounce)
			}

		case <-timerC:
			if pending {
				pending = false
				select {
				case w.events <- struct{}{}:
				default:
				}
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			// Reported once per error; the watcher keeps running with
			// whatever watches remain rather than crashing.
			log.Printf("watcher: %v", err)
		}
	}
}

// ignore filters events for hidden files and for paths editors use for
// atomic saves but we never parse.
func (w *Watcher) ignore(ev fsnotify.Event) bool {
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".tmp") {
		return true
	}
	return false
}
