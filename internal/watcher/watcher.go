// Package watcher monitors the word list asset directory and reports
// languages whose dictionaries need recompiling.
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// assetSuffix matches the word list naming scheme, <lang>_words.txt.
const assetSuffix = "_words.txt"

// Event reports a changed word list that has gone quiet for the
// debounce interval.
type Event struct {
	Lang      string
	Path      string
	Timestamp time.Time
}

// Watcher monitors an asset directory for word list changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	debounce  time.Duration

	// path -> time of last observed write
	state   map[string]time.Time
	stateMu sync.Mutex

	events chan Event
	errors chan error

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher for the given asset directory. Changes are
// reported only after a file has been untouched for the debounce
// interval, so half-written lists do not trigger a compile.
func New(dir string, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = time.Second
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		dir:       dir,
		debounce:  debounce,
		state:     make(map[string]time.Time),
		events:    make(chan Event, 16),
		errors:    make(chan error, 4),
		done:      make(chan struct{}),
	}, nil
}

// Events returns the channel of debounced change events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start begins watching the asset directory.
func (w *Watcher) Start() error {
	abs, err := filepath.Abs(w.dir)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		return err
	}
	if err := w.fsWatcher.Add(abs); err != nil {
		return err
	}
	w.dir = abs

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	return nil
}

// Stop shuts down the watcher and closes its channels.
func (w *Watcher) Stop() error {
	close(w.done)
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return w.fsWatcher.Close()
}

// langFor maps an asset path to its language tag, empty when the file
// is not a word list.
func langFor(path string) string {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, assetSuffix) {
		return ""
	}
	return strings.TrimSuffix(base, assetSuffix)
}

// eventLoop records write times for word list files.
func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if langFor(event.Name) == "" {
				continue
			}
			if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
				continue
			}

			w.stateMu.Lock()
			w.state[event.Name] = time.Now()
			w.stateMu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

// debounceLoop emits events for files that have stayed quiet.
func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	tick := w.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case now := <-ticker.C:
			w.flushStable(now)
		}
	}
}

// flushStable emits one event per file whose last write is older than
// the debounce interval, then forgets the file until it changes again.
func (w *Watcher) flushStable(now time.Time) {
	threshold := now.Add(-w.debounce)

	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	for path, lastWrite := range w.state {
		if !lastWrite.Before(threshold) {
			continue
		}
		ev := Event{
			Lang:      langFor(path),
			Path:      path,
			Timestamp: now,
		}
		select {
		case w.events <- ev:
			delete(w.state, path)
		default:
			// channel full, retry on the next tick
		}
	}
}

// PendingCount returns how many changed files await their debounce.
func (w *Watcher) PendingCount() int {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	return len(w.state)
}
