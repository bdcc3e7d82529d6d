// Package watcher notifies when the backing text file changes on disk.
// It watches the file's parent directory so that editors replacing the file
// (write to temp, rename over) are still seen, and debounces bursts of events
// into a single callback fired once the file has been quiet for the interval.
package watcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiet period used by the server
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches a single file
type Watcher struct {
	fw       *fsnotify.Watcher
	done     chan struct{}
	interval time.Duration

	mu      sync.Mutex
	stopped bool
	timer   *time.Timer
}

// NewWatcher creates a new file watcher with the given debounce interval
func NewWatcher(interval time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "fsnotify")
	}
	return &Watcher{
		fw:       fw,
		done:     make(chan struct{}),
		interval: interval,
	}, nil
}

// Watch starts monitoring path. onChange is called from the watcher's own
// goroutine after writes, creation, removal or renames of the file.
func (w *Watcher) Watch(path string, onChange func()) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(absPath)
	if err := w.fw.Add(dir); err != nil {
		return errors.Wrapf(err, "watching %s", dir)
	}

	go func() {
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					logrus.WithFields(logrus.Fields{
						"path": absPath,
						"op":   event.Op.String(),
					}).Debug("Backing file event")
					w.schedule(onChange)
				}

			case err, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				logrus.WithError(err).Warn("File watcher error")

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// schedule (re)arms the debounce timer
func (w *Watcher) schedule(onChange func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.interval, func() {
		w.mu.Lock()
		stopped := w.stopped
		w.mu.Unlock()
		if !stopped {
			onChange()
		}
	})
}

// Stop ends monitoring and releases all resources.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.done)
	return w.fw.Close()
}
