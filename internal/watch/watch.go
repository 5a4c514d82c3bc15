// Copyright 2011 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package watch implements the additive -watch driver mode: it debounces
// filesystem change notifications from fsnotify and hands the driver a
// single signal once the tree has gone quiet, instead of re-running the
// incremental loop once per individual write syscall.
package watch

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last observed
// event before signaling a rebuild. A single save in most editors produces
// several back-to-back write events; debouncing collapses those into one.
const DefaultDebounce = 150 * time.Millisecond

// Watcher watches a set of root directories and delivers a signal on
// Changes whenever the tree has been quiet for Debounce after the last
// event. It never reports which files changed: the driver always
// re-classifies every known input by content hash on wake-up (§4.7 step 2),
// so the watcher's only job is "has anything happened".
type Watcher struct {
	Debounce time.Duration

	fsw     *fsnotify.Watcher
	changes chan struct{}
	errors  chan error
	done    chan struct{}
}

// New creates a Watcher and recursively adds every directory under each of
// roots, skipping directories that cannot be read (e.g. permission denied).
func New(roots []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		Debounce: DefaultDebounce,
		fsw:      fsw,
		changes:  make(chan struct{}, 1),
		errors:   make(chan error, 1),
		done:     make(chan struct{}),
	}
	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil && !os.IsPermission(err) {
			return err
		}
		return nil
	})
}

// Run blocks, debouncing fsnotify events into Changes signals, until Stop
// is called or the underlying watcher is closed. Run is meant to be its own
// goroutine; the driver selects on Changes and Errors.
func (w *Watcher) Run() {
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case _, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.Debounce)
			timerC = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		case <-timerC:
			timerC = nil
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case <-w.done:
			return
		}
	}
}

// Changes delivers a value once per debounced burst of filesystem activity.
func (w *Watcher) Changes() <-chan struct{} { return w.changes }

// Errors delivers fsnotify errors as they occur.
func (w *Watcher) Errors() <-chan error { return w.errors }

// Stop terminates Run and releases the underlying OS watch handles.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsw.Close()
}
