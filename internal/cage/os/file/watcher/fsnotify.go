// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package watcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	cage_time "github.com/codeactual/countdown/internal/cage/time"
	tp_time "github.com/codeactual/countdown/internal/third_party/gist.github.com/time"
)

type debouncer struct {
	call func(interface{})
	stop func()
}

// Fsnotify implements Watcher with github.com/fsnotify/fsnotify.
//
// The zero value is ready to use.
type Fsnotify struct {
	// Clock supports timer mocking for debounce-sensitive tests. It defaults to the real clock.
	Clock cage_time.Clock

	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	subscribers []Subscriber
	done        chan struct{}
	closed      bool

	// debouncers indexes debounced broadcast functions by Event.String output strings.
	// It is only accessed by the monitor goroutine.
	debouncers map[string]debouncer

	debounceInterval time.Duration
}

func (w *Fsnotify) AddSubscriber(sub Subscriber) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subscribers = append(w.subscribers, sub)
	return nil
}

func (w *Fsnotify) AddPath(name string) (err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.Errorf("failed to add watcher path [%s]: watcher is closed", name)
	}

	if w.watcher == nil {
		w.watcher, err = fsnotify.NewWatcher()
		if err != nil {
			return errors.Wrap(err, "failed to create new watcher")
		}

		w.done = make(chan struct{})
		go w.monitor(w.watcher, w.done, w.debounceInterval)
	}

	abs, err := filepath.Abs(name)
	if err != nil {
		return errors.Wrapf(err, "failed to get absolute path of [%s]", name)
	}

	if err = w.watcher.Add(abs); err != nil {
		return errors.Wrapf(err, "failed to add watcher path [%s]", abs)
	}

	return nil
}

func (w *Fsnotify) RemovePath(name string) (err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher == nil {
		return errors.Errorf("failed to remove watcher path [%s]: no paths were added", name)
	}

	abs, err := filepath.Abs(name)
	if err != nil {
		return errors.Wrapf(err, "failed to get absolute path of [%s]", name)
	}

	if err = w.watcher.Remove(abs); err != nil {
		return errors.Wrapf(err, "failed to remove watcher path [%s]", abs)
	}

	return nil
}

func (w *Fsnotify) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.watcher == nil {
		return nil
	}
	close(w.done)
	return errors.Wrap(w.watcher.Close(), "failed to close fsnotify watcher")
}

// Debounce must be called before the first AddPath.
func (w *Fsnotify) Debounce(d time.Duration) {
	w.mu.Lock()
	w.debounceInterval = d
	w.mu.Unlock()
}

// monitor defines the goroutine that dispatches all event/error details to
// to subscribers.
func (w *Fsnotify) monitor(fw *fsnotify.Watcher, done chan struct{}, interval time.Duration) {
	defer func() {
		for _, d := range w.debouncers {
			d.stop()
		}
	}()

	for {
		select {
		case <-done:
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Name == "" {
				// E.g. if a directory is passed to AddPath and then Close is called, an empty Event
				// is still spammed here if a file is created in that directory after Close.
				// https://github.com/fsnotify/fsnotify/issues/140#issuecomment-217539670
				continue
			}

			op := filterOp(event.Op)
			if op == 0 {
				continue
			}

			filtered := Event{Path: event.Name, Op: op}

			if interval > 0 {
				// Avoid sending double notification of an event when both the file and its directory
				// are watched, and collapse the write bursts of editors which save in several steps.
				key := filtered.String()
				if w.debouncers == nil {
					w.debouncers = make(map[string]debouncer)
				}
				d, ok := w.debouncers[key]
				if !ok {
					d.call, d.stop = tp_time.Debounce(w.clock(), interval, func(v interface{}) {
						w.broadcastEvent(v.(Event))
					})
					w.debouncers[key] = d
				}
				d.call(filtered)
			} else {
				w.broadcastEvent(filtered)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if err == nil {
				continue
			}
			for _, s := range w.subscriberList() {
				s.Error(err)
			}
		}
	}
}

func (w *Fsnotify) clock() cage_time.Clock {
	if w.Clock == nil {
		return cage_time.RealClock{}
	}
	return w.Clock
}

func (w *Fsnotify) subscriberList() []Subscriber {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Subscriber{}, w.subscribers...)
}

func (w *Fsnotify) broadcastEvent(e Event) {
	for _, s := range w.subscriberList() {
		s.Event(e)
	}
}

// filterOp reduces the types to only those defined in this package.
//
// fsnotify supports multi-events via bit masks and also chmod events, both of which
// are effectively filtered.
func filterOp(op fsnotify.Op) Op {
	if op&fsnotify.Remove == fsnotify.Remove {
		return Remove
	}
	if op&fsnotify.Rename == fsnotify.Rename {
		return Rename
	}
	if op&fsnotify.Create == fsnotify.Create {
		return Create
	}
	if op&fsnotify.Write == fsnotify.Write {
		return Write
	}
	return 0
}

var _ Watcher = (*Fsnotify)(nil)
