// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch notifies long-running surfaces when another process
// saves the case document. The datastore rewrites a marker file after
// every successful save; watching the marker instead of the document
// avoids firing on the document's temp-file rename dance.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce batches marker rewrites from rapid back-to-back
// saves into a single callback.
const DefaultDebounce = 250 * time.Millisecond

// Watcher invokes a callback when the change marker is touched.
//
// # Thread Safety
//
// Safe for concurrent use. The callback runs on a single goroutine;
// Start should only be called once.
type Watcher struct {
	markerPath string
	watcher    *fsnotify.Watcher
	callback   func()
	debounce   time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a watcher for the given marker file. A non-positive
// debounce uses the default.
func New(markerPath string, debounce time.Duration, callback func()) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		markerPath: filepath.Clean(markerPath),
		watcher:    watcher,
		callback:   callback,
		debounce:   debounce,
		done:       make(chan struct{}),
	}, nil
}

// Start begins watching. The marker's directory is created when absent
// so the watcher can run before the first save. Returns after spawning
// the event loop; cancel the context or call Close to stop.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.markerPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	slog.Debug("watching change marker", "path", w.markerPath)
	go w.loop(ctx)
	return nil
}

// Close stops the watcher and releases resources. Safe to call
// multiple times.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

// loop filters events down to marker touches and debounces them into
// callback invocations. A pending callback is dropped on shutdown.
func (w *Watcher) loop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.markerPath {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if w.callback != nil {
				w.callback()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("marker watcher error", "error", err)
		}
	}
}
