// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Guard holds an acquired lock until Release is called.
type Guard struct {
	path     string
	file     *os.File
	locker   FileLocker
	released bool
}

// Path returns the lock file path.
func (g *Guard) Path() string {
	return g.path
}

// Release unlocks and closes the lock file. Safe to call more than once;
// the lock file itself is left in place.
func (g *Guard) Release() error {
	if g.released {
		return nil
	}
	g.released = true
	if err := g.locker.Unlock(g.file); err != nil {
		g.file.Close()
		return fmt.Errorf("releasing lock %s: %w", g.path, err)
	}
	return g.file.Close()
}

// Acquire obtains an exclusive lock on the lock file at path, creating the
// file and its parent directory as needed.
//
// # Description
//
// The first attempt is non-blocking. When the lock is held elsewhere,
// Acquire polls with exponential backoff (100ms doubling to a 2s cap)
// until the lock frees, the timeout elapses, or ctx is cancelled. On
// timeout the returned error wraps ErrLocked so callers can classify the
// failure.
//
// # Inputs
//
//   - ctx: Cancellation context; bounds the wait together with timeout.
//   - path: Lock file path, conventionally "<data file>.lock".
//   - timeout: Maximum time to wait for the lock.
//
// # Outputs
//
//   - *Guard: Held lock. Callers must Release it.
//   - error: Wraps ErrLocked when the deadline passed while contended.
func Acquire(ctx context.Context, path string, timeout time.Duration) (*Guard, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	locker := New()

	// Try non-blocking first
	err = locker.Lock(file)
	if err == nil {
		return &Guard{path: path, file: file, locker: locker}, nil
	}
	if err != ErrLocked {
		file.Close()
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Poll with exponential backoff: start at 100ms, double each time,
	// cap at 2s.
	const (
		minBackoff = 100 * time.Millisecond
		maxBackoff = 2 * time.Second
	)
	backoff := minBackoff

	for {
		select {
		case <-lockCtx.Done():
			file.Close()
			return nil, fmt.Errorf("%w after %v: %w", ErrLocked, timeout, lockCtx.Err())
		case <-time.After(backoff):
			err = locker.Lock(file)
			if err == nil {
				return &Guard{path: path, file: file, locker: locker}, nil
			}
			if err != ErrLocked {
				file.Close()
				return nil, fmt.Errorf("lock %s: %w", path, err)
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}
