// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lock provides advisory file locking for the case data file.
//
// # Description
//
// A sidecar lock file next to the data file serializes writers across
// processes. Unix uses flock(2), Windows uses LockFileEx. The lock file
// itself is created on demand and deliberately left in place after release;
// only the lock state matters.
//
// # Thread Safety
//
// A Guard must not be shared between goroutines. Acquiring the same path
// from multiple goroutines is safe: each acquisition opens its own file
// descriptor, so contention behaves the same in-process as across
// processes.
package lock

import (
	"errors"
	"os"
)

var (
	// ErrLocked is returned when the lock is held elsewhere and the
	// acquisition deadline passed.
	ErrLocked = errors.New("data file is locked")

	// ErrNotHeld is returned when releasing a guard that no longer holds
	// the lock.
	ErrNotHeld = errors.New("lock not held")
)

// FileLocker abstracts platform-specific file locking.
//
// # Description
//
// Provides a unified interface across Unix and Windows. Both operations
// are non-blocking: Lock returns ErrLocked immediately when the file is
// held by another descriptor.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use on different files.
type FileLocker interface {
	// Lock acquires an exclusive, non-blocking lock on the open file.
	// Returns ErrLocked when the file is already locked elsewhere.
	Lock(f *os.File) error

	// Unlock releases a previously acquired lock. Safe to call on an
	// unlocked file.
	Unlock(f *os.File) error
}

// New returns the platform-appropriate FileLocker.
func New() FileLocker {
	return newPlatformLocker()
}
