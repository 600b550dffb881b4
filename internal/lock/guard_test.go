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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAcquireRelease verifies the basic acquire/release cycle and that the
// lock file is created but not removed.
func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.json.lock")

	guard, err := Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)
	assert.Equal(t, path, guard.Path())

	_, err = os.Stat(path)
	require.NoError(t, err, "lock file should exist while held")

	require.NoError(t, guard.Release())

	_, err = os.Stat(path)
	assert.NoError(t, err, "lock file stays in place after release")
}

// TestAcquireCreatesParentDir verifies missing parent directories are
// created.
func TestAcquireCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "cases.json.lock")

	guard, err := Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)
	defer guard.Release()

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

// TestAcquireContention verifies a second acquisition times out with
// ErrLocked while the first guard is held, then succeeds after release.
func TestAcquireContention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.json.lock")

	first, err := Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)

	start := time.Now()
	_, err = Acquire(context.Background(), path, 250*time.Millisecond)
	require.ErrorIs(t, err, ErrLocked)
	assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond)

	require.NoError(t, first.Release())

	second, err := Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)
	assert.NoError(t, second.Release())
}

// TestAcquireWaitsForRelease verifies a pending acquisition completes once
// the holder releases within the deadline.
func TestAcquireWaitsForRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.json.lock")

	first, err := Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)

	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = first.Release()
	}()

	second, err := Acquire(context.Background(), path, 3*time.Second)
	require.NoError(t, err)
	assert.NoError(t, second.Release())
}

// TestAcquireContextCancel verifies cancellation aborts a pending
// acquisition.
func TestAcquireContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.json.lock")

	first, err := Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)
	defer first.Release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err = Acquire(ctx, path, 10*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestReleaseIdempotent verifies double release is harmless.
func TestReleaseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.json.lock")

	guard, err := Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)

	require.NoError(t, guard.Release())
	assert.NoError(t, guard.Release())
}
