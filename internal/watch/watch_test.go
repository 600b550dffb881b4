// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWatcherFiresOnMarkerTouch verifies a marker write reaches the
// callback.
func TestWatcherFiresOnMarkerTouch(t *testing.T) {
	marker := filepath.Join(t.TempDir(), ".bump")
	fired := make(chan struct{}, 8)

	w, err := New(marker, 50*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(marker, []byte("2026-08-25T10:00:00Z"), 0644))

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("callback never fired after marker touch")
	}
}

// TestWatcherIgnoresOtherFiles verifies unrelated files in the watched
// directory do not trigger the callback.
func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, ".bump")

	var calls atomic.Int32
	w, err := New(marker, 50*time.Millisecond, func() { calls.Add(1) })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cases.json"), []byte("{}"), 0644))
	time.Sleep(500 * time.Millisecond)

	assert.Equal(t, int32(0), calls.Load())
}

// TestWatcherDebouncesBursts verifies rapid consecutive touches
// collapse into one callback.
func TestWatcherDebouncesBursts(t *testing.T) {
	marker := filepath.Join(t.TempDir(), ".bump")

	var calls atomic.Int32
	w, err := New(marker, 200*time.Millisecond, func() { calls.Add(1) })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Start(context.Background()))

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(marker, []byte("touch"), 0644))
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(800 * time.Millisecond)

	assert.Equal(t, int32(1), calls.Load())
}

// TestWatcherCreatesMissingDirectory verifies Start works before the
// data directory exists.
func TestWatcherCreatesMissingDirectory(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "data", ".bump")

	w, err := New(marker, 0, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Start(context.Background()))

	info, err := os.Stat(filepath.Dir(marker))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

// TestWatcherCloseIdempotent verifies Close can be called repeatedly.
func TestWatcherCloseIdempotent(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), ".bump"), 0, nil)
	require.NoError(t, err)

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

// TestWatcherStopsOnContextCancel verifies no callbacks fire after the
// context is cancelled.
func TestWatcherStopsOnContextCancel(t *testing.T) {
	marker := filepath.Join(t.TempDir(), ".bump")

	var calls atomic.Int32
	w, err := New(marker, 50*time.Millisecond, func() { calls.Add(1) })
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	cancel()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(marker, []byte("touch"), 0644))
	time.Sleep(400 * time.Millisecond)

	assert.Equal(t, int32(0), calls.Load())
}
