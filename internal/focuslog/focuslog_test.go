// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package focuslog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAppendAndRecent verifies entries accumulate and come back newest
// first.
func TestAppendAndRecent(t *testing.T) {
	log, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, log.Append("case-1", "23-CV-0101", "Draft complaint", "clerk"))
	require.NoError(t, log.Append("case-1", "23-CV-0101", "Serve defendant", "clerk"))
	require.NoError(t, log.Append("case-1", "23-CV-0101", "Schedule deposition", "clerk"))

	recent := log.Recent("case-1", "23-CV-0101", 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "Schedule deposition", recent[0].FocusText)
	assert.Equal(t, "Serve defendant", recent[1].FocusText)
	assert.Equal(t, "clerk", recent[0].Actor)
	assert.False(t, recent[0].Timestamp.IsZero())

	raw, err := os.ReadFile(filepath.Join(log.Dir(), "case-1.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"case_id": "case-1"`)
	assert.Contains(t, string(raw), `"case_number": "23-CV-0101"`)
}

// TestAppendSkipsEmptyText verifies blank focus text never creates a log
// file.
func TestAppendSkipsEmptyText(t *testing.T) {
	log, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, log.Append("case-1", "23-CV-0101", "", "clerk"))
	require.NoError(t, log.Append("case-1", "23-CV-0101", "  \t ", "clerk"))

	_, err = os.Stat(filepath.Join(log.Dir(), "case-1.json"))
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, log.All("case-1", "23-CV-0101"))
}

// TestAppendSkipsConsecutiveDuplicate verifies only back-to-back repeats
// are dropped.
func TestAppendSkipsConsecutiveDuplicate(t *testing.T) {
	log, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, log.Append("case-1", "23-CV-0101", "Draft complaint", "clerk"))
	require.NoError(t, log.Append("case-1", "23-CV-0101", "Draft complaint", "clerk"))
	require.Len(t, log.All("case-1", "23-CV-0101"), 1)

	require.NoError(t, log.Append("case-1", "23-CV-0101", "Serve defendant", "clerk"))
	require.NoError(t, log.Append("case-1", "23-CV-0101", "Draft complaint", "clerk"))

	all := log.All("case-1", "23-CV-0101")
	require.Len(t, all, 3)
	assert.Equal(t, "Draft complaint", all[2].FocusText)
}

// TestCorruptLogResetsFresh verifies a mangled log file is replaced
// instead of failing the caller.
func TestCorruptLogResetsFresh(t *testing.T) {
	log, err := New(t.TempDir())
	require.NoError(t, err)

	path := filepath.Join(log.Dir(), "case-1.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	assert.Empty(t, log.Recent("case-1", "23-CV-0101", 5))

	require.NoError(t, log.Append("case-1", "23-CV-0101", "Draft complaint", "clerk"))
	all := log.All("case-1", "23-CV-0101")
	require.Len(t, all, 1)
	assert.Equal(t, "Draft complaint", all[0].FocusText)
}

// TestRecentDefaultLimit verifies a non-positive limit caps at ten
// entries.
func TestRecentDefaultLimit(t *testing.T) {
	log, err := New(t.TempDir())
	require.NoError(t, err)

	for i := 0; i < 12; i++ {
		text := "focus " + string(rune('a'+i))
		require.NoError(t, log.Append("case-1", "23-CV-0101", text, "clerk"))
	}

	recent := log.Recent("case-1", "23-CV-0101", 0)
	require.Len(t, recent, DefaultRecentLimit)
	assert.Equal(t, "focus l", recent[0].FocusText)
	assert.Equal(t, "focus c", recent[len(recent)-1].FocusText)
}

// TestAllOldestFirst verifies All preserves append order.
func TestAllOldestFirst(t *testing.T) {
	log, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, log.Append("case-1", "23-CV-0101", "first", "clerk"))
	require.NoError(t, log.Append("case-1", "23-CV-0101", "second", "clerk"))

	all := log.All("case-1", "23-CV-0101")
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].FocusText)
	assert.Equal(t, "second", all[1].FocusText)
}

// TestAppendDefaultsActor verifies an empty actor is attributed to
// "user".
func TestAppendDefaultsActor(t *testing.T) {
	log, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, log.Append("case-1", "23-CV-0101", "Draft complaint", ""))
	all := log.All("case-1", "23-CV-0101")
	require.Len(t, all, 1)
	assert.Equal(t, "user", all[0].Actor)
}

// TestNewRequiresDirectory verifies construction fails without a target
// directory.
func TestNewRequiresDirectory(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
