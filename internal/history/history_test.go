// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/caseboard/internal/schema"
)

func casesNamed(names ...string) []schema.CaseRecord {
	out := make([]schema.CaseRecord, len(names))
	for i, name := range names {
		out[i] = schema.CaseRecord{ID: name, CaseNumber: name, CaseName: name}
	}
	return out
}

// TestUndoRedoCycle verifies the basic undo/redo round trip.
func TestUndoRedoCycle(t *testing.T) {
	stack := New(0)

	before := casesNamed("a")
	after := casesNamed("a", "b")

	stack.Snapshot(before)

	restored, ok := stack.Undo(after)
	require.True(t, ok)
	assert.Len(t, restored, 1)
	assert.True(t, stack.CanRedo())

	redone, ok := stack.Redo(restored)
	require.True(t, ok)
	assert.Len(t, redone, 2)
	assert.False(t, stack.CanRedo())
}

// TestUndoEmpty verifies undo on an empty stack reports false.
func TestUndoEmpty(t *testing.T) {
	stack := New(0)
	_, ok := stack.Undo(casesNamed("a"))
	assert.False(t, ok)
	_, ok = stack.Redo(casesNamed("a"))
	assert.False(t, ok)
}

// TestSnapshotClearsRedo verifies a new edit forks history.
func TestSnapshotClearsRedo(t *testing.T) {
	stack := New(0)

	stack.Snapshot(casesNamed("a"))
	_, ok := stack.Undo(casesNamed("a", "b"))
	require.True(t, ok)
	require.True(t, stack.CanRedo())

	stack.Snapshot(casesNamed("a", "c"))
	assert.False(t, stack.CanRedo())
}

// TestBoundDropsOldest verifies the undo stack stays within its bound by
// discarding the oldest snapshot.
func TestBoundDropsOldest(t *testing.T) {
	stack := New(3)
	for i := 0; i < 5; i++ {
		stack.Snapshot(casesNamed(fmt.Sprintf("state-%d", i)))
	}

	var restored []schema.CaseRecord
	count := 0
	current := casesNamed("current")
	for {
		snap, ok := stack.Undo(current)
		if !ok {
			break
		}
		restored = snap
		current = snap
		count++
	}

	assert.Equal(t, 3, count)
	assert.Equal(t, "state-2", restored[0].CaseNumber, "oldest surviving snapshot")
}

// TestSnapshotIsDeepCopy verifies later mutations do not alter stored
// snapshots.
func TestSnapshotIsDeepCopy(t *testing.T) {
	stack := New(0)
	cases := casesNamed("a")
	cases[0].Deadlines = []schema.Deadline{{Description: "original"}}

	stack.Snapshot(cases)
	cases[0].Deadlines[0].Description = "mutated"
	cases[0].CaseName = "mutated"

	restored, ok := stack.Undo(casesNamed("other"))
	require.True(t, ok)
	assert.Equal(t, "a", restored[0].CaseName)
	assert.Equal(t, "original", restored[0].Deadlines[0].Description)
}

// TestClear drops both stacks.
func TestClear(t *testing.T) {
	stack := New(0)
	stack.Snapshot(casesNamed("a"))
	_, ok := stack.Undo(casesNamed("b"))
	require.True(t, ok)

	stack.Clear()
	assert.False(t, stack.CanUndo())
	assert.False(t, stack.CanRedo())
}
