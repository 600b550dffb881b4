// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history maintains bounded undo/redo stacks over case record
// snapshots. Every snapshot is a deep copy, so later edits never bleed
// into stored states.
package history

import "github.com/AleutianAI/caseboard/internal/schema"

// DefaultMaxSize bounds the undo stack; the oldest snapshot is dropped
// when the bound is exceeded.
const DefaultMaxSize = 50

// Stack holds undo and redo snapshots of the case list.
//
// Not safe for concurrent use; the editing surface owns it from a single
// goroutine.
type Stack struct {
	maxSize int
	undo    [][]schema.CaseRecord
	redo    [][]schema.CaseRecord
}

// New creates a stack bounded at maxSize snapshots. Non-positive values
// fall back to DefaultMaxSize.
func New(maxSize int) *Stack {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Stack{maxSize: maxSize}
}

// Snapshot records the pre-mutation state. Taking a snapshot clears the
// redo stack, matching the usual editor convention that a new edit
// forks history.
func (s *Stack) Snapshot(cases []schema.CaseRecord) {
	s.undo = append(s.undo, schema.CloneRecords(cases))
	if len(s.undo) > s.maxSize {
		s.undo = s.undo[1:]
	}
	s.redo = nil
}

// Undo returns the most recent snapshot and moves the current state onto
// the redo stack. Reports false when there is nothing to undo.
func (s *Stack) Undo(current []schema.CaseRecord) ([]schema.CaseRecord, bool) {
	if len(s.undo) == 0 {
		return nil, false
	}
	s.redo = append(s.redo, schema.CloneRecords(current))
	last := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	return last, true
}

// Redo reverses the most recent Undo. Reports false when there is
// nothing to redo.
func (s *Stack) Redo(current []schema.CaseRecord) ([]schema.CaseRecord, bool) {
	if len(s.redo) == 0 {
		return nil, false
	}
	s.undo = append(s.undo, schema.CloneRecords(current))
	last := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	return last, true
}

// Clear drops both stacks.
func (s *Stack) Clear() {
	s.undo = nil
	s.redo = nil
}

// CanUndo reports whether an undo snapshot is available.
func (s *Stack) CanUndo() bool { return len(s.undo) > 0 }

// CanRedo reports whether a redo snapshot is available.
func (s *Stack) CanRedo() bool { return len(s.redo) > 0 }
