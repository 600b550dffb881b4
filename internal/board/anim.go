// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package board

import (
	"strings"

	"github.com/AleutianAI/caseboard/internal/schema"
)

const (
	// animLeadSteps delays the first rune so the row highlight lands
	// before typing starts.
	animLeadSteps = 3

	// animTailSteps is how many frames past the lead the replay runs
	// beyond the last rune, holding the finished line on screen.
	animTailSteps = 6

	// maxFocusRunes is the widest focus text the table shows before
	// truncating.
	maxFocusRunes = 60
)

// focusAnim is the state machine behind the focus-column typing
// effect. Every trigger interval it picks the next case carrying focus
// text and replays that text one rune per step, holding the full line
// briefly before going idle. Zero value is idle.
type focusAnim struct {
	active  bool
	caseID  string
	text    []rune
	step    int
	pointer int
}

// trigger starts a replay for the next case with focus text, cycling
// through candidates across calls. Reports whether a replay began; a
// replay already in flight or an all-idle caseload leaves the state
// untouched.
func (a *focusAnim) trigger(ranked []rankedCase) bool {
	if a.active {
		return false
	}
	type candidate struct {
		id   string
		text string
	}
	var candidates []candidate
	for _, rc := range ranked {
		if text := focusText(rc.record); text != "-" {
			candidates = append(candidates, candidate{id: rc.record.ID, text: text})
		}
	}
	if len(candidates) == 0 {
		return false
	}
	a.pointer = (a.pointer + 1) % len(candidates)
	picked := candidates[a.pointer]
	a.active = true
	a.caseID = picked.id
	a.text = []rune(picked.text)
	a.step = 0
	return true
}

// advance moves the replay forward one frame. Reports whether the
// replay is still running.
func (a *focusAnim) advance() bool {
	if !a.active {
		return false
	}
	a.step++
	if a.step > len(a.text)+animTailSteps {
		a.active = false
		a.caseID = ""
		a.text = nil
		a.step = 0
		return false
	}
	return true
}

// overrideFor returns the partially typed focus text for a row while
// its replay runs. ok is false for rows not being animated.
func (a focusAnim) overrideFor(caseID string) (text string, ok bool) {
	if !a.active || caseID != a.caseID {
		return "", false
	}
	typed := a.step - animLeadSteps
	switch {
	case typed <= 0:
		return "", true
	case typed >= len(a.text):
		return string(a.text), true
	default:
		return string(a.text[:typed]), true
	}
}

// highlightStrong reports whether the animated row should use the
// bright backdrop, which it does for the first frames of a replay.
func (a focusAnim) highlightStrong() bool {
	return a.step <= 2
}

// focusText normalizes a record's current task for the focus column:
// trimmed, capped, "-" when empty.
func focusText(rec schema.CaseRecord) string {
	text := strings.TrimSpace(rec.CurrentTask)
	if text == "" {
		return "-"
	}
	return truncate(text, maxFocusRunes)
}

// truncate caps s at max runes, spending the final cells on an
// ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "…"
}
