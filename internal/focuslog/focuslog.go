// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package focuslog records the history of focus-text changes per case.
//
// Each case gets its own JSON file under the log directory, keyed by the
// case identifier. The log is advisory: a corrupt or unreadable file is
// reset to empty rather than surfaced to the caller, since losing focus
// history must never block an edit to the case itself.
package focuslog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/caseboard/internal/schema"
)

// DefaultRecentLimit is how many entries Recent returns when the caller
// does not ask for a specific count.
const DefaultRecentLimit = 10

// defaultActor is attributed when the caller does not identify one.
const defaultActor = "user"

// Entry is one recorded focus change.
type Entry struct {
	Timestamp schema.Timestamp `json:"timestamp"`
	FocusText string           `json:"focus_text"`
	Actor     string           `json:"actor"`
}

// CaseLog is the on-disk envelope for a single case's focus history.
type CaseLog struct {
	CaseID     string  `json:"case_id"`
	CaseNumber string  `json:"case_number"`
	Entries    []Entry `json:"entries"`
}

// Log manages the per-case focus history files under one directory.
//
// # Thread Safety
//
// Log performs no internal locking. Concurrent appends for the same case
// can lose entries; serialize writes per case at the call site.
type Log struct {
	dir string
}

// New creates the log directory if needed and returns a manager rooted
// at dir.
func New(dir string) (*Log, error) {
	if dir == "" {
		return nil, fmt.Errorf("focus log directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create focus log directory: %w", err)
	}
	return &Log{dir: dir}, nil
}

// Dir returns the directory the manager writes under.
func (l *Log) Dir() string {
	return l.dir
}

func (l *Log) path(caseID string) string {
	return filepath.Join(l.dir, caseID+".json")
}

// load reads the log for a case. A missing or corrupt file yields a
// fresh empty log for the supplied identifiers.
func (l *Log) load(caseID, caseNumber string) *CaseLog {
	fresh := &CaseLog{CaseID: caseID, CaseNumber: caseNumber, Entries: []Entry{}}

	path := l.path(caseID)
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("focus log unreadable, starting fresh", "path", path, "error", err)
		}
		return fresh
	}

	var log CaseLog
	if err := json.Unmarshal(raw, &log); err != nil {
		slog.Warn("focus log corrupt, starting fresh", "path", path, "error", err)
		return fresh
	}
	if log.Entries == nil {
		log.Entries = []Entry{}
	}
	return &log
}

// Append records a focus change for a case. Empty or whitespace-only
// text is ignored, as is an exact repeat of the most recent entry. An
// empty actor is attributed to "user".
func (l *Log) Append(caseID, caseNumber, focusText, actor string) error {
	if strings.TrimSpace(focusText) == "" {
		return nil
	}

	log := l.load(caseID, caseNumber)
	if n := len(log.Entries); n > 0 && log.Entries[n-1].FocusText == focusText {
		return nil
	}

	if actor == "" {
		actor = defaultActor
	}
	log.Entries = append(log.Entries, Entry{
		Timestamp: schema.Now(),
		FocusText: focusText,
		Actor:     actor,
	})

	return l.save(log)
}

// Recent returns up to limit entries for a case, newest first. A
// non-positive limit uses DefaultRecentLimit.
func (l *Log) Recent(caseID, caseNumber string, limit int) []Entry {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	entries := l.load(caseID, caseNumber).Entries
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	out := make([]Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
	}
	return out
}

// All returns every entry for a case, oldest first.
func (l *Log) All(caseID, caseNumber string) []Entry {
	return l.load(caseID, caseNumber).Entries
}

func (l *Log) save(log *CaseLog) error {
	raw, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("encode focus log: %w", err)
	}

	path := l.path(log.CaseID)
	tmpPath := path + ".tmp"

	cleanupTmp := true
	defer func() {
		if cleanupTmp {
			_ = os.Remove(tmpPath)
		}
	}()

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create focus log temp file: %w", err)
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		return fmt.Errorf("write focus log temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync focus log temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close focus log temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace focus log: %w", err)
	}
	cleanupTmp = false
	return nil
}
