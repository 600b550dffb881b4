// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/caseboard/internal/schema"
)

// auditValueLimit caps field values embedded in audit lines.
const auditValueLimit = 64

// trackedFields lists the audited record fields in line order. Deadlines
// and statute dates are excluded; they change through their own flows.
var trackedFields = []struct {
	name string
	get  func(schema.CaseRecord) (string, bool)
}{
	{"case_name", func(r schema.CaseRecord) (string, bool) { return r.CaseName, true }},
	{"case_type", func(r schema.CaseRecord) (string, bool) { return r.CaseType, true }},
	{"stage", func(r schema.CaseRecord) (string, bool) { return r.Stage, true }},
	{"attention", func(r schema.CaseRecord) (string, bool) { return r.Attention, true }},
	{"status", func(r schema.CaseRecord) (string, bool) { return r.Status, true }},
	{"paralegal", func(r schema.CaseRecord) (string, bool) { return r.Paralegal, true }},
	{"current_task", func(r schema.CaseRecord) (string, bool) { return r.CurrentTask, true }},
	{"next_due", func(r schema.CaseRecord) (string, bool) {
		if r.NextDue == nil {
			return "", false
		}
		return *r.NextDue, true
	}},
	{"county", func(r schema.CaseRecord) (string, bool) { return r.County, true }},
	{"division", func(r schema.CaseRecord) (string, bool) { return r.Division, true }},
	{"judge", func(r schema.CaseRecord) (string, bool) { return r.Judge, true }},
	{"opposing_counsel", func(r schema.CaseRecord) (string, bool) { return r.OpposingCounsel, true }},
	{"opposing_firm", func(r schema.CaseRecord) (string, bool) { return r.OpposingFirm, true }},
}

type auditLine struct {
	change string // created, updated, deleted
	text   string
}

// formatAuditValue renders a field value for an audit line. Unset values
// render as a null sign; long values are truncated with an ellipsis.
func formatAuditValue(value string, present bool) string {
	if !present {
		return "∅"
	}
	if runes := []rune(value); len(runes) > auditValueLimit {
		return string(runes[:auditValueLimit-3]) + "…"
	}
	return value
}

// diffRecord returns "field:old->new" fragments for every tracked field
// that changed between two versions of a record.
func diffRecord(previous, current schema.CaseRecord) []string {
	var changes []string
	for _, field := range trackedFields {
		oldValue, oldOK := field.get(previous)
		newValue, newOK := field.get(current)
		if oldValue == newValue && oldOK == newOK {
			continue
		}
		changes = append(changes, fmt.Sprintf("%s:%s->%s",
			field.name,
			formatAuditValue(oldValue, oldOK),
			formatAuditValue(newValue, newOK)))
	}
	return changes
}

// uniqueByCaseNumber collapses duplicate case numbers: position follows
// the first occurrence, the value follows the last.
func uniqueByCaseNumber(cases []schema.CaseRecord) []schema.CaseRecord {
	index := make(map[string]int, len(cases))
	out := make([]schema.CaseRecord, 0, len(cases))
	for _, rec := range cases {
		if i, ok := index[rec.CaseNumber]; ok {
			out[i] = rec
			continue
		}
		index[rec.CaseNumber] = len(out)
		out = append(out, rec)
	}
	return out
}

// buildAuditLines derives audit lines for a save: deletions first sorted
// by case number, then creations and updates in document order. Every
// line carries the new document's save timestamp so one save groups into
// one timestamp.
func buildAuditLines(previous, current schema.CaseDocument, actor string) []auditLine {
	timestamp := current.SavedAt.UTC().Format(time.RFC3339Nano)
	previousMap := previous.RecordsByCaseNumber()
	currentRecords := uniqueByCaseNumber(current.Cases)

	currentNumbers := make(map[string]bool, len(currentRecords))
	for _, rec := range currentRecords {
		currentNumbers[rec.CaseNumber] = true
	}

	var deleted []string
	for caseNo := range previousMap {
		if !currentNumbers[caseNo] {
			deleted = append(deleted, caseNo)
		}
	}
	sort.Strings(deleted)

	var lines []auditLine
	for _, caseNo := range deleted {
		lines = append(lines, auditLine{
			change: "deleted",
			text:   fmt.Sprintf("%s | %s | deleted | %s", timestamp, actor, caseNo),
		})
	}

	for _, rec := range currentRecords {
		prev, existed := previousMap[rec.CaseNumber]
		if !existed {
			lines = append(lines, auditLine{
				change: "created",
				text:   fmt.Sprintf("%s | %s | created | %s", timestamp, actor, rec.CaseNumber),
			})
			continue
		}
		if changes := diffRecord(prev, rec); len(changes) > 0 {
			lines = append(lines, auditLine{
				change: "updated",
				text: fmt.Sprintf("%s | %s | updated | %s | %s",
					timestamp, actor, rec.CaseNumber, strings.Join(changes, "; ")),
			})
		}
	}
	return lines
}

// appendAudit writes audit lines to the append-only log. No lines means
// no write, so an unchanged save leaves no trace.
func (s *Store) appendAudit(lines []auditLine) error {
	if len(lines) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.cfg.AuditFile), 0755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}
	f, err := os.OpenFile(s.cfg.AuditFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	for _, line := range lines {
		if _, err := f.WriteString(line.text + "\n"); err != nil {
			return fmt.Errorf("append audit line: %w", err)
		}
		auditLines.WithLabelValues(line.change).Inc()
	}
	return nil
}

// TailAudit returns the last n audit lines, oldest first. A missing log
// yields an empty slice.
func (s *Store) TailAudit(n int) ([]string, error) {
	data, err := os.ReadFile(s.cfg.AuditFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
