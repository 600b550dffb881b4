// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package schema defines the on-disk case document model and its validation
// rules.
//
// # Description
//
// The authoritative artifact is a single JSON document holding an ordered
// list of case records plus versioning metadata. This package owns the
// record and document types, the cleaning and validation pipeline every
// record passes through before persistence, and the case-type registry used
// to normalize legacy type labels.
//
// Records are treated as immutable values: validation returns a cleaned
// copy and never mutates its input.
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The shared validator
// instance is initialized once in init().
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

// CurrentSchemaVersion is the schema version written by this release.
// Documents declaring an older version are migrated on load.
const CurrentSchemaVersion = 2

// MaxFocusLength bounds the current-task (focus) text of a record.
const MaxFocusLength = 280

// Attention flag values.
const (
	AttentionWaiting = "waiting"
	AttentionNeeds   = "needs_attention"
)

// Status values. StatusValues lists them in display order.
const (
	StatusPreFiling = "pre-filing"
	StatusFiled     = "filed"
	StatusOpen      = "open"
	StatusClosed    = "closed"
	StatusArchived  = "archived"
)

// StatusValues is the closed set of valid record statuses.
var StatusValues = []string{StatusPreFiling, StatusFiled, StatusOpen, StatusClosed, StatusArchived}

// activeStatuses is the subset counted as "active" by the summary projection
// and the dashboards.
var activeStatuses = map[string]bool{
	StatusOpen:      true,
	StatusFiled:     true,
	StatusPreFiling: true,
}

// IsActiveStatus reports whether status belongs to the active subset
// (open, filed, pre-filing).
func IsActiveStatus(status string) bool {
	return activeStatuses[status]
}

// dueDateLayout is the wire format for all date-only fields.
const dueDateLayout = "2006-01-02"

// =============================================================================
// Timestamp
// =============================================================================

// Timestamp is a UTC save timestamp. It marshals as an ISO-8601 string with
// a trailing Z and tolerates the formats written by earlier releases when
// unmarshaling (explicit offsets and zone-less strings, which are read as
// UTC).
type Timestamp struct {
	time.Time
}

// Now returns the current time as a Timestamp, truncated to UTC.
func Now() Timestamp {
	return Timestamp{time.Now().UTC()}
}

// NewTimestamp wraps t, normalized to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC()}
}

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses a saved_at value. Zone-less inputs are interpreted
// as UTC; anything else is an error.
func ParseTimestamp(value string) (Timestamp, error) {
	cleaned := strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, cleaned); err == nil {
			return Timestamp{parsed.UTC()}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid saved_at value %q", value)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("saved_at must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// =============================================================================
// Records
// =============================================================================

// Deadline is a dated obligation attached to a case record.
type Deadline struct {
	DueDate     strfmt.Date `json:"due_date"`
	Description string      `json:"description"`
	Resolved    bool        `json:"resolved"`
}

// CaseRecord is one legal matter inside the case document.
//
// The identifier is assigned once (a UUID) and is immutable for the life of
// the record; the persistence layer reconciles identifiers by case number on
// save so callers can never rewrite an established one. Attention and
// status are closed enumerations; any other value fails validation rather
// than being coerced.
type CaseRecord struct {
	ID              string       `json:"id"`
	CaseNumber      string       `json:"case_number" validate:"required"`
	CaseName        string       `json:"case_name"`
	CaseType        string       `json:"case_type"`
	Stage           string       `json:"stage"`
	Attention       string       `json:"attention" validate:"oneof=waiting needs_attention"`
	Status          string       `json:"status" validate:"oneof=pre-filing filed open closed archived"`
	Paralegal       string       `json:"paralegal"`
	CurrentTask     string       `json:"current_task" validate:"max=280"`
	NextDue         *string      `json:"next_due,omitempty" validate:"omitempty,duedate"`
	County          string       `json:"county"`
	Division        string       `json:"division"`
	Judge           string       `json:"judge"`
	OpposingCounsel string       `json:"opposing_counsel"`
	OpposingFirm    string       `json:"opposing_firm"`
	SolDate         *strfmt.Date `json:"sol_date"`
	Deadlines       []Deadline   `json:"deadlines"`
}

// NewRecord creates a record with a fresh identifier and the standard
// defaults for a newly opened matter.
func NewRecord(caseNumber, caseName string) CaseRecord {
	return CaseRecord{
		ID:         uuid.NewString(),
		CaseNumber: strings.TrimSpace(caseNumber),
		CaseName:   strings.TrimSpace(caseName),
		CaseType:   DefaultCaseType,
		Stage:      "Intake",
		Attention:  AttentionWaiting,
		Status:     StatusOpen,
		Deadlines:  []Deadline{},
	}
}

// Clone returns a deep copy of the record.
func (r CaseRecord) Clone() CaseRecord {
	out := r
	if r.NextDue != nil {
		nd := *r.NextDue
		out.NextDue = &nd
	}
	if r.SolDate != nil {
		sd := *r.SolDate
		out.SolDate = &sd
	}
	out.Deadlines = make([]Deadline, len(r.Deadlines))
	copy(out.Deadlines, r.Deadlines)
	return out
}

// CloneRecords deep-copies a record list.
func CloneRecords(records []CaseRecord) []CaseRecord {
	out := make([]CaseRecord, 0, len(records))
	for _, r := range records {
		out = append(out, r.Clone())
	}
	return out
}

// NextDeadline returns the earliest unresolved deadline due on or after
// asOf, or nil when none qualifies.
func (r CaseRecord) NextDeadline(asOf time.Time) *Deadline {
	day := asOf.Truncate(24 * time.Hour)
	var best *Deadline
	for i := range r.Deadlines {
		d := r.Deadlines[i]
		if d.Resolved {
			continue
		}
		due := time.Time(d.DueDate)
		if due.Before(day) {
			continue
		}
		if best == nil || due.Before(time.Time(best.DueDate)) {
			picked := d
			best = &picked
		}
	}
	return best
}

// NextDueTime parses the next_due field, reporting false when unset.
func (r CaseRecord) NextDueTime() (time.Time, bool) {
	if r.NextDue == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(dueDateLayout, *r.NextDue)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// =============================================================================
// Document
// =============================================================================

// CaseDocument is the persisted aggregate: versioning metadata plus the
// ordered record list. Record order is user-controlled ranking and is
// preserved verbatim by every load/save cycle.
type CaseDocument struct {
	SchemaVersion int          `json:"schema_version"`
	Version       int          `json:"version"`
	SavedAt       Timestamp    `json:"saved_at"`
	Cases         []CaseRecord `json:"cases"`
}

// NewDocument builds a current-schema document around the given records.
// The version counter starts at 1.
func NewDocument(cases []CaseRecord) CaseDocument {
	if cases == nil {
		cases = []CaseRecord{}
	}
	return CaseDocument{
		SchemaVersion: CurrentSchemaVersion,
		Version:       1,
		SavedAt:       Now(),
		Cases:         cases,
	}
}

// Clone returns a deep copy of the document.
func (d CaseDocument) Clone() CaseDocument {
	out := d
	out.Cases = CloneRecords(d.Cases)
	return out
}

// MarshalIndented serializes the document in the canonical on-disk form:
// two-space indentation, trailing newline omitted.
func (d CaseDocument) MarshalIndented() ([]byte, error) {
	if d.Cases == nil {
		d.Cases = []CaseRecord{}
	}
	return json.MarshalIndent(d, "", "  ")
}

// RecordsByCaseNumber indexes the document's records by case number.
// Later duplicates win, matching the reconciliation semantics of Save.
func (d CaseDocument) RecordsByCaseNumber() map[string]CaseRecord {
	index := make(map[string]CaseRecord, len(d.Cases))
	for _, r := range d.Cases {
		index[r.CaseNumber] = r
	}
	return index
}
