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
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/AleutianAI/caseboard/internal/schema"
)

// maxUpcoming caps the upcoming-deadline list in the summary projection.
const maxUpcoming = 5

// UpcomingDeadline is one entry of the summary's upcoming list. It
// serializes as a two-element JSON array: [case_number, due_date].
type UpcomingDeadline struct {
	CaseNumber string
	DueDate    string
}

// MarshalJSON implements json.Marshaler.
func (u UpcomingDeadline) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{u.CaseNumber, u.DueDate})
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *UpcomingDeadline) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("upcoming entry must be [case_number, due_date]: %w", err)
	}
	u.CaseNumber, u.DueDate = pair[0], pair[1]
	return nil
}

// Summary is the derived dashboard projection written next to the data
// file after every save.
type Summary struct {
	Total          int                `json:"total"`
	Active         int                `json:"active"`
	NeedsAttention int                `json:"needs_attention"`
	Upcoming       []UpcomingDeadline `json:"upcoming"`
	SavedAt        schema.Timestamp   `json:"saved_at"`
}

// BuildSummary derives the summary projection from a document: counts of
// total, active and needs-attention records plus the five soonest
// unresolved deadlines across all cases.
func BuildSummary(doc schema.CaseDocument) Summary {
	summary := Summary{
		Total:    len(doc.Cases),
		Upcoming: []UpcomingDeadline{},
		SavedAt:  doc.SavedAt,
	}

	for _, rec := range doc.Cases {
		if schema.IsActiveStatus(rec.Status) {
			summary.Active++
		}
		if rec.Attention == schema.AttentionNeeds {
			summary.NeedsAttention++
		}
		for _, d := range rec.Deadlines {
			if d.Resolved {
				continue
			}
			summary.Upcoming = append(summary.Upcoming, UpcomingDeadline{
				CaseNumber: rec.CaseNumber,
				DueDate:    d.DueDate.String(),
			})
		}
	}

	sort.SliceStable(summary.Upcoming, func(i, j int) bool {
		return summary.Upcoming[i].DueDate < summary.Upcoming[j].DueDate
	})
	if len(summary.Upcoming) > maxUpcoming {
		summary.Upcoming = summary.Upcoming[:maxUpcoming]
	}
	return summary
}

// writeSummary persists the summary projection. The write degrades
// gracefully on filesystems that refuse renames over an open target:
// atomic rename first, then delete-and-rename, then a direct write. A
// summary failure never fails the enclosing save.
func (s *Store) writeSummary(doc schema.CaseDocument) Summary {
	summary := BuildSummary(doc)
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		slog.Warn("Failed to encode summary projection",
			"error", err)
		return summary
	}

	if err := writeFileAtomic(s.cfg.SummaryFile, data); err == nil {
		return summary
	}

	if err := os.Remove(s.cfg.SummaryFile); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove stale summary file",
			"path", s.cfg.SummaryFile,
			"error", err)
	}
	if err := writeFileAtomic(s.cfg.SummaryFile, data); err == nil {
		slog.Debug("Summary written after delete-and-rename fallback",
			"path", s.cfg.SummaryFile)
		return summary
	}

	if err := os.WriteFile(s.cfg.SummaryFile, data, 0644); err != nil {
		slog.Warn("Failed to write summary projection",
			"path", s.cfg.SummaryFile,
			"error", err)
	} else {
		slog.Debug("Summary written via direct-write fallback",
			"path", s.cfg.SummaryFile)
	}
	return summary
}

// LoadSummary reads the persisted summary projection.
func (s *Store) LoadSummary() (Summary, error) {
	data, err := os.ReadFile(s.cfg.SummaryFile)
	if err != nil {
		return Summary{}, fmt.Errorf("read summary: %w", err)
	}
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return Summary{}, fmt.Errorf("decode summary: %w", err)
	}
	return summary, nil
}
