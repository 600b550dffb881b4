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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/AleutianAI/caseboard/internal/schema"
)

// farFuture ranks cases without a pending deadline behind every dated one.
const farFuture = 9999

// radarLimit caps the deadline radar at the nearest few entries.
const radarLimit = 6

// rankedCase is one record plus its precomputed board sort key.
type rankedCase struct {
	record   schema.CaseRecord
	deadline *schema.Deadline
	days     int
}

// sortCases orders records the way the wall board lists them: cases
// needing attention first, then by nearest pending deadline, active
// statuses before closed ones, and finally by case name. The sort is
// stable so equal cases keep their document order.
func sortCases(cases []schema.CaseRecord, today time.Time) []rankedCase {
	ranked := make([]rankedCase, 0, len(cases))
	for _, rec := range cases {
		rc := rankedCase{record: rec, days: farFuture}
		if d := rec.NextDeadline(today); d != nil {
			rc.deadline = d
			rc.days = daysUntil(d.DueDate, today)
		}
		ranked = append(ranked, rc)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if ar, br := attentionRank(a.record), attentionRank(b.record); ar != br {
			return ar < br
		}
		if a.days != b.days {
			return a.days < b.days
		}
		if ar, br := statusRank(a.record), statusRank(b.record); ar != br {
			return ar < br
		}
		return strings.ToLower(a.record.CaseName) < strings.ToLower(b.record.CaseName)
	})
	return ranked
}

func attentionRank(rec schema.CaseRecord) int {
	if rec.Attention == schema.AttentionNeeds {
		return 0
	}
	return 1
}

func statusRank(rec schema.CaseRecord) int {
	if schema.IsActiveStatus(rec.Status) {
		return 0
	}
	return 1
}

// daysUntil counts whole days from today to the due date. Both sides
// are truncated to their calendar day so partial hours never shift the
// count.
func daysUntil(due strfmt.Date, today time.Time) int {
	day := today.Truncate(24 * time.Hour)
	return int(time.Time(due).Sub(day).Hours() / 24)
}

// urgencyLabel renders the radar's countdown tag.
func urgencyLabel(days int) string {
	switch {
	case days < 0:
		return "OVERDUE"
	case days == 0:
		return "TODAY"
	case days == 1:
		return "1 DAY"
	default:
		return fmt.Sprintf("%d DAYS", days)
	}
}

// radarEntry is one line of the deadline radar.
type radarEntry struct {
	caseName    string
	due         time.Time
	description string
	days        int
}

// radarEntries picks the soonest pending deadlines across the whole
// caseload, at most limit of them.
func radarEntries(ranked []rankedCase, limit int) []radarEntry {
	entries := make([]radarEntry, 0, len(ranked))
	for _, rc := range ranked {
		if rc.deadline == nil {
			continue
		}
		entries = append(entries, radarEntry{
			caseName:    rc.record.CaseName,
			due:         time.Time(rc.deadline.DueDate),
			description: rc.deadline.Description,
			days:        rc.days,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].days < entries[j].days })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// typeCount pairs a practice area with its caseload.
type typeCount struct {
	name  string
	count int
}

// topPracticeAreas returns the n busiest practice areas, busiest
// first. Ties break alphabetically so the panel doesn't shuffle
// between refreshes.
func topPracticeAreas(counts map[string]int, n int) []typeCount {
	out := make([]typeCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, typeCount{name: name, count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
