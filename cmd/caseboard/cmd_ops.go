// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/caseboard/cmd/caseboard/config"
	"github.com/AleutianAI/caseboard/internal/datastore"
	"github.com/AleutianAI/caseboard/internal/schema"
	"github.com/charmbracelet/lipgloss"
	"github.com/sourcegraph/go-diff/diff"
	"github.com/spf13/cobra"
)

// staleLockAge is how old a lock file must be before doctor flags it.
// A healthy save holds the lock for well under a second.
const staleLockAge = 10 * time.Minute

func runBackupsList(cmd *cobra.Command, args []string) {
	store := openStore()
	backups := store.ListBackups()
	if len(backups) == 0 {
		fmt.Println("No backups recorded.")
		return
	}

	now := time.Now()
	// Newest first reads better on a terminal.
	for i := len(backups) - 1; i >= 0; i-- {
		path := backups[i]
		info, err := os.Stat(path)
		if err != nil {
			fmt.Printf("%-42s (unreadable: %v)\n", filepath.Base(path), err)
			continue
		}
		fmt.Printf("%-42s %10s  %s old\n",
			filepath.Base(path), formatSize(info.Size()), formatAge(now.Sub(info.ModTime())))
	}
	fmt.Printf("\n%d backups in %s\n", len(backups), store.Config().BackupDir)
}

func runBackupsPrune(cmd *cobra.Command, args []string) {
	keep := backupsKeep
	if keep <= 0 {
		keep = config.Global.Data.BackupKeep
	}
	if keep <= 0 {
		log.Fatalf("A positive keep count is required (flag --keep or config data.backup_keep)")
	}

	store := openStore()
	removed, err := store.PruneBackups(keep)
	if err != nil {
		log.Fatalf("Failed to prune backups: %v", err)
	}
	if len(removed) == 0 {
		fmt.Printf("Nothing to prune; %d or fewer backups on disk.\n", keep)
		return
	}
	fmt.Printf("Pruned %d backup(s), keeping the newest %d.\n", len(removed), keep)
}

var (
	diffAddedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3bee9d"))
	diffRemovedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6464"))
	diffHunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#33aaff"))
)

func runMigrationsShow(cmd *cobra.Command, args []string) {
	store := openStore()

	var path string
	if len(args) == 1 {
		path = args[0]
		if _, err := os.Stat(path); err != nil {
			// Bare file names resolve inside the migrations directory.
			alt := filepath.Join(store.Config().MigrationsDir, path)
			if _, altErr := os.Stat(alt); altErr == nil {
				path = alt
			}
		}
	} else {
		diffs := store.MigrationDiffs()
		if len(diffs) == 0 {
			fmt.Println("No migration diffs recorded.")
			return
		}
		path = diffs[len(diffs)-1]
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read the diff: %v", err)
	}
	fileDiffs, err := diff.NewMultiFileDiffReader(bytes.NewReader(raw)).ReadAllFiles()
	if err != nil {
		log.Fatalf("Failed to parse the diff %s: %v", path, err)
	}

	added, removed := diffStats(fileDiffs)
	fmt.Printf("%s: %s %s\n\n", filepath.Base(path),
		diffAddedStyle.Render(fmt.Sprintf("+%d", added)),
		diffRemovedStyle.Render(fmt.Sprintf("-%d", removed)))

	for _, fd := range fileDiffs {
		for _, hunk := range fd.Hunks {
			fmt.Println(diffHunkStyle.Render(fmt.Sprintf("@@ -%d,%d +%d,%d @@",
				hunk.OrigStartLine, hunk.OrigLines, hunk.NewStartLine, hunk.NewLines)))
			for _, line := range strings.Split(strings.TrimRight(string(hunk.Body), "\n"), "\n") {
				switch {
				case strings.HasPrefix(line, "+"):
					fmt.Println(diffAddedStyle.Render(line))
				case strings.HasPrefix(line, "-"):
					fmt.Println(diffRemovedStyle.Render(line))
				default:
					fmt.Println(line)
				}
			}
		}
	}
}

// diffStats counts added and removed lines across all hunks.
func diffStats(fileDiffs []*diff.FileDiff) (added, removed int) {
	for _, fd := range fileDiffs {
		for _, hunk := range fd.Hunks {
			for _, line := range strings.Split(string(hunk.Body), "\n") {
				if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
					added++
				} else if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---") {
					removed++
				}
			}
		}
	}
	return added, removed
}

func runAuditTail(cmd *cobra.Command, args []string) {
	store := openStore()
	lines, err := store.TailAudit(auditLines)
	if err != nil {
		log.Fatalf("Failed to read the audit log: %v", err)
	}
	if len(lines) == 0 {
		fmt.Println("Audit log is empty.")
		return
	}
	for _, line := range lines {
		fmt.Println(line)
	}
}

func runSummary(cmd *cobra.Command, args []string) {
	store := openStore()
	summary, err := store.LoadSummary()
	if err != nil {
		// No projection on disk yet; derive one from the document.
		doc, readErr := store.Read(context.Background())
		if readErr != nil {
			log.Fatalf("Failed to read the case document: %v", readErr)
		}
		summary = datastore.BuildSummary(doc)
	}

	fmt.Printf("Total cases:      %d\n", summary.Total)
	fmt.Printf("Active:           %d\n", summary.Active)
	fmt.Printf("Needs attention:  %d\n", summary.NeedsAttention)
	if !summary.SavedAt.IsZero() {
		fmt.Printf("Saved at:         %s\n", summary.SavedAt.Format(time.RFC3339))
	}
	if len(summary.Upcoming) > 0 {
		fmt.Println("\nUpcoming deadlines:")
		for _, u := range summary.Upcoming {
			fmt.Printf("  %-14s due %s\n", u.CaseNumber, u.DueDate)
		}
	}
}

// doctorCheck is one line of doctor output.
type doctorCheck struct {
	name   string
	ok     bool
	detail string
}

func runDoctor(cmd *cobra.Command, args []string) {
	dataDir := resolvedDataDir()
	checks := doctorChecks(datastore.DefaultConfig(dataDir), time.Now())

	fmt.Printf("Checking %s\n\n", dataDir)
	problems := 0
	for _, c := range checks {
		mark := "✅"
		if !c.ok {
			mark = "⚠️ "
			problems++
		}
		fmt.Printf("%s %-16s %s\n", mark, c.name, c.detail)
	}
	if problems == 0 {
		fmt.Println("\nAll checks passed.")
		return
	}
	fmt.Printf("\n%d problem(s) found.\n", problems)
	os.Exit(1)
}

// doctorChecks runs the read-only health checks. Nothing here acquires
// the lock or rewrites files, so doctor is safe to run while another
// caseboard holds the data directory.
func doctorChecks(cfg datastore.Config, now time.Time) []doctorCheck {
	var checks []doctorCheck

	// The data file is inspected raw so a pre-migration document does
	// not trip the parse check.
	var rawDoc map[string]any
	raw, err := os.ReadFile(cfg.DataFile)
	switch {
	case os.IsNotExist(err):
		checks = append(checks, doctorCheck{"data file", true, "not created yet; the first load writes an empty document"})
	case err != nil:
		checks = append(checks, doctorCheck{"data file", false, fmt.Sprintf("unreadable: %v", err)})
	default:
		if jsonErr := json.Unmarshal(raw, &rawDoc); jsonErr != nil {
			rawDoc = nil
			checks = append(checks, doctorCheck{"data file", false, fmt.Sprintf("does not parse: %v", jsonErr)})
		} else {
			checks = append(checks, doctorCheck{"data file", true, fmt.Sprintf("%d cases", len(rawCases(rawDoc)))})
		}
	}

	if rawDoc != nil {
		version := rawVersion(rawDoc)
		switch {
		case version == schema.CurrentSchemaVersion:
			checks = append(checks, doctorCheck{"schema version", true, fmt.Sprintf("current (v%d)", version)})
		case version < schema.CurrentSchemaVersion:
			checks = append(checks, doctorCheck{"schema version", true,
				fmt.Sprintf("v%d; migrates to v%d on the next load", version, schema.CurrentSchemaVersion)})
		default:
			checks = append(checks, doctorCheck{"schema version", false,
				fmt.Sprintf("v%d is newer than this build understands (v%d)", version, schema.CurrentSchemaVersion)})
		}

		checks = append(checks, duplicateCheck(rawCases(rawDoc)))
	}

	var missing []string
	for _, dir := range []string{cfg.BackupDir, cfg.MigrationsDir} {
		if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
			missing = append(missing, filepath.Base(dir))
		}
	}
	if len(missing) == 0 {
		checks = append(checks, doctorCheck{"directories", true, "backups and migrations present"})
	} else {
		checks = append(checks, doctorCheck{"directories", true,
			fmt.Sprintf("%s missing; created on demand", strings.Join(missing, ", "))})
	}

	if info, statErr := os.Stat(cfg.LockFile); statErr == nil {
		age := now.Sub(info.ModTime())
		if age > staleLockAge {
			checks = append(checks, doctorCheck{"lock file", false,
				fmt.Sprintf("%s old; if no caseboard is running, delete %s", formatAge(age), cfg.LockFile)})
		} else {
			checks = append(checks, doctorCheck{"lock file", true,
				fmt.Sprintf("present (%s old); another caseboard may be mid-save", formatAge(age))})
		}
	} else {
		checks = append(checks, doctorCheck{"lock file", true, "none"})
	}

	return checks
}

// duplicateCheck scans both identifier spaces: case numbers, which
// dedupe can repair, and internal ids, which corrupt focus histories
// when shared.
func duplicateCheck(cases []map[string]any) doctorCheck {
	numbers := make(map[string]int)
	ids := make(map[string]int)
	for _, rec := range cases {
		if num, ok := rec["case_number"].(string); ok && num != "" {
			numbers[num]++
		}
		if id, ok := rec["id"].(string); ok && id != "" {
			ids[id]++
		}
	}

	var dupes []string
	for num, n := range numbers {
		if n > 1 {
			dupes = append(dupes, num)
		}
	}
	sort.Strings(dupes)

	sharedIDs := 0
	for _, n := range ids {
		if n > 1 {
			sharedIDs++
		}
	}

	switch {
	case len(dupes) > 0:
		return doctorCheck{"identifiers", false,
			fmt.Sprintf("%d case number(s) repeat: %s (run caseboard dedupe)", len(dupes), strings.Join(dupes, ", "))}
	case sharedIDs > 0:
		return doctorCheck{"identifiers", false,
			fmt.Sprintf("%d internal id(s) are shared between records; re-import to reassign them", sharedIDs)}
	default:
		return doctorCheck{"identifiers", true, "case numbers and internal ids are unique"}
	}
}

// rawVersion mirrors the loader's default: documents that predate the
// schema_version field are treated as v1.
func rawVersion(doc map[string]any) int {
	if v, ok := doc["schema_version"].(float64); ok {
		return int(v)
	}
	return 1
}

// rawCases extracts the case list from an untyped document.
func rawCases(doc map[string]any) []map[string]any {
	list, ok := doc["cases"].([]any)
	if !ok {
		return nil
	}
	cases := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if rec, ok := item.(map[string]any); ok {
			cases = append(cases, rec)
		}
	}
	return cases
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("caseboard %s\n", version)
	fmt.Printf("  commit: %s\n", commit)
	fmt.Printf("  built:  %s\n", date)
	fmt.Printf("  go:     %s\n", runtime.Version())
}
