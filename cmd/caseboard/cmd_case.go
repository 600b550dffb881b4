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
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"strings"

	"github.com/AleutianAI/caseboard/internal/datastore"
	"github.com/AleutianAI/caseboard/internal/focuslog"
	"github.com/AleutianAI/caseboard/internal/schema"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func runCaseList(cmd *cobra.Command, args []string) {
	store := openStore()
	doc, err := store.Read(context.Background())
	if err != nil {
		log.Fatalf("Failed to read the case document: %v", err)
	}

	cases := filterCases(doc.Cases, strings.ToLower(listStatus), strings.ToLower(listAttention))
	if len(cases) == 0 {
		fmt.Println("No cases match.")
		return
	}

	format := "%-14s %-30s %-20s %-12s %-6s %-10s %-14s %-11s %s\n"
	fmt.Printf(format, "CASE NO", "NAME", "TYPE", "STAGE", "ATTN", "STATUS", "PARALEGAL", "NEXT DUE", "FOCUS")
	for _, rec := range cases {
		attn := "wait"
		if rec.Attention == schema.AttentionNeeds {
			attn = "ALERT"
		}
		nextDue := ""
		if rec.NextDue != nil {
			nextDue = *rec.NextDue
		}
		fmt.Printf(format,
			rec.CaseNumber, clip(rec.CaseName, 30), clip(rec.CaseType, 20), clip(rec.Stage, 12),
			attn, rec.Status, clip(rec.Paralegal, 14), nextDue, clip(rec.CurrentTask, 40))
	}
	fmt.Printf("\n%d of %d cases shown\n", len(cases), len(doc.Cases))
}

// filterCases keeps the records matching the given status and attention
// values. Empty filters match everything.
func filterCases(cases []schema.CaseRecord, status, attention string) []schema.CaseRecord {
	if status == "" && attention == "" {
		return cases
	}
	out := make([]schema.CaseRecord, 0, len(cases))
	for _, rec := range cases {
		if status != "" && rec.Status != status {
			continue
		}
		if attention != "" && rec.Attention != attention {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func runCaseAdd(cmd *cobra.Command, args []string) {
	store := openStore()
	ctx := context.Background()
	doc, err := store.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load the case document: %v", err)
	}

	existing := doc.RecordsByCaseNumber()
	var caseNumber, caseName, caseType string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Case number").
			Description("Court docket or intake number, e.g. 24-CV-0117").
			Value(&caseNumber).
			Validate(func(s string) error {
				cleaned := schema.CleanText(s)
				if cleaned == "" {
					return errors.New("case number is required")
				}
				if _, ok := existing[cleaned]; ok {
					return fmt.Errorf("case %s already exists", cleaned)
				}
				return nil
			}),
		huh.NewInput().
			Title("Case name").
			Description("Style of the case, e.g. Doe v. Acme Trucking").
			Value(&caseName).
			Validate(func(s string) error {
				if schema.CleanText(s) == "" {
					return errors.New("case name is required")
				}
				return nil
			}),
		huh.NewSelect[string]().
			Title("Case type").
			Options(huh.NewOptions(schema.CaseTypeChoices(doc.Cases)...)...).
			Value(&caseType),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("Aborted.")
			return
		}
		log.Fatalf("Case form failed: %v", err)
	}

	rec := schema.NewRecord(schema.CleanText(caseNumber), schema.CleanText(caseName))
	rec.CaseType = caseType
	rec, err = schema.ValidateRecord(rec)
	if err != nil {
		log.Fatalf("Invalid case: %v", err)
	}

	cases := append(schema.CloneRecords(doc.Cases), rec)
	result, err := store.Save(ctx, cases, datastore.SaveOptions{
		Actor:  currentActor(),
		Action: "add-case",
	})
	if err != nil {
		log.Fatalf("Failed to save the new case: %v", err)
	}
	fmt.Printf("Added %s (%s). The board now tracks %d cases at version %d.\n",
		rec.CaseNumber, rec.CaseName, len(cases), result.Version)
	mirrorAfterSave(ctx, store)
}

func runCaseFocus(cmd *cobra.Command, args []string) {
	caseNumber := schema.CleanText(args[0])
	store := openStore()
	ctx := context.Background()

	if len(args) == 1 {
		showFocusHistory(ctx, store, caseNumber)
		return
	}

	focus := schema.CleanTextMax(strings.Join(args[1:], " "), schema.MaxFocusLength)
	doc, err := store.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load the case document: %v", err)
	}

	cases := schema.CloneRecords(doc.Cases)
	idx := indexByCaseNumber(cases, caseNumber)
	if idx < 0 {
		log.Fatalf("No case with number %s", caseNumber)
	}
	cases[idx].CurrentTask = focus

	result, err := store.Save(ctx, cases, datastore.SaveOptions{
		Actor:  currentActor(),
		Action: "field-change",
	})
	if err != nil {
		log.Fatalf("Failed to save the focus change: %v", err)
	}

	if flog, flErr := openFocusLog(); flErr != nil {
		slog.Warn("focus history unavailable", "error", flErr)
	} else if appendErr := flog.Append(cases[idx].ID, caseNumber, focus, currentActor()); appendErr != nil {
		slog.Warn("focus history append failed", "error", appendErr)
	}

	fmt.Printf("Focus for %s: %s (version %d)\n", caseNumber, focus, result.Version)
	mirrorAfterSave(ctx, store)
}

// showFocusHistory prints the recent focus entries for one case.
func showFocusHistory(ctx context.Context, store *datastore.Store, caseNumber string) {
	doc, err := store.Read(ctx)
	if err != nil {
		log.Fatalf("Failed to read the case document: %v", err)
	}
	idx := indexByCaseNumber(doc.Cases, caseNumber)
	if idx < 0 {
		log.Fatalf("No case with number %s", caseNumber)
	}
	rec := doc.Cases[idx]

	flog, err := openFocusLog()
	if err != nil {
		log.Fatalf("Focus history unavailable: %v", err)
	}
	entries := flog.Recent(rec.ID, rec.CaseNumber, focuslog.DefaultRecentLimit)
	if len(entries) == 0 {
		fmt.Printf("No focus history recorded for %s.\n", caseNumber)
		return
	}

	fmt.Printf("Recent focus for %s (%s):\n", rec.CaseNumber, rec.CaseName)
	for _, e := range entries {
		fmt.Printf("  %s  %-12s %s\n", e.Timestamp.Format("2006-01-02 15:04"), e.Actor, e.FocusText)
	}
}

// indexByCaseNumber finds a record position by case number, -1 when absent.
func indexByCaseNumber(cases []schema.CaseRecord, caseNumber string) int {
	for i := range cases {
		if cases[i].CaseNumber == caseNumber {
			return i
		}
	}
	return -1
}
