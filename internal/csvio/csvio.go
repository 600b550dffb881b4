// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package csvio imports and exports case records as CSV.
//
// The column set is fixed and shared between both directions, so a file
// produced by Export always round-trips through Import. Deadlines and
// statute dates are not part of the interchange format.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/caseboard/internal/schema"
)

// Fields is the fixed CSV column order for import and export.
var Fields = []string{
	"case_number",
	"case_name",
	"case_type",
	"stage",
	"attention",
	"status",
	"paralegal",
	"current_task",
	"next_due",
}

// Export writes the records to path as CSV, creating parent directories
// as needed. A nil next-due date renders as an empty cell.
func Export(path string, records []schema.CaseRecord) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.UseCRLF = true

	if err := w.Write(Fields); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(exportRow(rec)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func exportRow(rec schema.CaseRecord) []string {
	nextDue := ""
	if rec.NextDue != nil {
		nextDue = *rec.NextDue
	}
	return []string{
		rec.CaseNumber,
		rec.CaseName,
		rec.CaseType,
		rec.Stage,
		rec.Attention,
		rec.Status,
		rec.Paralegal,
		rec.CurrentTask,
		nextDue,
	}
}

// Import reads records from the CSV at path. Columns are matched by
// header name, so column order does not matter and unknown columns are
// ignored. Rows without a case number are skipped; any other validation
// failure aborts the import with the offending row number.
func Import(path string) ([]schema.CaseRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	var records []schema.CaseRecord
	for rowNum := 2; ; rowNum++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", rowNum, err)
		}

		cell := func(field string) string {
			idx, ok := columns[field]
			if !ok || idx >= len(row) {
				return ""
			}
			return row[idx]
		}

		if strings.TrimSpace(cell("case_number")) == "" {
			continue
		}

		rec := schema.CaseRecord{
			CaseNumber:  cell("case_number"),
			CaseName:    cell("case_name"),
			CaseType:    cell("case_type"),
			Stage:       cell("stage"),
			Attention:   cell("attention"),
			Status:      cell("status"),
			Paralegal:   cell("paralegal"),
			CurrentTask: cell("current_task"),
			Deadlines:   []schema.Deadline{},
		}
		if due := strings.TrimSpace(cell("next_due")); due != "" {
			rec.NextDue = &due
		}

		validated, err := schema.ValidateRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", rowNum, err)
		}
		records = append(records, validated)
	}
	return records, nil
}

// Dedupe keeps the first record for each case number, preserving the
// original order. The returned slice shares the surviving records.
func Dedupe(records []schema.CaseRecord) []schema.CaseRecord {
	seen := make(map[string]bool, len(records))
	out := make([]schema.CaseRecord, 0, len(records))
	for _, rec := range records {
		if seen[rec.CaseNumber] {
			continue
		}
		seen[rec.CaseNumber] = true
		out = append(out, rec)
	}
	return out
}

// Merge folds imported records into an existing list. A case number
// already present is replaced in place and inherits the established
// identifier; new case numbers append in import order. Later imported
// rows win when a case number repeats within the import.
func Merge(existing, imported []schema.CaseRecord) []schema.CaseRecord {
	merged := schema.CloneRecords(existing)

	index := make(map[string]int, len(merged))
	for i, rec := range merged {
		index[rec.CaseNumber] = i
	}

	for _, rec := range imported {
		if i, ok := index[rec.CaseNumber]; ok {
			rec.ID = merged[i].ID
			merged[i] = rec
			continue
		}
		merged = append(merged, rec)
		index[rec.CaseNumber] = len(merged) - 1
	}
	return merged
}
