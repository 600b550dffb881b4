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
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/AleutianAI/caseboard/internal/schema"
)

// migrationStep upgrades a raw document from one schema version to the
// next. Steps are pure: they return an upgraded copy and never touch disk.
type migrationStep struct {
	from  int
	to    int
	apply func(doc map[string]any) (map[string]any, error)
}

// migrationSteps is ordered by target version. The engine applies every
// step whose target exceeds the document's declared version.
var migrationSteps = []migrationStep{
	{from: 1, to: 2, apply: migrateV1ToV2},
}

// migrateV1ToV2 introduces the version counter and save timestamp and
// normalizes every case payload through current validation.
func migrateV1ToV2(doc map[string]any) (map[string]any, error) {
	out := maps.Clone(doc)
	if _, ok := out["version"]; !ok {
		out["version"] = 1
	}
	out["schema_version"] = 2
	if _, ok := out["saved_at"]; !ok {
		out["saved_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	}

	rawCases, _ := out["cases"].([]any)
	cases := make([]any, 0, len(rawCases))
	for _, item := range rawCases {
		payload, ok := item.(map[string]any)
		if !ok {
			return nil, &MigrationError{FromVersion: 1, Err: fmt.Errorf("case payload is not an object")}
		}
		rec, err := schema.RecordFromRaw(payload)
		if err != nil {
			return nil, &MigrationError{FromVersion: 1, Record: payload, Err: err}
		}
		normalized, err := recordToRaw(rec)
		if err != nil {
			return nil, &MigrationError{FromVersion: 1, Record: payload, Err: err}
		}
		cases = append(cases, normalized)
	}
	out["cases"] = cases
	return out, nil
}

// recordToRaw round-trips a validated record back into the raw document
// representation.
func recordToRaw(rec schema.CaseRecord) (map[string]any, error) {
	encoded, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(encoded, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// migrate upgrades a raw document to the current schema, writes a unified
// diff of the rewrite into the migrations directory, and atomically
// replaces the data file. Re-running a migration over already-migrated
// content produces an identical document, so the operation is idempotent.
func (s *Store) migrate(raw map[string]any, original []byte, fromVersion int) (schema.CaseDocument, error) {
	doc := raw
	for _, step := range migrationSteps {
		if fromVersion >= step.to {
			continue
		}
		next, err := step.apply(doc)
		if err != nil {
			migrationTotal.WithLabelValues("error").Inc()
			if _, ok := err.(*MigrationError); ok {
				return schema.CaseDocument{}, err
			}
			return schema.CaseDocument{}, &MigrationError{FromVersion: step.from, Err: err}
		}
		doc = next
	}

	model, err := schema.DocumentFromRaw(doc)
	if err != nil {
		migrationTotal.WithLabelValues("error").Inc()
		return schema.CaseDocument{}, &MigrationError{FromVersion: fromVersion, Err: err}
	}

	migrated, err := model.MarshalIndented()
	if err != nil {
		migrationTotal.WithLabelValues("error").Inc()
		return schema.CaseDocument{}, &MigrationError{FromVersion: fromVersion, Err: err}
	}

	if err := s.writeMigrationDiff(original, migrated); err != nil {
		migrationTotal.WithLabelValues("error").Inc()
		return schema.CaseDocument{}, err
	}
	if err := writeFileAtomic(s.cfg.DataFile, migrated); err != nil {
		migrationTotal.WithLabelValues("error").Inc()
		return schema.CaseDocument{}, fmt.Errorf("write migrated document: %w", err)
	}

	migrationTotal.WithLabelValues("success").Inc()
	slog.Info("Migrated case document",
		"from_version", fromVersion,
		"to_version", schema.CurrentSchemaVersion,
		"cases", len(model.Cases))
	return model, nil
}

// writeMigrationDiff records a unified diff of the migration rewrite so
// operators can review exactly what changed.
func (s *Store) writeMigrationDiff(original, migrated []byte) error {
	if err := os.MkdirAll(s.cfg.MigrationsDir, 0755); err != nil {
		return fmt.Errorf("create migrations dir: %w", err)
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(original)),
		B:        difflib.SplitLines(string(migrated)),
		FromFile: "cases.json (old)",
		ToFile:   "cases.json (new)",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Errorf("render migration diff: %w", err)
	}

	name := fmt.Sprintf("cases-%s.diff", time.Now().UTC().Format(backupTimeFormat))
	path := filepath.Join(s.cfg.MigrationsDir, name)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("write migration diff %s: %w", path, err)
	}
	return nil
}

// MigrationDiffs returns the recorded migration diff paths, oldest first.
func (s *Store) MigrationDiffs() []string {
	entries, err := os.ReadDir(s.cfg.MigrationsDir)
	if err != nil {
		return nil
	}
	var diffs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "cases-") && strings.HasSuffix(name, ".diff") {
			diffs = append(diffs, filepath.Join(s.cfg.MigrationsDir, name))
		}
	}
	sort.Strings(diffs)
	return diffs
}
