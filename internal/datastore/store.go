// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datastore persists the case document and its derived artifacts.
//
// # Description
//
// The store owns a small file family rooted at one data directory: the
// authoritative cases.json, a sidecar lock, timestamped backups, schema
// migration diffs, an append-only audit log, a summary projection, and a
// marker file touched after every save. All writes to the document go
// through an atomic temp-file-and-rename, so readers never observe a
// partial file.
//
// Load classifies failures precisely: a held lock surfaces as
// DataLockError, unparseable JSON as CorruptDataError with the available
// backups attached, and well-formed JSON with bad values as a validation
// error. Documents declaring an older schema version are migrated in
// place with a recorded diff.
//
// # Thread Safety
//
// A Store is safe for concurrent use. Cross-process safety comes from the
// advisory file lock; in-process the cached baseline is mutex-guarded.
package datastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/caseboard/internal/lock"
	"github.com/AleutianAI/caseboard/internal/schema"
)

var tracer = otel.Tracer("caseboard.datastore")

// Store persists and loads the case document.
type Store struct {
	cfg Config

	mu      sync.Mutex
	current *schema.CaseDocument
}

// SaveOptions customizes a save. Zero values mean actor "system" and
// action "autosave" with the cached baseline.
type SaveOptions struct {
	// Actor is recorded in every audit line produced by this save.
	Actor string

	// Action names the save trigger (autosave, manual, import, ...).
	// Used for logging and metrics only; audit lines do not carry it.
	Action string

	// Previous overrides the change-detection baseline. When nil the
	// cached document from the last load or save is used, falling back
	// to a fresh read.
	Previous *schema.CaseDocument
}

// SaveResult reports what a save produced.
type SaveResult struct {
	SavedAt      schema.Timestamp
	Version      int
	AuditEntries []string
	Summary      Summary
	FilePath     string
}

// New creates a Store over the given file layout.
func New(cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("datastore config: %w", err)
	}
	return &Store{cfg: cfg}, nil
}

// Config returns the store's file layout.
func (s *Store) Config() Config {
	return s.cfg
}

// Load reads, validates and caches the case document, snapshotting the
// current file into the backup directory first. A missing data file is
// initialized to an empty document.
func (s *Store) Load(ctx context.Context) (schema.CaseDocument, error) {
	return s.load(ctx, true)
}

// Read is Load without the backup snapshot. Read-only surfaces that
// reload frequently use it so they do not flood the backup directory.
func (s *Store) Read(ctx context.Context) (schema.CaseDocument, error) {
	return s.load(ctx, false)
}

func (s *Store) load(ctx context.Context, createBackup bool) (schema.CaseDocument, error) {
	ctx, span := tracer.Start(ctx, "datastore.load",
		trace.WithAttributes(attribute.Bool("create_backup", createBackup)))
	defer span.End()

	if err := os.MkdirAll(filepath.Dir(s.cfg.DataFile), 0755); err != nil {
		loadTotal.WithLabelValues("error").Inc()
		return schema.CaseDocument{}, fmt.Errorf("create data dir: %w", err)
	}

	// Initialize a missing data file so first run behaves like any other.
	if _, err := os.Stat(s.cfg.DataFile); os.IsNotExist(err) {
		empty := schema.NewDocument(nil)
		data, err := empty.MarshalIndented()
		if err != nil {
			loadTotal.WithLabelValues("error").Inc()
			return schema.CaseDocument{}, fmt.Errorf("encode empty document: %w", err)
		}
		if err := writeFileAtomic(s.cfg.DataFile, data); err != nil {
			loadTotal.WithLabelValues("error").Inc()
			return schema.CaseDocument{}, fmt.Errorf("initialize data file: %w", err)
		}
		slog.Info("Initialized empty case document",
			"path", s.cfg.DataFile)
	}

	guard, err := lock.Acquire(ctx, s.cfg.LockFile, s.cfg.LockTimeout)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			loadTotal.WithLabelValues("locked").Inc()
			span.SetStatus(codes.Error, "data lock held")
			return schema.CaseDocument{}, &DataLockError{Path: s.cfg.DataFile, Err: err}
		}
		loadTotal.WithLabelValues("error").Inc()
		return schema.CaseDocument{}, err
	}

	raw, err := os.ReadFile(s.cfg.DataFile)
	if err != nil {
		guard.Release()
		loadTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		return schema.CaseDocument{}, fmt.Errorf("read data file: %w", err)
	}
	if createBackup {
		if err := s.createBackup(raw); err != nil {
			guard.Release()
			loadTotal.WithLabelValues("error").Inc()
			span.RecordError(err)
			return schema.CaseDocument{}, err
		}
	}
	// Parsing happens outside the lock; only the read needs serializing.
	if err := guard.Release(); err != nil {
		slog.Warn("Failed to release data lock",
			"error", err)
	}

	rawDoc, err := decodeRawDocument(raw)
	if err != nil {
		loadTotal.WithLabelValues("corrupt").Inc()
		span.SetStatus(codes.Error, "corrupt data file")
		return schema.CaseDocument{}, &CorruptDataError{
			Path:    filepath.Base(s.cfg.DataFile),
			Backups: s.ListBackups(),
			Err:     err,
		}
	}

	schemaVersion := rawSchemaVersion(rawDoc)
	if schemaVersion < schema.CurrentSchemaVersion {
		span.AddEvent("schema migration required")
		doc, err := s.migrate(rawDoc, raw, schemaVersion)
		if err != nil {
			loadTotal.WithLabelValues("error").Inc()
			span.RecordError(err)
			return schema.CaseDocument{}, err
		}
		s.setCurrent(doc)
		loadTotal.WithLabelValues("success").Inc()
		return doc, nil
	}

	doc, err := schema.DocumentFromRaw(rawDoc)
	if err != nil {
		loadTotal.WithLabelValues("invalid").Inc()
		span.SetStatus(codes.Error, "document validation failed")
		return schema.CaseDocument{}, fmt.Errorf("data file validation failed: %w", err)
	}

	s.setCurrent(doc)
	loadTotal.WithLabelValues("success").Inc()
	return doc, nil
}

// Save validates and persists a new record list, deriving the summary,
// audit lines and change marker under one lock acquisition.
//
// The baseline document (see SaveOptions.Previous) drives identifier
// reconciliation and audit diffing: records matching a baseline case
// number always keep the established identifier, and only actual field
// changes produce audit lines. The document version increments by one on
// every save.
func (s *Store) Save(ctx context.Context, cases []schema.CaseRecord, opts SaveOptions) (SaveResult, error) {
	start := time.Now()
	actor := opts.Actor
	if actor == "" {
		actor = "system"
	}
	action := opts.Action
	if action == "" {
		action = "autosave"
	}

	ctx, span := tracer.Start(ctx, "datastore.save",
		trace.WithAttributes(
			attribute.String("action", action),
			attribute.Int("cases", len(cases))))
	defer span.End()

	validated := make([]schema.CaseRecord, 0, len(cases))
	for i, rec := range cases {
		v, err := schema.ValidateRecord(rec)
		if err != nil {
			saveTotal.WithLabelValues(action, "error").Inc()
			span.SetStatus(codes.Error, "record validation failed")
			return SaveResult{}, fmt.Errorf("case %d: %w", i, err)
		}
		validated = append(validated, v)
	}

	previous := opts.Previous
	if previous == nil {
		previous = s.currentDoc()
	}
	if previous == nil {
		baseline, err := s.load(ctx, false)
		if err != nil {
			saveTotal.WithLabelValues(action, "error").Inc()
			return SaveResult{}, fmt.Errorf("establish baseline: %w", err)
		}
		previous = &baseline
	}

	doc := schema.CaseDocument{
		SchemaVersion: schema.CurrentSchemaVersion,
		Version:       previous.Version + 1,
		SavedAt:       schema.Now(),
		Cases:         hydrateIdentifiers(validated, *previous),
	}

	payload, err := doc.MarshalIndented()
	if err != nil {
		saveTotal.WithLabelValues(action, "error").Inc()
		return SaveResult{}, fmt.Errorf("encode document: %w", err)
	}
	lines := buildAuditLines(*previous, doc, actor)

	guard, err := lock.Acquire(ctx, s.cfg.LockFile, s.cfg.LockTimeout)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			saveTotal.WithLabelValues(action, "locked").Inc()
			span.SetStatus(codes.Error, "data lock held")
			return SaveResult{}, &DataLockError{Path: s.cfg.DataFile, Err: err}
		}
		saveTotal.WithLabelValues(action, "error").Inc()
		return SaveResult{}, err
	}
	defer guard.Release()

	if err := writeFileAtomic(s.cfg.DataFile, payload); err != nil {
		saveTotal.WithLabelValues(action, "error").Inc()
		span.RecordError(err)
		return SaveResult{}, fmt.Errorf("write data file: %w", err)
	}
	summary := s.writeSummary(doc)
	if err := s.appendAudit(lines); err != nil {
		saveTotal.WithLabelValues(action, "error").Inc()
		span.RecordError(err)
		return SaveResult{}, err
	}
	if err := s.touchMarker(); err != nil {
		saveTotal.WithLabelValues(action, "error").Inc()
		span.RecordError(err)
		return SaveResult{}, err
	}

	if err := guard.Release(); err != nil {
		slog.Warn("Failed to release data lock",
			"error", err)
	}

	s.setCurrent(doc)
	saveTotal.WithLabelValues(action, "success").Inc()
	saveDuration.Observe(time.Since(start).Seconds())

	entries := make([]string, len(lines))
	for i, line := range lines {
		entries[i] = line.text
	}
	slog.Debug("Saved case document",
		"action", action,
		"actor", actor,
		"version", doc.Version,
		"cases", len(doc.Cases),
		"audit_lines", len(entries))

	return SaveResult{
		SavedAt:      doc.SavedAt,
		Version:      doc.Version,
		AuditEntries: entries,
		Summary:      summary,
		FilePath:     s.cfg.DataFile,
	}, nil
}

// Current returns the cached document from the last load or save, or
// false when nothing has been loaded yet.
func (s *Store) Current() (schema.CaseDocument, bool) {
	if doc := s.currentDoc(); doc != nil {
		return doc.Clone(), true
	}
	return schema.CaseDocument{}, false
}

func (s *Store) currentDoc() *schema.CaseDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Store) setCurrent(doc schema.CaseDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &doc
}

// hydrateIdentifiers reconciles caller records with the baseline by case
// number: a record matching an existing case always keeps the
// established identifier, regardless of what the caller supplied.
func hydrateIdentifiers(cases []schema.CaseRecord, previous schema.CaseDocument) []schema.CaseRecord {
	byNumber := previous.RecordsByCaseNumber()
	out := make([]schema.CaseRecord, 0, len(cases))
	for _, rec := range cases {
		if base, ok := byNumber[rec.CaseNumber]; ok {
			rec.ID = base.ID
		}
		out = append(out, rec)
	}
	return out
}

// touchMarker rewrites the change marker with the current UTC time so
// pollers and watchers see every save.
func (s *Store) touchMarker() error {
	stamp := time.Now().UTC().Format(time.RFC3339Nano)
	if err := os.WriteFile(s.cfg.MarkerFile, []byte(stamp), 0644); err != nil {
		return fmt.Errorf("touch marker: %w", err)
	}
	return nil
}

// decodeRawDocument parses the data file into a raw map. JSON syntax
// failures here are the corruption signal; value-level problems surface
// later during typed validation.
func decodeRawDocument(raw []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// rawSchemaVersion extracts the declared schema version, defaulting to 1
// for documents that predate the field.
func rawSchemaVersion(doc map[string]any) int {
	switch v := doc["schema_version"].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 1
}

// writeFileAtomic writes data to path via a temp file and rename so
// readers never observe a partial write.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	tmpPath := path + ".tmp"

	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	cleanupTmp := true
	defer func() {
		if cleanupTmp {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}
	cleanupTmp = false
	return nil
}
