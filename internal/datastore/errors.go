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
	"errors"
	"fmt"
)

// Sentinel errors for classification with errors.Is.
var (
	// ErrDataLocked indicates the data lock could not be acquired within
	// the timeout.
	ErrDataLocked = errors.New("unable to acquire data lock")

	// ErrCorruptData indicates the data file is not parseable JSON.
	ErrCorruptData = errors.New("data file is corrupted")

	// ErrMigrationFailed indicates a schema migration could not complete.
	ErrMigrationFailed = errors.New("schema migration failed")
)

// DataLockError reports a failed lock acquisition on the data file.
type DataLockError struct {
	Path string
	Err  error
}

func (e *DataLockError) Error() string {
	return fmt.Sprintf("unable to acquire data lock on %s: %v", e.Path, e.Err)
}

func (e *DataLockError) Unwrap() []error { return []error{ErrDataLocked, e.Err} }

// CorruptDataError reports an unparseable data file. Backups lists the
// available backup snapshots, oldest first, so callers can offer a
// recovery path.
type CorruptDataError struct {
	Path    string
	Backups []string
	Err     error
}

func (e *CorruptDataError) Error() string {
	if len(e.Backups) == 0 {
		return fmt.Sprintf("%s is corrupted: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s is corrupted (%d backups available): %v", e.Path, len(e.Backups), e.Err)
}

func (e *CorruptDataError) Unwrap() []error { return []error{ErrCorruptData, e.Err} }

// MigrationError reports a failed schema migration. Record carries the
// offending raw case payload for per-record failures and is nil for
// document-level failures.
type MigrationError struct {
	FromVersion int
	Record      map[string]any
	Err         error
}

func (e *MigrationError) Error() string {
	if e.Record != nil {
		return fmt.Sprintf("failed to normalize case payload during migration from version %d: %v", e.FromVersion, e.Err)
	}
	return fmt.Sprintf("schema migration from version %d failed: %v", e.FromVersion, e.Err)
}

func (e *MigrationError) Unwrap() []error { return []error{ErrMigrationFailed, e.Err} }
