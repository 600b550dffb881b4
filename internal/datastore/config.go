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
	"path/filepath"
	"time"
)

// DefaultLockTimeout bounds how long Load and Save wait for the data lock.
const DefaultLockTimeout = 5 * time.Second

// Config holds the datastore file layout. Every path is injected so tests
// and alternate deployments can point the store anywhere.
type Config struct {
	// DataFile is the authoritative case document, conventionally
	// <dir>/cases.json.
	DataFile string

	// LockFile is the sidecar advisory lock, conventionally
	// "<DataFile>.lock".
	LockFile string

	// BackupDir receives pre-read snapshots named cases-<timestamp>.json.
	BackupDir string

	// MigrationsDir receives unified diffs of schema migrations.
	MigrationsDir string

	// AuditFile is the append-only audit log.
	AuditFile string

	// SummaryFile is the derived summary projection.
	SummaryFile string

	// MarkerFile is touched after every successful save so watchers can
	// observe change without parsing the document.
	MarkerFile string

	// LockTimeout bounds lock acquisition. Zero means DefaultLockTimeout.
	LockTimeout time.Duration
}

// DefaultConfig returns the standard layout rooted at dataDir.
func DefaultConfig(dataDir string) Config {
	dataFile := filepath.Join(dataDir, "cases.json")
	return Config{
		DataFile:      dataFile,
		LockFile:      dataFile + ".lock",
		BackupDir:     filepath.Join(dataDir, "backups"),
		MigrationsDir: filepath.Join(dataDir, "migrations"),
		AuditFile:     filepath.Join(dataDir, "audit.log"),
		SummaryFile:   filepath.Join(dataDir, "summary.json"),
		MarkerFile:    filepath.Join(dataDir, ".bump"),
		LockTimeout:   DefaultLockTimeout,
	}
}

// Validate checks the configuration for required fields.
func (c Config) Validate() error {
	if c.DataFile == "" {
		return fmt.Errorf("data file path is required")
	}
	if c.LockFile == "" {
		return fmt.Errorf("lock file path is required")
	}
	if c.BackupDir == "" {
		return fmt.Errorf("backup directory is required")
	}
	if c.MigrationsDir == "" {
		return fmt.Errorf("migrations directory is required")
	}
	if c.AuditFile == "" {
		return fmt.Errorf("audit log path is required")
	}
	if c.SummaryFile == "" {
		return fmt.Errorf("summary file path is required")
	}
	if c.MarkerFile == "" {
		return fmt.Errorf("marker file path is required")
	}
	return nil
}

// withDefaults fills zero-valued optional settings.
func (c Config) withDefaults() Config {
	if c.LockTimeout == 0 {
		c.LockTimeout = DefaultLockTimeout
	}
	return c
}
