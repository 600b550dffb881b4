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
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// backupTimeFormat names backup and migration artifacts to the second.
const backupTimeFormat = "20060102-150405"

// createBackup snapshots the just-read document bytes into the backup
// directory. Called under the data lock so the snapshot matches the read.
func (s *Store) createBackup(raw []byte) error {
	if err := os.MkdirAll(s.cfg.BackupDir, 0755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	name := fmt.Sprintf("cases-%s.json", time.Now().UTC().Format(backupTimeFormat))
	path := filepath.Join(s.cfg.BackupDir, name)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("write backup %s: %w", path, err)
	}
	backupTotal.Inc()
	return nil
}

// ListBackups returns the backup snapshot paths, oldest first.
func (s *Store) ListBackups() []string {
	entries, err := os.ReadDir(s.cfg.BackupDir)
	if err != nil {
		return nil
	}
	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "cases-") && strings.HasSuffix(name, ".json") {
			backups = append(backups, filepath.Join(s.cfg.BackupDir, name))
		}
	}
	sort.Strings(backups)
	return backups
}

// PruneBackups removes the oldest snapshots beyond keep, returning the
// removed paths. A keep of zero or less removes nothing.
func (s *Store) PruneBackups(keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	backups := s.ListBackups()
	if len(backups) <= keep {
		return nil, nil
	}
	var removed []string
	for _, path := range backups[:len(backups)-keep] {
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("remove backup %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}
