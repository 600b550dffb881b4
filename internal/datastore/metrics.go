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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for the Case Datastore
// =============================================================================

var (
	// loadTotal counts document loads.
	// Labels: status (success, locked, corrupt, invalid, error)
	loadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "caseboard",
		Subsystem: "datastore",
		Name:      "loads_total",
		Help:      "Total case document loads by status",
	}, []string{"status"})

	// saveTotal counts document saves.
	// Labels: action (autosave, manual, import, ...), status (success, locked, error)
	saveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "caseboard",
		Subsystem: "datastore",
		Name:      "saves_total",
		Help:      "Total case document saves by action and status",
	}, []string{"action", "status"})

	// saveDuration measures end-to-end save latency including lock wait.
	saveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "caseboard",
		Subsystem: "datastore",
		Name:      "save_duration_seconds",
		Help:      "Case document save latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
	})

	// migrationTotal counts schema migrations.
	// Labels: status (success, error)
	migrationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "caseboard",
		Subsystem: "datastore",
		Name:      "migrations_total",
		Help:      "Total schema migrations by status",
	}, []string{"status"})

	// backupTotal counts backup snapshots written on load.
	backupTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "caseboard",
		Subsystem: "datastore",
		Name:      "backups_total",
		Help:      "Total backup snapshots written",
	})

	// auditLines counts audit log lines appended.
	// Labels: change (created, updated, deleted)
	auditLines = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "caseboard",
		Subsystem: "datastore",
		Name:      "audit_lines_total",
		Help:      "Total audit log lines appended by change type",
	}, []string{"change"})
)
