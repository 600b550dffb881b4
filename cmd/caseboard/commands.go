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
	"log"
	"log/slog"

	"github.com/AleutianAI/caseboard/cmd/caseboard/config"
	"github.com/AleutianAI/caseboard/pkg/logging"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	dataDirFlag   string
	webAddr       string
	listStatus    string
	listAttention string
	auditLines    int
	backupsKeep   int

	appLogger *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "caseboard",
		Short: "A cli to manage the firm's shared case board",
		Long: `Caseboard keeps a law office's case list in one JSON document with
				locking, backups, migrations and audit history, and puts it on a
				web dashboard and a full-screen wall display.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := config.Load(); err != nil {
				log.Fatalf("Error loading configuration: %v", err)
			}
			appLogger = logging.New(logging.Config{
				Level:   logging.ParseLevel(config.Global.Logging.Level),
				LogDir:  config.Global.Logging.Dir,
				Service: "caseboard",
				JSON:    config.Global.Logging.JSON,
				// The full-screen board cannot share stderr with log lines.
				Quiet: cmd == boardCmd,
			})
			slog.SetDefault(appLogger.Slog())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appLogger != nil {
				appLogger.Close()
			}
		},
	}

	// --- Display Surfaces ---
	boardCmd = &cobra.Command{
		Use:   "board",
		Short: "Run the full-screen status board for the office wall display",
		Run:   runBoard, // Defined in cmd_board.go
	}
	webCmd = &cobra.Command{
		Use:   "web",
		Short: "Serve the read-only web dashboard and websocket feed",
		Run:   runWeb, // Defined in cmd_web.go
	}

	// --- Case Management ---
	caseCmd = &cobra.Command{
		Use:   "case",
		Short: "Inspect and edit individual cases",
	}
	caseListCmd = &cobra.Command{
		Use:   "list",
		Short: "Print the case table, optionally filtered by status or attention",
		Run:   runCaseList, // Defined in cmd_case.go
	}
	caseAddCmd = &cobra.Command{
		Use:   "add",
		Short: "Add a new case through an interactive form",
		Run:   runCaseAdd, // Defined in cmd_case.go
	}
	caseFocusCmd = &cobra.Command{
		Use:   "focus [case-number] [text...]",
		Short: "Set a case's current focus, or show its recent focus history when no text is given",
		Args:  cobra.MinimumNArgs(1),
		Run:   runCaseFocus, // Defined in cmd_case.go
	}

	// --- Bulk Data ---
	importCmd = &cobra.Command{
		Use:   "import [csv-file]",
		Short: "Merge cases from a CSV export into the board",
		Args:  cobra.ExactArgs(1),
		Run:   runImport, // Defined in cmd_data.go
	}
	exportCmd = &cobra.Command{
		Use:   "export [csv-file]",
		Short: "Write every case to a CSV file",
		Args:  cobra.ExactArgs(1),
		Run:   runExport, // Defined in cmd_data.go
	}
	dedupeCmd = &cobra.Command{
		Use:   "dedupe",
		Short: "Remove records that repeat an earlier case number",
		Run:   runDedupe, // Defined in cmd_data.go
	}

	// --- Data Directory Operations ---
	backupsCmd = &cobra.Command{
		Use:   "backups",
		Short: "List the backup snapshots with sizes and ages",
		Run:   runBackupsList, // Defined in cmd_ops.go
	}
	backupsPruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "Delete the oldest backups beyond the keep count",
		Run:   runBackupsPrune, // Defined in cmd_ops.go
	}
	migrationsCmd = &cobra.Command{
		Use:   "migrations",
		Short: "Inspect recorded schema migrations",
	}
	migrationsShowCmd = &cobra.Command{
		Use:   "show [diff-file]",
		Short: "Render a recorded migration diff (latest when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		Run:   runMigrationsShow, // Defined in cmd_ops.go
	}
	auditCmd = &cobra.Command{
		Use:   "audit",
		Short: "Inspect the append-only audit log",
	}
	auditTailCmd = &cobra.Command{
		Use:   "tail",
		Short: "Print the most recent audit log entries",
		Run:   runAuditTail, // Defined in cmd_ops.go
	}
	summaryCmd = &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard summary projection",
		Run:   runSummary, // Defined in cmd_ops.go
	}
	doctorCmd = &cobra.Command{
		Use:   "doctor",
		Short: "Check the data directory for problems",
		Run:   runDoctor, // Defined in cmd_ops.go
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run:   runVersion, // Defined in cmd_ops.go
	}

	// --- Market Ticker ---
	stocksCmd = &cobra.Command{
		Use:   "stocks [symbols...]",
		Short: "Fetch and print quotes for the watchlist or the given symbols",
		Run:   runStocks, // Defined in cmd_stocks.go
	}
	stocksAddCmd = &cobra.Command{
		Use:   "add [symbol]",
		Short: "Add a symbol to the board's watchlist",
		Args:  cobra.ExactArgs(1),
		Run:   runStocksAdd, // Defined in cmd_stocks.go
	}
	stocksRemoveCmd = &cobra.Command{
		Use:   "remove [symbol]",
		Short: "Remove a symbol from the board's watchlist",
		Args:  cobra.ExactArgs(1),
		Run:   runStocksRemove, // Defined in cmd_stocks.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data", "",
		"Override the configured data directory")

	rootCmd.AddCommand(boardCmd)

	rootCmd.AddCommand(webCmd)
	webCmd.Flags().StringVar(&webAddr, "addr", "", "Listen address (overrides the configured web.addr)")

	// case commands
	rootCmd.AddCommand(caseCmd)
	caseCmd.AddCommand(caseListCmd)
	caseListCmd.Flags().StringVar(&listStatus, "status", "",
		"Only show cases with this status (pre-filing, filed, open, closed, archived)")
	caseListCmd.Flags().StringVar(&listAttention, "attention", "",
		"Only show cases with this attention flag (waiting, needs_attention)")
	caseCmd.AddCommand(caseAddCmd)
	caseCmd.AddCommand(caseFocusCmd)

	// bulk data commands
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(dedupeCmd)
	dedupeCmd.Flags().Bool("force", false, "Skip the confirmation prompt")

	// data directory operations
	rootCmd.AddCommand(backupsCmd)
	backupsCmd.AddCommand(backupsPruneCmd)
	backupsPruneCmd.Flags().IntVar(&backupsKeep, "keep", 0,
		"How many of the newest backups to keep (defaults to data.backup_keep)")

	rootCmd.AddCommand(migrationsCmd)
	migrationsCmd.AddCommand(migrationsShowCmd)

	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditTailCmd)
	auditTailCmd.Flags().IntVarP(&auditLines, "lines", "n", 20,
		"How many trailing audit entries to print")

	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)

	// market ticker commands
	rootCmd.AddCommand(stocksCmd)
	stocksCmd.AddCommand(stocksAddCmd)
	stocksCmd.AddCommand(stocksRemoveCmd)
}
