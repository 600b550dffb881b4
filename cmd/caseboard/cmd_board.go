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
	"log"
	"os/signal"
	"syscall"

	"github.com/AleutianAI/caseboard/cmd/caseboard/config"
	"github.com/AleutianAI/caseboard/internal/board"
	"github.com/spf13/cobra"
)

// runBoard starts the full-screen wall display. The board owns the
// terminal until q or a signal ends it.
func runBoard(cmd *cobra.Command, args []string) {
	store := openStore()
	fetcher, cleanup := openFetcher()
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := board.Run(ctx, board.Config{
		Store:        store,
		Fetcher:      fetcher,
		Symbols:      openSymbols().Load(),
		Title:        config.Global.Board.Title,
		QuoteRefresh: config.Global.Board.QuoteRefresh(),
	})
	if err != nil {
		log.Fatalf("Board exited with an error: %v", err)
	}
}
