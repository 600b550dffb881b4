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
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

// runStocks does a one-shot quote fetch for the watchlist, or for the
// symbols given on the command line.
func runStocks(cmd *cobra.Command, args []string) {
	symbols := openSymbols().Load()
	if len(args) > 0 {
		symbols = args
	}
	if len(symbols) == 0 {
		fmt.Println("No symbols on the watchlist.")
		return
	}

	fetcher, cleanup := openFetcher()
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	quotes := fetcher.Quotes(ctx, symbols)
	if len(quotes) == 0 {
		log.Fatalf("No quotes could be fetched for %s", strings.Join(symbols, ", "))
	}

	for _, q := range quotes {
		fmt.Printf("%-6s %10.2f  %8s  %8s\n", q.Symbol, q.Price, q.ChangeString(), q.ChangePercentString())
	}
	if missing := len(symbols) - len(quotes); missing > 0 {
		fmt.Printf("\n%d symbol(s) returned no data.\n", missing)
	}
}

func runStocksAdd(cmd *cobra.Command, args []string) {
	symbols := openSymbols()
	added, err := symbols.Add(args[0])
	if err != nil {
		log.Fatalf("Failed to add %s: %v", args[0], err)
	}
	name := strings.ToUpper(strings.TrimSpace(args[0]))
	if !added {
		fmt.Printf("%s is already on the watchlist.\n", name)
		return
	}
	fmt.Printf("Added %s. The watchlist now has %d symbols.\n", name, len(symbols.Load()))
}

func runStocksRemove(cmd *cobra.Command, args []string) {
	symbols := openSymbols()
	removed, err := symbols.Remove(args[0])
	if err != nil {
		log.Fatalf("Failed to remove %s: %v", args[0], err)
	}
	name := strings.ToUpper(strings.TrimSpace(args[0]))
	if !removed {
		fmt.Printf("%s is not on the watchlist.\n", name)
		return
	}
	fmt.Printf("Removed %s. The watchlist now has %d symbols.\n", name, len(symbols.Load()))
}
