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
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AleutianAI/caseboard/cmd/caseboard/config"
	"github.com/AleutianAI/caseboard/internal/datastore"
	"github.com/AleutianAI/caseboard/internal/datastore/mirror"
	"github.com/AleutianAI/caseboard/internal/focuslog"
	"github.com/AleutianAI/caseboard/internal/stocks"
)

// resolvedDataDir applies the --data override and expands a leading ~.
func resolvedDataDir() string {
	dir := config.Global.Data.Dir
	if dataDirFlag != "" {
		dir = dataDirFlag
	}
	return expandHome(dir)
}

// expandHome resolves a leading ~ against the current home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}

// openStore builds the datastore over the resolved data directory.
func openStore() *datastore.Store {
	cfg := datastore.DefaultConfig(resolvedDataDir())
	if t := config.Global.Data.LockTimeout(); t > 0 {
		cfg.LockTimeout = t
	}
	store, err := datastore.New(cfg)
	if err != nil {
		log.Fatalf("Failed to open the case store: %v", err)
	}
	return store
}

// openFocusLog returns the per-case focus history manager.
func openFocusLog() (*focuslog.Log, error) {
	return focuslog.New(filepath.Join(resolvedDataDir(), "focus_logs"))
}

// openSymbols returns the watchlist store, seeded from config.
func openSymbols() *stocks.SymbolStore {
	return stocks.NewSymbolStore(
		filepath.Join(resolvedDataDir(), "stocks.json"),
		config.Global.Stocks.Symbols,
	)
}

// openFetcher assembles the quote fetcher with its disk cache and the
// optional Influx sink. The returned cleanup closes the cache.
func openFetcher() (*stocks.Fetcher, func()) {
	cacheDir := config.Global.Stocks.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(resolvedDataDir(), "stock_cache")
	}
	cache, err := stocks.OpenCache(expandHome(cacheDir), config.Global.Stocks.CacheTTL())
	if err != nil {
		slog.Warn("quote cache unavailable, fetching live", "dir", cacheDir, "error", err)
	}

	var sink *stocks.Sink
	if ic := config.Global.Stocks.Influx; ic.Enabled {
		sink, err = stocks.NewSink(stocks.SinkConfig{
			URL:      ic.URL,
			Org:      ic.Org,
			Bucket:   ic.Bucket,
			TokenEnv: ic.TokenEnv,
		})
		if err != nil {
			slog.Warn("influx quote sink disabled", "error", err)
		}
	}

	fetcher := stocks.NewFetcher(stocks.FetcherConfig{Cache: cache, Sink: sink})
	cleanup := func() {
		if cache != nil {
			cache.Close()
		}
	}
	return fetcher, cleanup
}

// currentActor names the acting user for audit attribution.
func currentActor() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	if user := os.Getenv("USERNAME"); user != "" {
		return user
	}
	return "user"
}

// confirm prints the prompt and requires a literal "yes" on stdin.
func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input) == "yes"
}

// mirrorAfterSave pushes the freshly saved artifacts to the offsite
// bucket when mirroring is enabled. The mirror package logs upload
// problems itself, so callers fire and move on.
func mirrorAfterSave(ctx context.Context, store *datastore.Store) {
	mc := config.Global.Mirror
	if !mc.Enabled {
		return
	}
	m, err := mirror.New(ctx, mirror.Config{
		Bucket:  mc.Bucket,
		Prefix:  mc.Prefix,
		KeyFile: expandHome(mc.KeyFile),
	})
	if err != nil {
		slog.Warn("offsite mirror unavailable", "error", err)
		return
	}
	defer m.Close()

	cfg := store.Config()
	m.MirrorSnapshot(ctx, cfg.DataFile, cfg.SummaryFile)
	if backups := store.ListBackups(); len(backups) > 0 {
		m.MirrorArtifacts(ctx, "backups", backups[len(backups)-1])
	}
	if diffs := store.MigrationDiffs(); len(diffs) > 0 {
		m.MirrorArtifacts(ctx, "migrations", diffs[len(diffs)-1])
	}
}

// formatSize renders a byte count for directory listings.
func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// formatAge renders a duration the way a person reads file ages.
func formatAge(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd %dh", int(d.Hours())/24, int(d.Hours())%24)
	case d >= time.Hour:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return "<1m"
	}
}

// clip truncates a table cell to max runes, marking the cut.
func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
