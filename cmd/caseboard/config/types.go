// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"time"

	"github.com/AleutianAI/caseboard/internal/board"
	"github.com/AleutianAI/caseboard/internal/stocks"
)

type CaseboardConfig struct {
	// Data: where the case document and its satellites live
	Data DataConfig `yaml:"data"`

	// Logging: level and optional file destination
	Logging LoggingConfig `yaml:"logging"`

	// Web: dashboard service binding
	Web WebConfig `yaml:"web"`

	// Stocks: ticker feed for the display board
	Stocks StocksConfig `yaml:"stocks"`

	// Board: full-screen display tuning
	Board BoardConfig `yaml:"board"`

	// Mirror: optional cloud copy of each saved document
	Mirror MirrorConfig `yaml:"mirror"`

	// Telemetry: exporter selection
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type DataConfig struct {
	Dir                string `yaml:"dir"`                  // e.g. "data"
	LockTimeoutSeconds int    `yaml:"lock_timeout_seconds"` // e.g. 5
	BackupKeep         int    `yaml:"backup_keep"`          // newest backups kept by `backups prune`
}

// LockTimeout returns the configured lock timeout as a duration.
func (d DataConfig) LockTimeout() time.Duration {
	return time.Duration(d.LockTimeoutSeconds) * time.Second
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	Dir   string `yaml:"dir"`   // empty disables file logging
	JSON  bool   `yaml:"json"`
}

type WebConfig struct {
	Addr string `yaml:"addr"` // e.g. ":8787"
}

type StocksConfig struct {
	// Symbols seeds the watchlist shared by the `stocks` command and
	// the board ticker. The stocks.json file in the data directory
	// takes over once `stocks add`/`stocks remove` have been used.
	Symbols []string `yaml:"symbols"`

	// CacheDir overrides the quote cache location. Empty means
	// "<data.dir>/stock_cache".
	CacheDir string `yaml:"cache_dir"`

	CacheTTLMinutes int          `yaml:"cache_ttl_minutes"`
	Influx          InfluxConfig `yaml:"influx"`
}

// CacheTTL returns the configured quote cache lifetime.
func (s StocksConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLMinutes) * time.Minute
}

type InfluxConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Org      string `yaml:"org"`
	Bucket   string `yaml:"bucket"`
	TokenEnv string `yaml:"token_env"` // name of the env var holding the API token
}

type BoardConfig struct {
	// Title is the headline across the top of the display.
	Title string `yaml:"title"`

	// RefreshSeconds is the market quote refresh cadence. Case data
	// reloads on its own timer and on change marker events.
	RefreshSeconds int `yaml:"refresh_seconds"`
}

// QuoteRefresh returns the configured quote refresh cadence.
func (b BoardConfig) QuoteRefresh() time.Duration {
	return time.Duration(b.RefreshSeconds) * time.Second
}

type MirrorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`

	// KeyFile points at a service account key. Empty uses Application
	// Default Credentials.
	KeyFile string `yaml:"key_file"`
}

type TelemetryConfig struct {
	// TraceExporter can be "otlp", "stdout", or "none".
	TraceExporter string `yaml:"trace_exporter"`

	// MetricExporter can be "prometheus", "stdout", or "none".
	MetricExporter string `yaml:"metric_exporter"`

	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

func DefaultConfig() CaseboardConfig {
	return CaseboardConfig{
		Data: DataConfig{
			Dir:                "data",
			LockTimeoutSeconds: 5,
			BackupKeep:         20,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "~/.caseboard/logs",
		},
		Web: WebConfig{
			Addr: ":8787",
		},
		Stocks: StocksConfig{
			Symbols:         append([]string(nil), stocks.DefaultSymbols...),
			CacheTTLMinutes: 15,
		},
		Board: BoardConfig{
			Title:          board.DefaultTitle,
			RefreshSeconds: 90,
		},
		Mirror: MirrorConfig{
			Prefix: "caseboard",
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			OTLPEndpoint:   "localhost:4317",
		},
	}
}
