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
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/AleutianAI/caseboard/cmd/caseboard/config"
	"github.com/AleutianAI/caseboard/internal/telemetry"
	"github.com/AleutianAI/caseboard/internal/web"
	"github.com/spf13/cobra"
)

// runWeb serves the dashboard until interrupted.
func runWeb(cmd *cobra.Command, args []string) {
	addr := config.Global.Web.Addr
	if webAddr != "" {
		addr = webAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx, telemetryConfig())
	if err != nil {
		slog.Warn("telemetry disabled", "error", err)
	} else {
		defer shutdown(context.Background())
	}

	server, err := web.New(web.Config{Addr: addr, Store: openStore()})
	if err != nil {
		log.Fatalf("Failed to build the dashboard server: %v", err)
	}

	fmt.Printf("Dashboard listening on %s\n", addr)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("Dashboard server failed: %v", err)
	}
}

// telemetryConfig layers the config file over the environment-aware
// defaults.
func telemetryConfig() telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = version
	if v := config.Global.Telemetry.TraceExporter; v != "" {
		cfg.TraceExporter = v
	}
	if v := config.Global.Telemetry.MetricExporter; v != "" {
		cfg.MetricExporter = v
	}
	if v := config.Global.Telemetry.OTLPEndpoint; v != "" {
		cfg.OTLPEndpoint = v
	}
	return cfg
}
