// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package web serves the read-only case dashboard: a static page, JSON
// endpoints over the case document, and a websocket that nudges open
// dashboards when another process saves.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/caseboard/internal/datastore"
	"github.com/AleutianAI/caseboard/internal/telemetry"
	"github.com/AleutianAI/caseboard/internal/watch"
)

const shutdownGrace = 5 * time.Second

// Config configures the dashboard service.
type Config struct {
	// Addr is the listen address, e.g. ":8787".
	Addr string

	// Store provides the case document.
	Store *datastore.Store
}

// Server is the dashboard HTTP service.
type Server struct {
	cfg    Config
	store  *datastore.Store
	hub    *Hub
	engine *gin.Engine
	group  singleflight.Group
}

// New builds the service and its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("web server requires a store")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8787"
	}

	s := &Server{
		cfg:   cfg,
		store: cfg.Store,
		hub:   newHub(),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.Use(otelgin.Middleware("caseboard-web"))

	router.GET("/", s.handleIndex)
	router.GET("/cases", s.handleCases)
	router.GET("/summary", s.handleSummary)
	router.GET("/healthz", s.handleHealthz)
	router.GET("/ws", s.hub.serveWS())
	router.GET("/metrics", func(c *gin.Context) {
		h := telemetry.MetricsHandler()
		if h == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "metrics exporter not enabled"})
			return
		}
		h.ServeHTTP(c.Writer, c.Request)
	})

	s.engine = router
	return s, nil
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.engine
}

// Hub exposes the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Run serves until the context is cancelled. It owns the websocket hub
// and a marker watcher that turns external saves into hub broadcasts.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run(ctx)

	markerPath := s.store.Config().MarkerFile
	watcher, err := watch.New(markerPath, 0, func() {
		stamp, err := os.ReadFile(markerPath)
		if err != nil {
			slog.Warn("failed to read change marker", "error", err)
			return
		}
		s.hub.NotifyCasesUpdated(string(stamp))
	})
	if err != nil {
		return fmt.Errorf("create marker watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start marker watcher: %w", err)
	}

	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("dashboard listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("dashboard shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// requestLogger logs each request through slog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client", c.ClientIP())
	}
}
