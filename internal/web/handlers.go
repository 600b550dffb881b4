// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package web

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/caseboard/internal/schema"
)

//go:embed index.html
var indexHTML []byte

type casesMeta struct {
	Version int              `json:"version"`
	SavedAt schema.Timestamp `json:"saved_at"`
}

type casesResponse struct {
	Meta        casesMeta           `json:"meta"`
	Cases       []schema.CaseRecord `json:"cases"`
	GeneratedAt schema.Timestamp    `json:"generated_at"`
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

// handleCases returns the case document wrapped in version metadata.
// Concurrent dashboard refreshes collapse into a single store read.
func (s *Server) handleCases(c *gin.Context) {
	// The read is shared across in-flight requests, so detach it from
	// any single caller's cancellation.
	ctx := context.WithoutCancel(c.Request.Context())

	v, err, _ := s.group.Do("cases", func() (interface{}, error) {
		dataFile := s.store.Config().DataFile
		if _, err := os.Stat(dataFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("case document: %w", os.ErrNotExist)
		}
		doc, err := s.store.Read(ctx)
		if err != nil {
			return nil, err
		}
		return &casesResponse{
			Meta:        casesMeta{Version: doc.Version, SavedAt: doc.SavedAt},
			Cases:       doc.Cases,
			GeneratedAt: schema.Now(),
		}, nil
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no case data yet"})
			return
		}
		slog.Error("failed to load case document", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load case data"})
		return
	}
	c.JSON(http.StatusOK, v)
}

// handleSummary serves the derived summary file verbatim.
func (s *Server) handleSummary(c *gin.Context) {
	raw, err := os.ReadFile(s.store.Config().SummaryFile)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "summary not generated yet"})
			return
		}
		slog.Error("failed to read summary file", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read summary"})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
