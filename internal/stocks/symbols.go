// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stocks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/caseboard/internal/schema"
	"github.com/AleutianAI/caseboard/pkg/validation"
)

// DefaultSymbols is the factory watchlist: the major indexes, the VIX,
// the Arkansas home-state names, and a spread of mega caps. The board
// scrolls these in order.
var DefaultSymbols = []string{
	"^DJI", "^GSPC", "^IXIC", "^RUT", "^VIX",
	"WMT", "MUR", "MUSA", "DDS", "JBHT", "TSN", "ARCB", "OZK", "HOMB",
	"AAPL", "MSFT", "GOOGL", "AMZN", "META", "NVDA", "TSLA", "NFLX",
	"JPM", "BAC", "GS", "CVX", "XOM",
	"UNH", "JNJ", "PFE",
	"PG", "KO", "PEP", "HD", "LOW", "COST", "DIS", "NKE", "MCD",
	"CAT", "BA",
}

// symbolsFile is the stocks.json envelope.
type symbolsFile struct {
	Symbols []string         `json:"symbols"`
	Updated schema.Timestamp `json:"updated"`
}

// SymbolStore persists the watched symbol list to a JSON file. A
// missing or unreadable file falls back to the configured defaults.
//
// # Thread Safety
//
// Not safe for concurrent use. Callers coordinate through the data
// directory lock.
type SymbolStore struct {
	path     string
	defaults []string
}

// NewSymbolStore builds a store backed by path. The defaults slice is
// copied.
func NewSymbolStore(path string, defaults []string) *SymbolStore {
	return &SymbolStore{
		path:     path,
		defaults: append([]string(nil), defaults...),
	}
}

// Load returns the watched symbols, upper-cased. A missing, corrupt,
// or empty file yields a copy of the defaults.
func (s *SymbolStore) Load() []string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return append([]string(nil), s.defaults...)
	}
	var file symbolsFile
	if err := json.Unmarshal(data, &file); err != nil || len(file.Symbols) == 0 {
		return append([]string(nil), s.defaults...)
	}
	symbols := make([]string, 0, len(file.Symbols))
	for _, sym := range file.Symbols {
		symbols = append(symbols, strings.ToUpper(strings.TrimSpace(sym)))
	}
	return symbols
}

// Save writes the symbol list atomically.
func (s *SymbolStore) Save(symbols []string) error {
	file := symbolsFile{Symbols: symbols, Updated: schema.Now()}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode symbols: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create symbols directory: %w", err)
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write symbols file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace symbols file: %w", err)
	}
	return nil
}

// Add appends a symbol to the watchlist. Returns false without saving
// when the symbol is already present.
func (s *SymbolStore) Add(symbol string) (bool, error) {
	sym, err := validation.SanitizeTicker(symbol)
	if err != nil {
		return false, err
	}
	symbols := s.Load()
	for _, existing := range symbols {
		if existing == sym {
			return false, nil
		}
	}
	symbols = append(symbols, sym)
	if err := s.Save(symbols); err != nil {
		return false, err
	}
	return true, nil
}

// Remove drops a symbol from the watchlist. Returns false without
// saving when the symbol is absent.
func (s *SymbolStore) Remove(symbol string) (bool, error) {
	sym, err := validation.SanitizeTicker(symbol)
	if err != nil {
		return false, err
	}
	symbols := s.Load()
	kept := make([]string, 0, len(symbols))
	found := false
	for _, existing := range symbols {
		if existing == sym {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		return false, nil
	}
	if err := s.Save(kept); err != nil {
		return false, err
	}
	return true, nil
}
