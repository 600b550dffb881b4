// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/AleutianAI/caseboard/internal/stocks"
)

const (
	// tickerWindow is how many symbols are visible at once.
	tickerWindow = 7

	tickerSeparator = "   |   "
)

// tickerWindowSlice returns the visible slice of the watchlist,
// wrapping around the end. Lists shorter than the window show whole.
func tickerWindowSlice(symbols []string, offset int) []string {
	n := len(symbols)
	if n == 0 {
		return nil
	}
	w := tickerWindow
	if n < w {
		w = n
	}
	out := make([]string, 0, w)
	for i := 0; i < w; i++ {
		out = append(out, symbols[(offset+i)%n])
	}
	return out
}

// advanceOffset steps the scroll position one symbol forward.
func advanceOffset(offset, n int) int {
	if n == 0 {
		return 0
	}
	return (offset + 1) % n
}

// tickerSegment renders one symbol cell. Symbols without a quote yet
// render as a dimmed placeholder so the strip keeps its rhythm while
// fetches are in flight.
func tickerSegment(symbol string, quote stocks.Quote, ok bool) string {
	var b strings.Builder
	b.WriteString(tickerSymbolStyle.Render(fmt.Sprintf("%-6s", symbol)))
	if !ok {
		b.WriteString(tickerMissingStyle.Render(fmt.Sprintf(" %8s    --", "N/A")))
		return b.String()
	}
	b.WriteString(tickerPriceStyle.Render(fmt.Sprintf(" %8.2f ", quote.Price)))
	arrow, style := "▲", tickerUpStyle
	if quote.Change < 0 {
		arrow, style = "▼", tickerDownStyle
	}
	b.WriteString(style.Render(fmt.Sprintf("%s %+5.2f%%", arrow, quote.ChangePercent)))
	return b.String()
}

// renderTicker assembles the visible window of the scrolling strip
// with the market header and a fetch timestamp. A non-empty indicator
// is a refresh-in-flight frame shown beside the stamp.
func renderTicker(symbols []string, quotes map[string]stocks.Quote, offset int, now time.Time, indicator string) string {
	if len(symbols) == 0 {
		return tickerMissingStyle.Render("MARKET • no symbols configured")
	}
	segments := make([]string, 0, tickerWindow)
	for _, sym := range tickerWindowSlice(symbols, offset) {
		quote, ok := quotes[sym]
		segments = append(segments, tickerSegment(sym, quote, ok))
	}
	stamp := tickerStampStyle.Render(now.Format("  03:04:05 PM"))
	if indicator != "" {
		stamp += " " + indicator
	}
	return tickerHeaderStyle.Render("MARKET • ") +
		strings.Join(segments, tickerSepStyle.Render(tickerSeparator)) +
		stamp
}
