// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package stocks fetches market quotes for the display board's ticker
// strip and the stocks CLI command.
//
// Quotes come from the Yahoo Finance chart API through an injectable
// HTTP client, pass through a badger-backed cache so restarts and
// rate limits don't hammer the API, and can optionally be mirrored to
// an InfluxDB bucket for history.
package stocks

import (
	"fmt"
	"time"
)

// Quote is one market quote at a point in time.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	LastUpdated   time.Time `json:"last_updated"`
}

// ChangeString renders the absolute change with an explicit sign, e.g.
// "+1.23" or "-0.45". Zero renders as "+0.00".
func (q Quote) ChangeString() string {
	return fmt.Sprintf("%+.2f", q.Change)
}

// ChangePercentString renders the percentage change with an explicit
// sign, e.g. "+1.23%" or "-0.45%".
func (q Quote) ChangePercentString() string {
	return fmt.Sprintf("%+.2f%%", q.ChangePercent)
}
