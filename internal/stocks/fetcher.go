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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/caseboard/pkg/validation"
)

// numWorkers bounds parallel quote fetches per batch.
const numWorkers = 8

// defaultRequestsPerSecond keeps batch fetches polite to the quote API.
const defaultRequestsPerSecond = 4

const chartAPIBase = "https://query1.finance.yahoo.com/v8/finance/chart/"

// browserUserAgent is sent with every quote request. The chart API
// rejects requests with a default Go client User-Agent.
const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// HTTPClient interface allows injecting mock HTTP clients for testing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetcherConfig configures a Fetcher. The zero value works: a default
// HTTP client, no cache, no sink.
type FetcherConfig struct {
	// Client overrides the HTTP client. Default: 10-second timeout.
	Client HTTPClient

	// Cache enables quote caching and stale fallback when set.
	Cache *Cache

	// Sink mirrors fetched batches to InfluxDB when set. Sink write
	// failures are logged, never surfaced to callers.
	Sink *Sink

	// RequestsPerSecond throttles live fetches. Default: 4.
	RequestsPerSecond float64
}

// Fetcher retrieves market quotes with caching and bounded parallelism.
//
// # Thread Safety
//
// Safe for concurrent use.
type Fetcher struct {
	client  HTTPClient
	cache   *Cache
	sink    *Sink
	limiter *rate.Limiter
}

// NewFetcher builds a Fetcher from config.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	return &Fetcher{
		client:  client,
		cache:   cfg.Cache,
		sink:    cfg.Sink,
		limiter: rate.NewLimiter(rate.Limit(rps), numWorkers),
	}
}

// Quote returns a single quote. A fresh cached quote skips the network;
// when the live fetch fails, a stale cached quote is served instead of
// the error.
func (f *Fetcher) Quote(ctx context.Context, symbol string) (Quote, error) {
	sym, err := validation.SanitizeTicker(symbol)
	if err != nil {
		return Quote{}, fmt.Errorf("invalid symbol: %w", err)
	}

	if f.cache != nil {
		if cached, ok := f.cache.Get(sym); ok && f.cache.Fresh(cached) {
			return cached, nil
		}
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return Quote{}, err
	}

	quote, err := f.fetchLive(ctx, sym)
	if err != nil {
		if f.cache != nil {
			if stale, ok := f.cache.Get(sym); ok {
				slog.Warn("serving stale quote", "symbol", sym, "age", time.Since(stale.LastUpdated).Round(time.Second), "error", err)
				return stale, nil
			}
		}
		return Quote{}, err
	}

	if f.cache != nil {
		if err := f.cache.Put(quote); err != nil {
			slog.Warn("quote cache write failed", "symbol", sym, "error", err)
		}
	}
	return quote, nil
}

// Quotes fetches a batch of symbols through a bounded worker pool.
// Symbols that fail to resolve are logged and omitted; the returned
// slice follows the input order. When a sink is configured, the batch
// is mirrored to it.
func (f *Fetcher) Quotes(ctx context.Context, symbols []string) []Quote {
	if len(symbols) == 0 {
		return nil
	}

	jobs := make(chan string, len(symbols))
	results := make(chan Quote, len(symbols))

	workers := numWorkers
	if len(symbols) < workers {
		workers = len(symbols)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go f.quoteWorker(ctx, i, &wg, jobs, results)
	}

	for _, symbol := range symbols {
		jobs <- symbol
	}
	close(jobs)

	wg.Wait()
	close(results)

	bySymbol := make(map[string]Quote, len(symbols))
	for quote := range results {
		bySymbol[quote.Symbol] = quote
	}

	quotes := make([]Quote, 0, len(bySymbol))
	for _, symbol := range symbols {
		sym, err := validation.SanitizeTicker(symbol)
		if err != nil {
			continue
		}
		if quote, ok := bySymbol[sym]; ok {
			quotes = append(quotes, quote)
			delete(bySymbol, sym)
		}
	}

	if f.sink != nil && len(quotes) > 0 {
		if err := f.sink.Write(ctx, quotes); err != nil {
			slog.Warn("quote sink write failed", "count", len(quotes), "error", err)
		}
	}
	return quotes
}

// quoteWorker drains the job channel, emitting successful quotes.
func (f *Fetcher) quoteWorker(ctx context.Context, id int, wg *sync.WaitGroup, jobs <-chan string, results chan<- Quote) {
	defer wg.Done()
	for symbol := range jobs {
		quote, err := f.Quote(ctx, symbol)
		if err != nil {
			slog.Warn("quote fetch failed", "worker_id", id, "symbol", symbol, "error", err)
			continue
		}
		results <- quote
	}
}

// --- Chart API Structs ---

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  interface{}   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta chartMeta `json:"meta"`
}

type chartMeta struct {
	Currency           string  `json:"currency"`
	Symbol             string  `json:"symbol"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	PreviousClose      float64 `json:"previousClose"`
	ChartPreviousClose float64 `json:"chartPreviousClose"`
}

// fetchLive pulls one quote from the chart API. The symbol must already
// be sanitized.
func (f *Fetcher) fetchLive(ctx context.Context, symbol string) (Quote, error) {
	requestURL := chartAPIBase + url.PathEscape(symbol) + "?interval=1d&range=1d"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to call quote API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("quote API returned status %s", resp.Status)
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return Quote{}, fmt.Errorf("failed to decode quote JSON: %w", err)
	}

	if chart.Chart.Error != nil {
		return Quote{}, fmt.Errorf("quote API error: %v", chart.Chart.Error)
	}
	if len(chart.Chart.Result) == 0 {
		return Quote{}, fmt.Errorf("no results for symbol %s", symbol)
	}

	meta := chart.Chart.Result[0].Meta
	previousClose := meta.PreviousClose
	if previousClose == 0 {
		// Indexes report only the chart-level previous close.
		previousClose = meta.ChartPreviousClose
	}
	if previousClose == 0 {
		return Quote{}, fmt.Errorf("no previous close for symbol %s", symbol)
	}

	change := meta.RegularMarketPrice - previousClose
	return Quote{
		Symbol:        symbol,
		Price:         meta.RegularMarketPrice,
		Change:        change,
		ChangePercent: (change / previousClose) * 100,
		LastUpdated:   time.Now(),
	}, nil
}
