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
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// DefaultCacheTTL is how long a cached quote counts as fresh.
const DefaultCacheTTL = 15 * time.Minute

// cacheRetention is how long badger keeps an entry on disk. Retention
// runs much longer than freshness so an expired quote can still be
// served stale when the market API is unreachable.
const cacheRetention = 24 * time.Hour

const cacheKeyPrefix = "quote/"

// Cache is a badger-backed quote cache with per-entry TTL.
//
// # Thread Safety
//
// Safe for concurrent use; badger transactions provide isolation.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenCache opens a persistent quote cache at path. A non-positive ttl
// uses DefaultCacheTTL.
func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	if path == "" {
		return nil, errors.New("cache path is required")
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open quote cache: %w", err)
	}
	return newCache(db, ttl), nil
}

// OpenCacheInMemory opens a throwaway in-memory cache, useful in tests.
func OpenCacheInMemory(ttl time.Duration) (*Cache, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory quote cache: %w", err)
	}
	return newCache(db, ttl), nil
}

func newCache(db *badger.DB, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{db: db, ttl: ttl}
}

// Get returns the cached quote for a symbol, fresh or stale. The
// second return is false when no entry exists or it cannot be decoded.
func (c *Cache) Get(symbol string) (Quote, bool) {
	var quote Quote
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(cacheKeyPrefix + symbol))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &quote)
		})
	})
	if err != nil {
		return Quote{}, false
	}
	return quote, true
}

// Put stores a quote. The entry expires from disk after the retention
// window, independent of the freshness TTL.
func (c *Cache) Put(quote Quote) error {
	raw, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("encode quote: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(cacheKeyPrefix+quote.Symbol), raw).WithTTL(cacheRetention)
		return txn.SetEntry(entry)
	})
}

// Fresh reports whether a quote is within the freshness TTL.
func (c *Cache) Fresh(quote Quote) bool {
	return time.Since(quote.LastUpdated) <= c.ttl
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
