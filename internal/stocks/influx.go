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
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
)

const quoteMeasurement = "stock_quotes"

// SinkConfig configures an InfluxDB quote sink. The API token is read
// from the environment variable named by TokenEnv, never stored in
// config files.
type SinkConfig struct {
	URL      string
	Org      string
	Bucket   string
	TokenEnv string
}

// Sink mirrors quote batches into an InfluxDB bucket for history
// queries. The token lives in a memguard enclave between writes.
type Sink struct {
	url    string
	org    string
	bucket string
	token  *memguard.Enclave
}

// NewSink reads the API token from the configured environment variable
// and seals it. Returns an error when the variable is unset or empty.
func NewSink(cfg SinkConfig) (*Sink, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("influx sink requires a URL")
	}
	if cfg.TokenEnv == "" {
		return nil, fmt.Errorf("influx sink requires a token environment variable name")
	}
	token := os.Getenv(cfg.TokenEnv)
	if token == "" {
		return nil, fmt.Errorf("environment variable %s is not set", cfg.TokenEnv)
	}
	return &Sink{
		url:    cfg.URL,
		org:    cfg.Org,
		bucket: cfg.Bucket,
		token:  memguard.NewEnclave([]byte(token)),
	}, nil
}

// Write records one point per quote. The token enclave is opened for
// the duration of the write only.
func (s *Sink) Write(ctx context.Context, quotes []Quote) error {
	if len(quotes) == 0 {
		return nil
	}

	buf, err := s.token.Open()
	if err != nil {
		return fmt.Errorf("failed to open token enclave: %w", err)
	}
	defer buf.Destroy()

	client := influxdb2.NewClient(s.url, buf.String())
	defer client.Close()

	writeAPI := client.WriteAPIBlocking(s.org, s.bucket)
	for _, q := range quotes {
		point := influxdb2.NewPoint(quoteMeasurement,
			map[string]string{"symbol": q.Symbol},
			map[string]interface{}{
				"price":          q.Price,
				"change":         q.Change,
				"change_percent": q.ChangePercent,
			},
			q.LastUpdated)
		if err := writeAPI.WritePoint(ctx, point); err != nil {
			return fmt.Errorf("failed to write point for %s: %w", q.Symbol, err)
		}
	}
	return nil
}
