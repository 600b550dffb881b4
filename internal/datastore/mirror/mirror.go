// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package mirror pushes copies of saved case artifacts to a Google
// Cloud Storage bucket so the office has an off-site copy of the data
// directory's latest state.
//
// Mirroring is strictly best-effort: a save must never fail because
// the network or the bucket is down, so every upload problem is logged
// as a warning and otherwise swallowed.
package mirror

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// DefaultPrefix namespaces mirrored objects inside a shared bucket.
const DefaultPrefix = "caseboard"

// Config selects the destination bucket.
type Config struct {
	// Bucket is the GCS bucket name. Required.
	Bucket string

	// Prefix namespaces the objects, e.g. "caseboard/document/cases.json".
	Prefix string

	// KeyFile optionally pins a service account key. Empty uses
	// Application Default Credentials.
	KeyFile string
}

// Mirror uploads local files into the configured bucket.
type Mirror struct {
	client *storage.Client
	bucket string
	prefix string
}

// New creates a mirror client. The service account key, when given,
// must exist on disk.
func New(ctx context.Context, cfg Config) (*Mirror, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("mirror requires a bucket name")
	}
	var opts []option.ClientOption
	if cfg.KeyFile != "" {
		if _, err := os.Stat(cfg.KeyFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at path: %s", cfg.KeyFile)
		}
		opts = append(opts, option.WithCredentialsFile(cfg.KeyFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Mirror{client: client, bucket: cfg.Bucket, prefix: prefix}, nil
}

// Close releases the underlying storage client.
func (m *Mirror) Close() error {
	return m.client.Close()
}

// objectPath builds the bucket key for a mirrored file.
func (m *Mirror) objectPath(kind, name string) string {
	return path.Join(m.prefix, kind, name)
}

// contentTypeFor maps the artifact extension to a content type. The
// data directory only holds JSON documents and unified diffs.
func contentTypeFor(localPath string) string {
	if filepath.Ext(localPath) == ".json" {
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}

// UploadFile copies one local file into the bucket under the given
// kind, keyed by its base name. Re-uploads overwrite, so the document
// object always holds the latest save while timestamped backups
// accumulate.
func (m *Mirror) UploadFile(ctx context.Context, kind, localPath string) error {
	localFile, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open the local file: %s: %w", localPath, err)
	}
	defer localFile.Close()

	gcsPath := m.objectPath(kind, filepath.Base(localPath))
	obj := m.client.Bucket(m.bucket).Object(gcsPath)
	writer := obj.NewWriter(ctx)
	writer.ContentType = contentTypeFor(localPath)
	writer.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := io.Copy(writer, localFile); err != nil {
		return fmt.Errorf("failed to copy local file %s to GCS object %s: %w", localPath, gcsPath, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for %s: %w", gcsPath, err)
	}

	slog.Debug("mirrored file", "object", fmt.Sprintf("gs://%s/%s", m.bucket, gcsPath))
	return nil
}

// MirrorSnapshot pushes the document and its summary projection after
// a save. Missing files are skipped and upload failures are logged,
// never returned.
func (m *Mirror) MirrorSnapshot(ctx context.Context, dataFile, summaryFile string) {
	targets := []struct {
		kind string
		path string
	}{
		{kind: "document", path: dataFile},
		{kind: "summary", path: summaryFile},
	}
	for _, target := range targets {
		if target.path == "" {
			continue
		}
		if _, err := os.Stat(target.path); err != nil {
			continue
		}
		if err := m.UploadFile(ctx, target.kind, target.path); err != nil {
			slog.Warn("mirror upload failed", "kind", target.kind, "error", err)
		}
	}
}

// MirrorArtifacts pushes a batch of files of one kind, typically the
// backup snapshots or migration diffs produced by a save. Failures are
// logged per file instead of returned.
func (m *Mirror) MirrorArtifacts(ctx context.Context, kind string, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := m.UploadFile(ctx, kind, p); err != nil {
			slog.Warn("mirror upload failed", "kind", kind, "path", p, "error", err)
		}
	}
}
