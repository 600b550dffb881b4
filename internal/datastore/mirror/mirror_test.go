// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mirror

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ============================================================================
// New Tests
// ============================================================================

func TestNew_RequiresBucket(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, Config{})
	if err == nil {
		t.Fatal("New without a bucket should return error")
	}
	if !strings.Contains(err.Error(), "bucket") {
		t.Errorf("Error should mention the bucket, got: %v", err)
	}
}

func TestNew_NonExistentKeyFile(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, Config{Bucket: "test-bucket", KeyFile: "/nonexistent/path/to/key.json"})
	if err == nil {
		t.Fatal("New with non-existent SA key should return error")
	}
	if !strings.Contains(err.Error(), "service account key not found") {
		t.Errorf("Error should mention SA key not found, got: %v", err)
	}
	if !strings.Contains(err.Error(), "/nonexistent/path/to/key.json") {
		t.Errorf("Error should contain the path, got: %v", err)
	}
}

func TestNew_InvalidCredentialsFile(t *testing.T) {
	ctx := context.Background()

	tmpDir := t.TempDir()
	invalidKeyPath := filepath.Join(tmpDir, "invalid_key.json")
	if err := os.WriteFile(invalidKeyPath, []byte("not valid json"), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	_, err := New(ctx, Config{Bucket: "test-bucket", KeyFile: invalidKeyPath})
	if err == nil {
		t.Fatal("New with invalid credentials file should return error")
	}
	if !strings.Contains(err.Error(), "failed to create GCS storage client") {
		t.Errorf("Error should mention failed to create client, got: %v", err)
	}
}

// ============================================================================
// Object Path Tests
// ============================================================================

func TestObjectPath(t *testing.T) {
	m := &Mirror{bucket: "test-bucket", prefix: "caseboard"}

	got := m.objectPath("document", "cases.json")
	if got != "caseboard/document/cases.json" {
		t.Errorf("objectPath = %q, want %q", got, "caseboard/document/cases.json")
	}

	got = m.objectPath("backups", "cases-20260310-120000.json")
	if got != "caseboard/backups/cases-20260310-120000.json" {
		t.Errorf("objectPath = %q, want %q", got, "caseboard/backups/cases-20260310-120000.json")
	}
}

func TestContentTypeFor(t *testing.T) {
	if got := contentTypeFor("/data/cases.json"); got != "application/json" {
		t.Errorf("contentTypeFor json = %q", got)
	}
	if got := contentTypeFor("/data/migrations/cases-20260310-120000.diff"); got != "text/plain; charset=utf-8" {
		t.Errorf("contentTypeFor diff = %q", got)
	}
}

// ============================================================================
// UploadFile Tests (error paths that don't require GCS connection)
// ============================================================================

func TestUploadFile_NonExistentLocalFile(t *testing.T) {
	// The local file check runs before any GCS operation, so a nil
	// storage client never gets touched.
	m := &Mirror{client: nil, bucket: "test-bucket", prefix: "caseboard"}

	ctx := context.Background()
	err := m.UploadFile(ctx, "document", "/nonexistent/file/cases.json")
	if err == nil {
		t.Fatal("UploadFile with non-existent local file should return error")
	}
	if !strings.Contains(err.Error(), "failed to open the local file") {
		t.Errorf("Error should mention failed to open file, got: %v", err)
	}
}

// ============================================================================
// MirrorSnapshot Tests
// ============================================================================

func TestMirrorSnapshot_SkipsMissingFiles(t *testing.T) {
	// With every target missing, MirrorSnapshot must return without
	// ever using the storage client.
	m := &Mirror{client: nil, bucket: "test-bucket", prefix: "caseboard"}

	ctx := context.Background()
	m.MirrorSnapshot(ctx, filepath.Join(t.TempDir(), "absent.json"), "")
}

// ============================================================================
// MirrorArtifacts Tests
// ============================================================================

func TestMirrorArtifacts_LogsInsteadOfFailing(t *testing.T) {
	// Missing files fail at os.Open, before the storage client is
	// touched, and the failure must stay contained.
	m := &Mirror{client: nil, bucket: "test-bucket", prefix: "caseboard"}

	ctx := context.Background()
	m.MirrorArtifacts(ctx, "backups", filepath.Join(t.TempDir(), "absent.json"), "")
}

// ============================================================================
// Integration Tests (require real GCS credentials)
// ============================================================================

func TestMirror_Integration(t *testing.T) {
	keyPath := os.Getenv("GCS_TEST_SA_KEY_PATH")
	bucketName := os.Getenv("GCS_TEST_BUCKET_NAME")

	if keyPath == "" || bucketName == "" {
		t.Skip("Skipping integration test: GCS_TEST_SA_KEY_PATH and GCS_TEST_BUCKET_NAME not set")
	}

	ctx := context.Background()
	m, err := New(ctx, Config{Bucket: bucketName, KeyFile: keyPath})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer m.Close()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "cases.json")
	if err := os.WriteFile(testFile, []byte(`{"cases":[]}`), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if err := m.UploadFile(ctx, "document", testFile); err != nil {
		t.Errorf("UploadFile failed: %v", err)
	}
}
