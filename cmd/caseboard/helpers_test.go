// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AleutianAI/caseboard/internal/schema"
)

// TestExpandHome checks tilde expansion against the real home directory.
func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	if got := expandHome("~/caseboard/data"); got != filepath.Join(home, "caseboard", "data") {
		t.Errorf("expandHome(~/caseboard/data) = %q", got)
	}
	if got := expandHome("~"); got != home {
		t.Errorf("expandHome(~) = %q, want %q", got, home)
	}
	if got := expandHome("/var/lib/caseboard"); got != "/var/lib/caseboard" {
		t.Errorf("absolute paths must pass through, got %q", got)
	}
	if got := expandHome("data"); got != "data" {
		t.Errorf("relative paths must pass through, got %q", got)
	}
}

func TestFormatSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{1536, "1.5 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, tc := range cases {
		if got := formatSize(tc.in); got != tc.want {
			t.Errorf("formatSize(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatAge(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Second, "<1m"},
		{5 * time.Minute, "5m"},
		{90 * time.Minute, "1h 30m"},
		{26 * time.Hour, "1d 2h"},
	}
	for _, tc := range cases {
		if got := formatAge(tc.in); got != tc.want {
			t.Errorf("formatAge(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClip(t *testing.T) {
	if got := clip("short", 10); got != "short" {
		t.Errorf("clip(short, 10) = %q", got)
	}
	if got := clip("a long case name here", 10); got != "a long ca…" {
		t.Errorf("clip = %q", got)
	}
	if n := len([]rune(clip("a long case name here", 10))); n != 10 {
		t.Errorf("clipped length = %d, want 10", n)
	}
}

// TestCurrentActor walks the USER then USERNAME then fallback chain.
func TestCurrentActor(t *testing.T) {
	t.Setenv("USER", "brenda")
	t.Setenv("USERNAME", "ignored")
	if got := currentActor(); got != "brenda" {
		t.Errorf("currentActor with USER = %q, want brenda", got)
	}

	t.Setenv("USER", "")
	if got := currentActor(); got != "ignored" {
		t.Errorf("currentActor with USERNAME = %q, want ignored", got)
	}

	t.Setenv("USERNAME", "")
	if got := currentActor(); got != "user" {
		t.Errorf("currentActor fallback = %q, want user", got)
	}
}

func TestFilterCases(t *testing.T) {
	cases := []schema.CaseRecord{
		{CaseNumber: "1", Status: schema.StatusOpen, Attention: schema.AttentionWaiting},
		{CaseNumber: "2", Status: schema.StatusOpen, Attention: schema.AttentionNeeds},
		{CaseNumber: "3", Status: schema.StatusClosed, Attention: schema.AttentionNeeds},
	}

	if got := filterCases(cases, "", ""); len(got) != 3 {
		t.Errorf("no filters should keep all, got %d", len(got))
	}
	if got := filterCases(cases, schema.StatusOpen, ""); len(got) != 2 {
		t.Errorf("status filter got %d, want 2", len(got))
	}
	if got := filterCases(cases, "", schema.AttentionNeeds); len(got) != 2 {
		t.Errorf("attention filter got %d, want 2", len(got))
	}

	both := filterCases(cases, schema.StatusOpen, schema.AttentionNeeds)
	if len(both) != 1 || both[0].CaseNumber != "2" {
		t.Errorf("combined filter got %+v", both)
	}
}

func TestIndexByCaseNumber(t *testing.T) {
	cases := []schema.CaseRecord{
		{CaseNumber: "24-CV-0001"},
		{CaseNumber: "24-CV-0002"},
	}
	if idx := indexByCaseNumber(cases, "24-CV-0002"); idx != 1 {
		t.Errorf("index = %d, want 1", idx)
	}
	if idx := indexByCaseNumber(cases, "missing"); idx != -1 {
		t.Errorf("missing case index = %d, want -1", idx)
	}
}
