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
	"testing"

	"github.com/spf13/cobra"
)

// subcommand finds a direct child of parent by name.
func subcommand(parent *cobra.Command, name string) *cobra.Command {
	for _, c := range parent.Commands() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func TestCommandTree(t *testing.T) {
	tests := []struct {
		parent   *cobra.Command
		children []string
	}{
		{rootCmd, []string{
			"board", "web", "case", "import", "export", "dedupe",
			"backups", "migrations", "audit", "summary", "doctor",
			"version", "stocks",
		}},
		{caseCmd, []string{"list", "add", "focus"}},
		{backupsCmd, []string{"prune"}},
		{migrationsCmd, []string{"show"}},
		{auditCmd, []string{"tail"}},
		{stocksCmd, []string{"add", "remove"}},
	}

	for _, tt := range tests {
		for _, name := range tt.children {
			child := subcommand(tt.parent, name)
			if child == nil {
				t.Errorf("%s has no %q subcommand", tt.parent.Name(), name)
				continue
			}
			if child.Short == "" {
				t.Errorf("%s %s has no short description", tt.parent.Name(), name)
			}
		}
	}
}

func TestCommandFlags(t *testing.T) {
	if f := rootCmd.PersistentFlags().Lookup("data"); f == nil {
		t.Error("root command is missing the --data override")
	}
	if f := webCmd.Flags().Lookup("addr"); f == nil {
		t.Error("web command is missing --addr")
	}
	if f := caseListCmd.Flags().Lookup("status"); f == nil {
		t.Error("case list is missing --status")
	}
	if f := caseListCmd.Flags().Lookup("attention"); f == nil {
		t.Error("case list is missing --attention")
	}
	if f := dedupeCmd.Flags().Lookup("force"); f == nil {
		t.Error("dedupe is missing --force")
	}
	if f := backupsPruneCmd.Flags().Lookup("keep"); f == nil {
		t.Error("backups prune is missing --keep")
	}

	f := auditTailCmd.Flags().Lookup("lines")
	if f == nil {
		t.Fatal("audit tail is missing --lines")
	}
	if f.DefValue != "20" {
		t.Errorf("audit tail --lines default = %s, want 20", f.DefValue)
	}
	if f.Shorthand != "n" {
		t.Errorf("audit tail --lines shorthand = %q, want n", f.Shorthand)
	}
}

// Commands with positional arguments must declare them so cobra rejects
// bad invocations before the run functions fire.
func TestCommandArgValidation(t *testing.T) {
	tests := []struct {
		cmd      *cobra.Command
		args     []string
		wantFail bool
	}{
		{caseFocusCmd, []string{}, true},
		{caseFocusCmd, []string{"24-CV-0001"}, false},
		{caseFocusCmd, []string{"24-CV-0001", "draft", "the", "motion"}, false},
		{importCmd, []string{}, true},
		{importCmd, []string{"cases.csv"}, false},
		{importCmd, []string{"a.csv", "b.csv"}, true},
		{exportCmd, []string{"cases.csv"}, false},
		{migrationsShowCmd, []string{}, false},
		{migrationsShowCmd, []string{"one.diff", "two.diff"}, true},
		{stocksAddCmd, []string{}, true},
		{stocksAddCmd, []string{"NVDA"}, false},
		{stocksRemoveCmd, []string{"NVDA", "AMD"}, true},
	}

	for _, tt := range tests {
		if tt.cmd.Args == nil {
			t.Errorf("%s declares no argument validator", tt.cmd.Name())
			continue
		}
		err := tt.cmd.Args(tt.cmd, tt.args)
		if tt.wantFail && err == nil {
			t.Errorf("%s accepted %v", tt.cmd.Name(), tt.args)
		}
		if !tt.wantFail && err != nil {
			t.Errorf("%s rejected %v: %v", tt.cmd.Name(), tt.args, err)
		}
	}
}
