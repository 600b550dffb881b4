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
	"context"
	"fmt"
	"log"

	"github.com/AleutianAI/caseboard/internal/csvio"
	"github.com/AleutianAI/caseboard/internal/datastore"
	"github.com/spf13/cobra"
)

func runImport(cmd *cobra.Command, args []string) {
	path := args[0]
	imported, err := csvio.Import(path)
	if err != nil {
		log.Fatalf("Failed to import %s: %v", path, err)
	}
	if len(imported) == 0 {
		fmt.Println("No importable rows found.")
		return
	}

	store := openStore()
	ctx := context.Background()
	doc, err := store.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load the case document: %v", err)
	}

	merged := csvio.Merge(doc.Cases, imported)
	result, err := store.Save(ctx, merged, datastore.SaveOptions{
		Actor:  currentActor(),
		Action: "import",
	})
	if err != nil {
		log.Fatalf("Failed to save the merged cases: %v", err)
	}

	fmt.Printf("Imported %d row(s); the board now tracks %d cases at version %d.\n",
		len(imported), len(merged), result.Version)
	fmt.Printf("Recorded %d audit entries.\n", len(result.AuditEntries))
	mirrorAfterSave(ctx, store)
}

func runExport(cmd *cobra.Command, args []string) {
	path := args[0]
	store := openStore()
	doc, err := store.Read(context.Background())
	if err != nil {
		log.Fatalf("Failed to read the case document: %v", err)
	}
	if err := csvio.Export(path, doc.Cases); err != nil {
		log.Fatalf("Failed to export to %s: %v", path, err)
	}
	fmt.Printf("Exported %d cases to %s\n", len(doc.Cases), path)
}

func runDedupe(cmd *cobra.Command, args []string) {
	store := openStore()
	ctx := context.Background()
	doc, err := store.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load the case document: %v", err)
	}

	deduped := csvio.Dedupe(doc.Cases)
	removed := len(doc.Cases) - len(deduped)
	if removed == 0 {
		fmt.Println("No duplicate case numbers found.")
		return
	}

	fmt.Printf("%d of %d records repeat an earlier case number.\n", removed, len(doc.Cases))
	force, _ := cmd.Flags().GetBool("force")
	if !force && !confirm("Remove them, keeping the first record for each number? (yes/no): ") {
		fmt.Println("Aborted.")
		return
	}

	result, err := store.Save(ctx, deduped, datastore.SaveOptions{
		Actor:  currentActor(),
		Action: "dedupe",
	})
	if err != nil {
		log.Fatalf("Failed to save the deduplicated cases: %v", err)
	}
	fmt.Printf("Removed %d record(s). Document version %d.\n", removed, result.Version)
	mirrorAfterSave(ctx, store)
}
