// Command rollcorrect applies human box corrections to a stored entry and
// prints the reconciliation stats, optionally exporting retraining feedback.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"roll-counter/internal/config"
	"roll-counter/internal/export"
	"roll-counter/internal/logging"
	"roll-counter/internal/model"
	"roll-counter/internal/reconcile"
	"roll-counter/internal/store"
)

func main() {
	entryID := flag.Int64("entry", 0, "Entry ID to correct")
	boxesPath := flag.String("boxes", "", "Path to JSON file with the corrected box list")
	actorID := flag.Int64("user", 0, "ID of the correcting user")
	feedbackPath := flag.String("feedback", "", "Write retraining feedback JSON to this path")
	summary := flag.Bool("summary", false, "Print the accuracy summary over all entries")
	flag.Parse()

	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	db, err := store.New(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if *summary {
		entries, err := db.ListEntries()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list entries: %v\n", err)
			os.Exit(1)
		}
		s := export.Summarize(entries)
		fmt.Printf("Entries:   %d (%d edited)\n", s.Entries, s.EditedEntries)
		fmt.Printf("AI total:  %d\n", s.AITotal)
		fmt.Printf("Verified:  %d\n", s.FinalTotal)
		fmt.Printf("Accuracy:  %.1f%%\n", s.AccuracyPercent)
		return
	}

	if *entryID == 0 || *boxesPath == "" {
		fmt.Println("Usage: rollcorrect -entry <id> -boxes <file.json> [-user <id>] [-feedback out.json]")
		fmt.Println("       rollcorrect -summary")
		os.Exit(1)
	}

	data, err := os.ReadFile(*boxesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read boxes file: %v\n", err)
		os.Exit(1)
	}
	var corrected []model.DetectedBox
	if err := json.Unmarshal(data, &corrected); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse boxes file: %v\n", err)
		os.Exit(1)
	}

	engine := reconcile.NewEngine(db, log)
	outcome, err := engine.Reconcile(context.Background(), *entryID, corrected, *actorID)
	if err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			fmt.Fprintf(os.Stderr, "Entry %d does not exist\n", *entryID)
		} else {
			fmt.Fprintf(os.Stderr, "Reconciliation failed: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Printf("Entry %d reconciled, final count %d\n", *entryID, outcome.FinalCount)
	fmt.Printf("  unchanged: %d\n", outcome.Stats.Unchanged)
	fmt.Printf("  moved:     %d\n", outcome.Stats.Moved)
	fmt.Printf("  resized:   %d\n", outcome.Stats.Resized)
	fmt.Printf("  deleted:   %d\n", outcome.Stats.Deleted)
	fmt.Printf("  added:     %d\n", outcome.Stats.Added)
	if outcome.Stats.Ambiguous > 0 {
		fmt.Printf("  ambiguous: %d\n", outcome.Stats.Ambiguous)
	}

	if *feedbackPath != "" {
		detections, err := db.DetectionsByEntry(*entryID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load detections: %v\n", err)
			os.Exit(1)
		}

		f, err := os.Create(*feedbackPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create feedback file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		if err := export.WriteJSON(f, export.Records(detections)); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write feedback: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nFeedback written to %s\n", *feedbackPath)
	}
}
