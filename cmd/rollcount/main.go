// Command rollcount runs roll detection on a rack photo and outputs the
// count, color breakdown, and per-box results.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"os"
	"sort"

	"roll-counter/internal/config"
	"roll-counter/internal/detect"
	rollimage "roll-counter/internal/image"
	"roll-counter/internal/logging"
	"roll-counter/internal/store"
	"roll-counter/internal/vision"
)

func main() {
	imagePath := flag.String("image", "", "Path to rack photo (JPEG, PNG, or TIFF)")
	annotatePath := flag.String("annotate", "", "Write annotated copy to this path")
	jsonOut := flag.Bool("json", false, "Print the result as JSON")
	dbPath := flag.String("db", "", "Record the result as a new entry in this database")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: rollcount -image <path> [-annotate out.jpg] [-json] [-db rollcount.db]")
		os.Exit(1)
	}

	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	var external detect.ExternalCounter
	if cfg.ExternalVisionEnabled && cfg.ExternalVisionKey != "" {
		external = vision.NewExternalVision(cfg, log)
	}

	var learned detect.Learned
	if cfg.LearnedModelEnabled {
		d := vision.NewLearnedDetector(cfg, log)
		defer d.Close()
		if d.Loaded() {
			learned = d
		}
	}

	pipeline := detect.NewPipeline(cfg, external, learned, log)

	result, err := pipeline.Analyze(context.Background(), *imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Detection failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Printf("Detected %d rolls (method: %s)\n", result.TotalCount, result.Method)
		if result.CropInfo != nil {
			fmt.Printf("Auto-cropped to %dx%d (%.1f%% reduction)\n",
				result.CropInfo.Width, result.CropInfo.Height, result.CropInfo.ReductionPercent)
		}

		colors := make([]string, 0, len(result.ColorBreakdown))
		for c := range result.ColorBreakdown {
			colors = append(colors, c)
		}
		sort.Strings(colors)
		fmt.Printf("\nColor breakdown:\n")
		for _, c := range colors {
			fmt.Printf("  %-10s %d\n", c, result.ColorBreakdown[c])
		}

		fmt.Printf("\n%-6s %8s %8s %8s %8s %-8s %10s\n",
			"#", "X%", "Y%", "W%", "H%", "Color", "Confidence")
		for i, b := range result.Boxes {
			fmt.Printf("%-6d %8.2f %8.2f %8.2f %8.2f %-8s %10.2f\n",
				i+1, b.X, b.Y, b.Width, b.Height, b.Color, b.Confidence)
		}
	}

	if *annotatePath != "" {
		mat, err := rollimage.ReadMat(*imagePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to reload image: %v\n", err)
			os.Exit(1)
		}
		defer mat.Close()

		// Box coordinates are relative to the auto-cropped frame
		target := mat
		if ci := result.CropInfo; ci != nil {
			cropped := mat.Region(image.Rect(ci.X, ci.Y, ci.X+ci.Width, ci.Y+ci.Height))
			defer cropped.Close()
			target = cropped
		}

		if err := detect.Annotate(target, result.Boxes, *annotatePath); err != nil {
			fmt.Fprintf(os.Stderr, "Annotation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nAnnotated image written to %s\n", *annotatePath)
	}

	if *dbPath != "" {
		db, err := store.New(*dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		thumbPath := *imagePath + ".thumb.jpg"
		if img, err := rollimage.Load(*imagePath); err == nil {
			if err := rollimage.WriteThumbnail(img, thumbPath, 400); err != nil {
				fmt.Fprintf(os.Stderr, "Thumbnail failed: %v\n", err)
				thumbPath = ""
			}
		} else {
			thumbPath = ""
		}

		entry, err := db.InsertFromResult(*imagePath, thumbPath, result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save entry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nSaved as entry %d\n", entry.ID)
	}
}
