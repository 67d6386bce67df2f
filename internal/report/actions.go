// Package report re-renders run reports from the provenance database.
package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/BrandonQQ/ocp-apac-2025-downloader/pkg/db"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/pkg/manifest"
)

// Action rebuilds the CSV manifest from the provenance database of an
// earlier run, without touching the network.
func Action(c *cli.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	outputDir := c.String("output-dir")

	database, err := db.Open(outputDir)
	if err != nil {
		logger.Error("failed to open provenance database", "dir", outputDir, "error", err)
		os.Exit(2)
	}
	defer database.Close()

	records, err := database.GetResults()
	if err != nil {
		logger.Error("failed to read results", "error", err)
		os.Exit(2)
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "No recorded items; run fetch first")
		os.Exit(1)
	}

	path := filepath.Join(outputDir, "manifest.csv")
	if err := manifest.WriteCSV(path, records); err != nil {
		logger.Error("failed to write manifest", "error", err)
		os.Exit(2)
	}

	fmt.Printf("Wrote %d records to %s\n", len(records), path)
	return nil
}
