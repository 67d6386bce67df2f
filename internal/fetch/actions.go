package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/BrandonQQ/ocp-apac-2025-downloader/internal/agenda"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/models"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/pkg/db"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/pkg/fetcher"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/pkg/manifest"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/pkg/storage"
)

const (
	ManifestName = "manifest.csv"
	SummaryName  = "summary.json"
)

// FetchAction runs the full pipeline: extract the worklist from the agenda,
// download every artifact through the retry/mirror chain, and write the CSV
// manifest plus JSON summary.
func FetchAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	startTime := time.Now()

	cfg, err := ResolveConfig(c)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	items, err := loadWorklist(c.Context, cfg)
	if err != nil {
		// Failure of the extraction stage is one of the two process-fatal
		// conditions; per-item failures below never are.
		logger.Error("failed to build worklist", "error", err)
		os.Exit(2)
	}
	if len(items) == 0 {
		fmt.Fprintln(os.Stderr, "No downloadable links found in the agenda")
		os.Exit(1)
	}
	logger.Info("worklist extracted", "items", len(items), "workers", cfg.Workers, "prefer", cfg.Prefer)

	if err := os.MkdirAll(cfg.OutputDir, 0750); err != nil {
		logger.Error("failed to create output root", "dir", cfg.OutputDir, "error", err)
		os.Exit(2)
	}

	database, err := db.Open(cfg.OutputDir)
	if err != nil {
		logger.Warn("provenance database unavailable, continuing without it", "error", err)
		database = nil
	} else {
		defer database.Close()
	}

	var recorder fetcher.AttemptRecorder
	if database != nil {
		recorder = database
	}
	client := fetcher.New(fetcher.Options{
		Timeout:  time.Duration(cfg.TimeoutSeconds) * time.Second,
		Retries:  cfg.Retries,
		Insecure: cfg.Insecure,
		Logger:   logger,
		Recorder: recorder,
	})

	records := run(c.Context, logger, cfg, items, client, database)

	s := &storage.Storage{}
	if err := manifest.WriteCSV(filepath.Join(cfg.OutputDir, ManifestName), records); err != nil {
		logger.Error("failed to write manifest", "error", err)
	}
	summary := manifest.GenerateSummary(records, s)
	if err := manifest.WriteSummary(filepath.Join(cfg.OutputDir, SummaryName), summary); err != nil {
		logger.Error("failed to write summary", "error", err)
	}

	if cfg.Zip {
		zipPath := cfg.OutputDir + ".zip"
		if err := s.ZipDir(cfg.OutputDir, zipPath); err != nil {
			logger.Error("failed to package output directory", "error", err)
		} else {
			logger.Info("output packaged", "path", zipPath)
		}
	}

	stats := Stats{
		TotalItems:       len(records),
		Successful:       summary.Successful,
		Failed:           summary.Failed,
		TotalTimeSeconds: time.Since(startTime).Seconds(),
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(out))
	return nil
}

// ResolveConfig layers CLI flags over the optional YAML config file.
func ResolveConfig(c *cli.Context) (models.Config, error) {
	cfg := models.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := models.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.IsSet("agenda-url") {
		cfg.AgendaURL = c.String("agenda-url")
	}
	if c.IsSet("agenda-file") {
		cfg.AgendaFile = c.String("agenda-file")
	}
	if c.IsSet("output-dir") {
		cfg.OutputDir = c.String("output-dir")
	}
	if c.IsSet("prefer") {
		cfg.Prefer = c.String("prefer")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("retries") {
		cfg.Retries = c.Int("retries")
	}
	if c.IsSet("timeout") {
		cfg.TimeoutSeconds = c.Int("timeout")
	}
	if c.IsSet("insecure") {
		cfg.Insecure = c.Bool("insecure")
	}
	if c.IsSet("zip") {
		cfg.Zip = c.Bool("zip")
	}

	if cfg.Workers <= 0 {
		cfg.Workers = models.DefaultConfig().Workers
	}
	if cfg.AgendaURL == "" && cfg.AgendaFile == "" {
		return cfg, fmt.Errorf("either --agenda-url or --agenda-file is required")
	}
	return cfg, nil
}

func loadWorklist(ctx context.Context, cfg models.Config) ([]models.WorkItem, error) {
	var html []byte
	var err error
	if cfg.AgendaFile != "" {
		html, err = agenda.Load(cfg.AgendaFile)
	} else {
		html, err = agenda.Fetch(ctx, cfg.AgendaURL)
	}
	if err != nil {
		return nil, err
	}
	return agenda.Parse(html)
}
