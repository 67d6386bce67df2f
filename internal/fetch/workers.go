package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/BrandonQQ/ocp-apac-2025-downloader/internal/common"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/models"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/pkg/db"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/pkg/fetcher"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/pkg/mirror"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/pkg/namer"
)

// run fans the worklist out across a bounded worker pool, one retrieval
// chain per artifact, and collects one ResultRecord per WorkItem. Per-group
// ordinals are assigned here, before dispatch, so filenames are stable no
// matter which worker finishes first.
func run(ctx context.Context, logger *slog.Logger, cfg models.Config, items []models.WorkItem, client *fetcher.Client, database *db.DB) []models.ResultRecord {
	prefer := mirror.ParseProvider(cfg.Prefer)

	jobs := make(chan Job, len(items))
	results := make(chan models.ResultRecord, len(items))

	var wg sync.WaitGroup
	for w := 1; w <= cfg.Workers; w++ {
		wg.Add(1)
		go worker(ctx, w, logger, prefer, client, database, &wg, jobs, results)
	}

	counters := make(map[string]int)
	for _, item := range items {
		group := namer.Sanitize(item.Group)
		counters[group]++

		var itemID int64
		if database != nil {
			id, err := database.InsertItem(item)
			if err != nil {
				logger.Warn("failed to record item", "group", item.Group, "title", item.Title, "error", err)
			} else {
				itemID = id
			}
		}

		jobs <- Job{
			ItemID:       itemID,
			Item:         item,
			DestDir:      filepath.Join(cfg.OutputDir, group),
			FallbackBase: fmt.Sprintf("%02d_%s", counters[group], namer.Sanitize(item.Title)),
		}
	}
	close(jobs)

	wg.Wait()
	close(results)
	logger.Info("all download workers finished")

	records := make([]models.ResultRecord, 0, len(items))
	for rec := range results {
		records = append(records, rec)
	}
	return records
}

func worker(ctx context.Context, id int, logger *slog.Logger, prefer mirror.Provider, client *fetcher.Client, database *db.DB, wg *sync.WaitGroup, jobs <-chan Job, results chan<- models.ResultRecord) {
	defer wg.Done()
	for job := range jobs {
		logger.Info("worker started item", "worker_id", id, "group", job.Item.Group, "title", job.Item.Title)

		plan := mirror.Build(prefer, job.Item.PrimaryURL, job.Item.AlternateURL)
		outcome, usedURL := plan.Run(ctx, func(ctx context.Context, url string, provider mirror.Provider) models.FetchOutcome {
			return client.FetchWithRetry(ctx, fetcher.Request{
				ItemID:       job.ItemID,
				URL:          url,
				Provider:     provider,
				DestDir:      job.DestDir,
				FallbackBase: job.FallbackBase,
			})
		})

		rec := models.ResultRecord{
			Group:        job.Item.Group,
			Title:        job.Item.Title,
			PrimaryURL:   job.Item.PrimaryURL,
			AlternateURL: job.Item.AlternateURL,
			UsedURL:      usedURL,
			ContentType:  outcome.ContentType,
		}
		if outcome.OK {
			rec.Status = models.StatusOK
			rec.SavedName = outcome.SavedName
			rec.SavedPath = outcome.SavedPath
		} else {
			rec.Status = models.StatusFailed
			rec.Note = outcome.Note
			logger.Warn("item failed", "worker_id", id, "title", job.Item.Title, "note", rec.Note)
		}

		persist(logger, database, job.ItemID, rec)
		results <- rec
	}
}

// persist stores the terminal record and, on success, the artifact's content
// hash. Provenance failures never fail the item itself.
func persist(logger *slog.Logger, database *db.DB, itemID int64, rec models.ResultRecord) {
	if database == nil || itemID == 0 {
		return
	}
	if err := database.UpdateItemResult(itemID, rec); err != nil {
		logger.Warn("failed to record result", "title", rec.Title, "error", err)
	}
	if rec.Status != models.StatusOK {
		return
	}
	data, err := os.ReadFile(rec.SavedPath)
	if err != nil {
		logger.Warn("failed to hash artifact", "path", rec.SavedPath, "error", err)
		return
	}
	if _, err := database.InsertArtifact(itemID, common.ContentHash(data), rec.SavedPath, int64(len(data))); err != nil {
		logger.Warn("failed to record artifact", "path", rec.SavedPath, "error", err)
	}
}
