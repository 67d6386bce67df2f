// Package manifest renders run results as a CSV manifest and a JSON summary.
package manifest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/BrandonQQ/ocp-apac-2025-downloader/models"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/pkg/storage"
)

// CSVHeader is the column layout of the CSV manifest, one row per WorkItem.
var CSVHeader = []string{
	"group", "title", "primary_url", "alternate_url", "used_url",
	"saved_name", "saved_path", "status", "note", "content_type",
}

// WriteCSV writes one row per record to path.
func WriteCSV(path string, records []models.ResultRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write manifest header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Group, r.Title, r.PrimaryURL, r.AlternateURL, r.UsedURL,
			r.SavedName, r.SavedPath, r.Status, r.Note, r.ContentType,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write manifest row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// GenerateSummary aggregates records into a summary manifest. File sizes come
// from the storage layer for records that point at a saved file.
func GenerateSummary(records []models.ResultRecord, s *storage.Storage) SummaryManifest {
	m := SummaryManifest{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		TotalItems:  len(records),
	}
	for _, r := range records {
		item := ItemSummary{
			Group:       r.Group,
			Title:       r.Title,
			Status:      r.Status,
			Note:        r.Note,
			SavedPath:   r.SavedPath,
			ContentType: r.ContentType,
		}
		if r.Status == models.StatusOK {
			m.Successful++
			if stats, err := s.GetFileStats(r.SavedPath); err == nil {
				item.SizeBytes = stats.SizeBytes
			}
		} else {
			m.Failed++
		}
		m.Results = append(m.Results, item)
	}
	return m
}

// WriteSummary renders the summary as indented JSON at path.
func WriteSummary(path string, m SummaryManifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
