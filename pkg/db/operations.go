package db

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/BrandonQQ/ocp-apac-2025-downloader/models"
)

// writeMu serializes writes; modernc SQLite allows one writer at a time and
// worker goroutines record attempts concurrently.
var writeMu sync.Mutex

// InsertItem inserts a worklist item, returning its item_id. An existing
// (group, title) row is reused.
func (db *DB) InsertItem(item models.WorkItem) (int64, error) {
	writeMu.Lock()
	defer writeMu.Unlock()

	var existingID int64
	err := db.QueryRow(`SELECT item_id FROM items WHERE "group" = ? AND title = ?`,
		item.Group, item.Title).Scan(&existingID)
	if err == nil {
		return existingID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to check existing item: %w", err)
	}

	result, err := db.Exec(`
		INSERT INTO items ("group", title, primary_url, alternate_url)
		VALUES (?, ?, ?, ?)
	`, item.Group, item.Title, item.PrimaryURL, item.AlternateURL)
	if err != nil {
		return 0, fmt.Errorf("failed to insert item: %w", err)
	}

	itemID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get item ID: %w", err)
	}
	return itemID, nil
}

// RecordAttempt records one network attempt. It satisfies the fetcher's
// AttemptRecorder interface, so errors are logged by the caller's absence:
// a provenance write must never fail the download itself.
func (db *DB) RecordAttempt(itemID int64, url, provider, kind, note string, ok bool) {
	writeMu.Lock()
	defer writeMu.Unlock()

	_, _ = db.Exec(`
		INSERT INTO attempts (item_id, url, provider, kind, note, success)
		VALUES (?, ?, ?, ?, ?, ?)
	`, itemID, url, provider, kind, note, ok)
}

// UpdateItemResult stores the terminal outcome for an item.
func (db *DB) UpdateItemResult(itemID int64, rec models.ResultRecord) error {
	writeMu.Lock()
	defer writeMu.Unlock()

	_, err := db.Exec(`
		UPDATE items
		SET used_url = ?, saved_name = ?, saved_path = ?, status = ?, note = ?,
		    content_type = ?, updated_at = CURRENT_TIMESTAMP
		WHERE item_id = ?
	`, rec.UsedURL, rec.SavedName, rec.SavedPath, rec.Status, rec.Note, rec.ContentType, itemID)
	if err != nil {
		return fmt.Errorf("failed to update item result: %w", err)
	}
	return nil
}

// InsertArtifact records the saved file's path, size, and content hash.
func (db *DB) InsertArtifact(itemID int64, contentHash, filePath string, sizeBytes int64) (int64, error) {
	writeMu.Lock()
	defer writeMu.Unlock()

	result, err := db.Exec(`
		INSERT INTO artifacts (item_id, content_hash, file_path, size_bytes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			content_hash = excluded.content_hash,
			file_path = excluded.file_path,
			size_bytes = excluded.size_bytes
	`, itemID, contentHash, filePath, sizeBytes)
	if err != nil {
		return 0, fmt.Errorf("failed to insert artifact: %w", err)
	}
	return result.LastInsertId()
}

// GetResults returns the stored result record for every item.
func (db *DB) GetResults() ([]models.ResultRecord, error) {
	rows, err := db.Query(`
		SELECT "group", title,
		       COALESCE(primary_url, ''), COALESCE(alternate_url, ''),
		       COALESCE(used_url, ''), COALESCE(saved_name, ''),
		       COALESCE(saved_path, ''), COALESCE(status, ''),
		       COALESCE(note, ''), COALESCE(content_type, '')
		FROM items
		ORDER BY "group", title
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var records []models.ResultRecord
	for rows.Next() {
		var r models.ResultRecord
		if err := rows.Scan(&r.Group, &r.Title, &r.PrimaryURL, &r.AlternateURL,
			&r.UsedURL, &r.SavedName, &r.SavedPath, &r.Status, &r.Note, &r.ContentType); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CountAttempts returns how many attempts were recorded for an item.
func (db *DB) CountAttempts(itemID int64) (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM attempts WHERE item_id = ?", itemID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return n, nil
}
