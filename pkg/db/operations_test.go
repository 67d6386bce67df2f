package db

import (
	"testing"

	"github.com/BrandonQQ/ocp-apac-2025-downloader/models"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database := &DB{path: ":memory:"}
	var err error
	database.DB, err = openDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	return database
}

func TestInsertItem_DuplicateReturnsSameID(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	item := models.WorkItem{
		Group:      "Storage",
		Title:      "Flash Roadmap",
		PrimaryURL: "https://drive.google.com/uc?export=download&id=x",
	}

	first, err := db.InsertItem(item)
	if err != nil {
		t.Fatalf("InsertItem() error: %v", err)
	}
	if first == 0 {
		t.Fatal("InsertItem() returned 0 ID")
	}

	second, err := db.InsertItem(item)
	if err != nil {
		t.Fatalf("InsertItem() second call error: %v", err)
	}
	if second != first {
		t.Errorf("duplicate item got different ID: %d vs %d", second, first)
	}
}

func TestAttemptAndResultRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	itemID, err := db.InsertItem(models.WorkItem{Group: "Networking", Title: "DC Fabric"})
	if err != nil {
		t.Fatalf("InsertItem() error: %v", err)
	}

	db.RecordAttempt(itemID, "https://example.com/a", "gdrive", models.FailTransport, "transport_error:reset", false)
	db.RecordAttempt(itemID, "https://example.com/a", "gdrive", "", "", true)

	n, err := db.CountAttempts(itemID)
	if err != nil {
		t.Fatalf("CountAttempts() error: %v", err)
	}
	if n != 2 {
		t.Errorf("CountAttempts() = %d, want 2", n)
	}

	rec := models.ResultRecord{
		Group:       "Networking",
		Title:       "DC Fabric",
		UsedURL:     "https://example.com/a",
		SavedName:   "01_DC Fabric.pdf",
		SavedPath:   "/out/Networking/01_DC Fabric.pdf",
		Status:      models.StatusOK,
		ContentType: "application/pdf",
	}
	if err := db.UpdateItemResult(itemID, rec); err != nil {
		t.Fatalf("UpdateItemResult() error: %v", err)
	}

	if _, err := db.InsertArtifact(itemID, "deadbeef", rec.SavedPath, 1024); err != nil {
		t.Fatalf("InsertArtifact() error: %v", err)
	}

	results, err := db.GetResults()
	if err != nil {
		t.Fatalf("GetResults() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("GetResults() count = %d, want 1", len(results))
	}
	got := results[0]
	if got.Status != models.StatusOK || got.SavedPath != rec.SavedPath || got.UsedURL != rec.UsedURL {
		t.Errorf("GetResults()[0] = %+v, want stored record", got)
	}
}

func TestInsertArtifact_UpsertPerItem(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	itemID, err := db.InsertItem(models.WorkItem{Group: "G", Title: "T"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := db.InsertArtifact(itemID, "hash1", "/out/a.pdf", 10); err != nil {
		t.Fatalf("first InsertArtifact() error: %v", err)
	}
	if _, err := db.InsertArtifact(itemID, "hash2", "/out/a.pdf", 20); err != nil {
		t.Fatalf("second InsertArtifact() error: %v", err)
	}

	var hash string
	var size int64
	err = db.QueryRow("SELECT content_hash, size_bytes FROM artifacts WHERE item_id = ?", itemID).Scan(&hash, &size)
	if err != nil {
		t.Fatalf("querying artifact: %v", err)
	}
	if hash != "hash2" || size != 20 {
		t.Errorf("artifact = (%s, %d), want upserted (hash2, 20)", hash, size)
	}
}
