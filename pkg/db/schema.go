package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- Items: one row per worklist artifact
CREATE TABLE IF NOT EXISTS items (
    item_id INTEGER PRIMARY KEY AUTOINCREMENT,
    "group" TEXT NOT NULL,
    title TEXT NOT NULL,
    primary_url TEXT,
    alternate_url TEXT,
    used_url TEXT,
    saved_name TEXT,
    saved_path TEXT,
    status TEXT,
    note TEXT,
    content_type TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE("group", title)
);

CREATE INDEX IF NOT EXISTS idx_items_group ON items("group");
CREATE INDEX IF NOT EXISTS idx_items_status ON items(status);

-- Attempts: every network attempt tracked, success or failure
CREATE TABLE IF NOT EXISTS attempts (
    attempt_id INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id INTEGER NOT NULL,
    url TEXT NOT NULL,
    provider TEXT,
    kind TEXT,
    note TEXT,
    success BOOLEAN NOT NULL,
    attempted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (item_id) REFERENCES items(item_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_attempts_item ON attempts(item_id);
CREATE INDEX IF NOT EXISTS idx_attempts_success ON attempts(success);

-- Artifacts: content pointers (DB stores metadata, disk stores content)
CREATE TABLE IF NOT EXISTS artifacts (
    artifact_id INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id INTEGER NOT NULL,
    content_hash TEXT NOT NULL,
    file_path TEXT NOT NULL,
    size_bytes INTEGER,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (item_id) REFERENCES items(item_id) ON DELETE CASCADE,
    UNIQUE(item_id)
);

CREATE INDEX IF NOT EXISTS idx_artifacts_item ON artifacts(item_id);
CREATE INDEX IF NOT EXISTS idx_artifacts_hash ON artifacts(content_hash);
`
