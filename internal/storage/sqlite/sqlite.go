// Package sqlite provides the persistent backing for the analysis cache
// and the quality trend log.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Storage wraps the shared database handle. It implements cache.Store
// (cache_store.go) and the gates trend sink/source (trends.go).
type Storage struct {
	db *sql.DB
}

const schema = `
-- Cached derived analyses, keyed by (subject_key, analysis_type).
CREATE TABLE IF NOT EXISTS analysis_cache (
    subject_key   TEXT NOT NULL,
    analysis_type TEXT NOT NULL,
    payload       TEXT NOT NULL,
    quality_score REAL NOT NULL DEFAULT 0,
    created_at    DATETIME NOT NULL,
    expires_at    DATETIME NOT NULL,
    hit_count     INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (subject_key, analysis_type)
);

CREATE INDEX IF NOT EXISTS idx_analysis_cache_expires ON analysis_cache(expires_at);

-- Append-only quality trend log, one row per assessment.
CREATE TABLE IF NOT EXISTS quality_trends (
    id              TEXT PRIMARY KEY,
    session_id      TEXT NOT NULL,
    timestamp       DATETIME NOT NULL,
    overall_score   REAL NOT NULL,
    category_scores TEXT NOT NULL,
    action          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quality_trends_timestamp ON quality_trends(timestamp);
CREATE INDEX IF NOT EXISTS idx_quality_trends_session ON quality_trends(session_id);
`

// Open creates or opens the curator database at path.
func Open(path string) (*Storage, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// WAL mode for concurrent readers during pipeline runs.
	db, err := sql.Open("sqlite3",
		"file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close releases the database handle.
func (s *Storage) Close() error {
	return s.db.Close()
}
