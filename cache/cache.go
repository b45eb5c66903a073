package cache

import (
	"bytes"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/scipunch/feedsnap/feed"
)

//go:embed schema.sql
var schemaSQL string

// Cache keeps the last fetched document of every feed
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// CacheStats contains cache statistics
type CacheStats struct {
	Snapshots   int
	Entries     int
	OldestEntry time.Time
}

// NewCache initializes cache database at the given path
func NewCache(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &Cache{db: db, now: time.Now}, nil
}

// Put stores doc as the latest snapshot of its source URL
func (c *Cache) Put(doc feed.Document) error {
	var buf bytes.Buffer
	if err := feed.Save(&buf, doc); err != nil {
		return fmt.Errorf("failed to encode snapshot of '%s' with %w", doc.SourceURL, err)
	}
	now := c.now().Unix()

	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO snapshots
		(source_url, title, entry_count, document, retrieved_at, created_at, accessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, doc.SourceURL, doc.Title, len(doc.Entries), buf.Bytes(), doc.RetrievedAt.Unix(), now, now)
	if err != nil {
		slog.Warn("snapshot write error", "error", err, "url", truncate(doc.SourceURL, 50))
		return err
	}

	slog.Debug("snapshot stored", "url", doc.SourceURL, "entries", len(doc.Entries))
	return nil
}

// Get returns the latest snapshot of sourceURL
// Returns: (document, found, error)
func (c *Cache) Get(sourceURL string) (feed.Document, bool, error) {
	var blob []byte

	err := c.db.QueryRow(
		"SELECT document FROM snapshots WHERE source_url = ?",
		sourceURL,
	).Scan(&blob)

	if errors.Is(err, sql.ErrNoRows) {
		return feed.Document{}, false, nil
	}
	if err != nil {
		return feed.Document{}, false, fmt.Errorf("failed to read snapshot of '%s' with %w", sourceURL, err)
	}

	doc, err := feed.Load(bytes.NewReader(blob))
	if err != nil {
		return feed.Document{}, false, fmt.Errorf("corrupt snapshot of '%s' with %w", sourceURL, err)
	}

	_, err = c.db.Exec(
		"UPDATE snapshots SET accessed_at = ? WHERE source_url = ?",
		c.now().Unix(), sourceURL,
	)
	if err != nil {
		slog.Warn("snapshot access update error", "error", err, "url", truncate(sourceURL, 50))
	}

	return doc, true, nil
}

// Clear removes all snapshots
func (c *Cache) Clear() error {
	if _, err := c.db.Exec("DELETE FROM snapshots"); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}

// Stats returns cache statistics
func (c *Cache) Stats() (CacheStats, error) {
	var stats CacheStats
	var entries sql.NullInt64
	var oldestUnix sql.NullInt64

	err := c.db.QueryRow(
		"SELECT COUNT(*), SUM(entry_count), MIN(created_at) FROM snapshots",
	).Scan(&stats.Snapshots, &entries, &oldestUnix)
	if err != nil {
		return stats, err
	}

	stats.Entries = int(entries.Int64)
	if oldestUnix.Valid && oldestUnix.Int64 > 0 {
		stats.OldestEntry = time.Unix(oldestUnix.Int64, 0)
	}

	return stats, nil
}

// Close closes the cache database
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// DefaultCachePath returns the default cache database path
func DefaultCachePath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home := os.Getenv("HOME")
		if home == "" {
			return "cache.db" // Fallback to current directory
		}
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "feedsnap", "cache.db")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
