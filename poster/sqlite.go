package poster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS poster_cache (
    key       TEXT PRIMARY KEY,
    mime      TEXT NOT NULL,
    data      BLOB NOT NULL,
    stored_at TEXT NOT NULL
)`

// SQLiteCache keeps posters in a single SQLite table
type SQLiteCache struct {
	db   *sql.DB
	path string
}

// OpenSQLiteCache opens or creates the cache database at path
func OpenSQLiteCache(ctx context.Context, path string) (*SQLiteCache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create poster_cache table: %w", err)
	}

	return &SQLiteCache{db: db, path: path}, nil
}

// Get retrieves the row for key
func (c *SQLiteCache) Get(ctx context.Context, key string) (*CachedResponse, bool, error) {
	var resp CachedResponse
	err := c.db.QueryRowContext(ctx,
		`SELECT mime, data FROM poster_cache WHERE key = ?`, key,
	).Scan(&resp.MIMEType, &resp.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select poster: %w", err)
	}
	return &resp, true, nil
}

// Put inserts or replaces the row for key
func (c *SQLiteCache) Put(ctx context.Context, key string, resp CachedResponse) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO poster_cache (key, mime, data, stored_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET mime = excluded.mime, data = excluded.data, stored_at = excluded.stored_at`,
		key,
		resp.MIMEType,
		resp.Data,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert poster: %w", err)
	}
	return nil
}

// Path returns the database file location
func (c *SQLiteCache) Path() string {
	return c.path
}

// Close closes the underlying database connection.
func (c *SQLiteCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

var _ ResponseCache = (*SQLiteCache)(nil)
