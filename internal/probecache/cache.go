// Package probecache persists raw ffprobe JSON in SQLite so repeated runs
// over an unchanged tree skip the probe subprocess. Entries are keyed by
// path and only hit when the file's size and modification time still match.
package probecache

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

const schema = `CREATE TABLE IF NOT EXISTS probes (
	path      TEXT PRIMARY KEY,
	size      INTEGER NOT NULL,
	mtime     INTEGER NOT NULL,
	data      BLOB NOT NULL,
	probed_at INTEGER NOT NULL
)`

// Cache is a SQLite-backed probe cache. It is safe for concurrent use; all
// access goes through a single connection.
type Cache struct {
	db   *sql.DB
	path string
}

// Open creates or opens the cache database at path, creating parent
// directories as needed.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open probe cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init probe cache schema: %w", err)
	}
	return &Cache{db: db, path: path}, nil
}

// Path returns the database file location.
func (c *Cache) Path() string { return c.path }

// Lookup returns the cached JSON for path when size and mtime match the
// stored entry.
func (c *Cache) Lookup(ctx context.Context, path string, size, mtime int64) ([]byte, bool, error) {
	var (
		data           []byte
		gotSize, gotMt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT size, mtime, data FROM probes WHERE path = ?`, path,
	).Scan(&gotSize, &gotMt, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("probe cache lookup %q: %w", path, err)
	}
	if gotSize != size || gotMt != mtime {
		return nil, false, nil
	}
	return data, true, nil
}

// Store upserts the JSON for path.
func (c *Cache) Store(ctx context.Context, path string, size, mtime int64, data []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO probes (path, size, mtime, data, probed_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   size = excluded.size, mtime = excluded.mtime,
		   data = excluded.data, probed_at = excluded.probed_at`,
		path, size, mtime, data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("probe cache store %q: %w", path, err)
	}
	return nil
}

// Close closes the database.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
