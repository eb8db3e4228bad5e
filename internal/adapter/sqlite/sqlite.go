// Package sqlite stores the report key-value data and the offline caches in a
// single SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/couchcryptid/safescape-map-service/internal/offline"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS caches (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS cache_entries (
	cache_id INTEGER NOT NULL REFERENCES caches(id),
	url      TEXT NOT NULL,
	status   INTEGER NOT NULL,
	header   TEXT NOT NULL,
	body     BLOB NOT NULL,
	PRIMARY KEY (cache_id, url)
);`

// DB implements reports.KV and offline.CacheStorage.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	if path == MemoryPath {
		dsn = "file::memory:?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Each connection to :memory: is a separate database.
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &DB{db: db}, nil
}

// New wraps an already open database. The schema must exist.
func New(db *sql.DB) *DB {
	return &DB{db: db}
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks that the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Get returns the value stored under key.
func (d *DB) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := d.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Put stores value under key, replacing any previous value.
func (d *DB) Put(ctx context.Context, key string, value []byte) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Keys lists cache names in creation order.
func (d *DB) Keys(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT name FROM caches ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list caches: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan cache name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes the named cache and its entries.
func (d *DB) Delete(ctx context.Context, name string) (bool, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM caches WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find cache %s: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_id = ?`, id); err != nil {
		return false, fmt.Errorf("delete entries of %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM caches WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("delete cache %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// PutAll stores entries in the named cache in a single transaction.
func (d *DB) PutAll(ctx context.Context, name string, entries []offline.Entry) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `INSERT INTO caches (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return fmt.Errorf("create cache %s: %w", name, err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM caches WHERE name = ?`, name).Scan(&id); err != nil {
		return fmt.Errorf("find cache %s: %w", name, err)
	}

	for _, e := range entries {
		header, err := json.Marshal(e.Header)
		if err != nil {
			return fmt.Errorf("encode header for %s: %w", e.URL, err)
		}
		body := e.Body
		if body == nil {
			body = []byte{}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO cache_entries (cache_id, url, status, header, body) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(cache_id, url) DO UPDATE SET status = excluded.status, header = excluded.header, body = excluded.body`,
			id, e.URL, e.Status, string(header), body)
		if err != nil {
			return fmt.Errorf("store %s: %w", e.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Match looks up url in the named cache.
func (d *DB) Match(ctx context.Context, name, url string) (offline.Entry, bool, error) {
	var (
		status int
		header string
		body   []byte
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT e.status, e.header, e.body FROM cache_entries e
		 JOIN caches c ON c.id = e.cache_id
		 WHERE c.name = ? AND e.url = ?`,
		name, url).Scan(&status, &header, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return offline.Entry{}, false, nil
	}
	if err != nil {
		return offline.Entry{}, false, fmt.Errorf("match %s in %s: %w", url, name, err)
	}

	var h http.Header
	if err := json.Unmarshal([]byte(header), &h); err != nil {
		return offline.Entry{}, false, fmt.Errorf("decode header for %s: %w", url, err)
	}
	return offline.Entry{URL: url, Status: status, Header: h, Body: body}, true, nil
}
