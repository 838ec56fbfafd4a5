// Package storage provides the durable key-value store behind reports,
// session fields, and the local account registry.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	initialOpenBackoff = 200 * time.Millisecond
	maxOpenBackoff     = 5 * time.Second
)

type dialect struct {
	driver string
	get    string
	set    string
	del    string
	schema []string
}

var dialects = map[string]dialect{
	"sqlite": {
		driver: "sqlite",
		get:    `SELECT value FROM kv WHERE key = ?`,
		set: `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		del: `DELETE FROM kv WHERE key = ?`,
		schema: []string{
			`PRAGMA journal_mode=WAL`,
			`PRAGMA busy_timeout=5000`,
			`CREATE TABLE IF NOT EXISTS kv (
				key        TEXT PRIMARY KEY,
				value      TEXT NOT NULL,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		},
	},
	"postgres": {
		driver: "postgres",
		get:    `SELECT value FROM kv WHERE key = $1`,
		set: `INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		del: `DELETE FROM kv WHERE key = $1`,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS kv (
				key        TEXT PRIMARY KEY,
				value      TEXT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
		},
	},
}

// SQLStore is a KV table in SQLite or Postgres.
type SQLStore struct {
	db *sql.DB
	d  dialect
}

// Open connects to the given driver ("sqlite" or "postgres") and ensures
// the kv table exists. For sqlite, dsn is a file path.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// SQLite allows one writer at a time.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init %s schema: %w", driver, err)
		}
	}
	return &SQLStore{db: db, d: d}, nil
}

// OpenWithRetry calls Open up to attempts times with exponential backoff,
// starting at 200ms and capped at 5s. An unsupported driver fails at once.
func OpenWithRetry(ctx context.Context, driver, dsn string, attempts int, logger *slog.Logger) (*SQLStore, error) {
	if _, ok := dialects[driver]; !ok {
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	attempts = max(attempts, 1)

	backoff := initialOpenBackoff
	var err error
	for i := 1; i <= attempts; i++ {
		var s *SQLStore
		if s, err = Open(ctx, driver, dsn); err == nil {
			return s, nil
		}
		if i == attempts {
			break
		}
		logger.Warn("store open failed, retrying", "driver", driver, "attempt", i, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return nil, fmt.Errorf("open %s: %w", driver, ctx.Err())
		}
		backoff = retry.NextBackoff(backoff, maxOpenBackoff)
	}
	return nil, err
}

// Get returns the value for key; false when absent.
func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.d.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set inserts or replaces key.
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.d.set, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.d.del, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// CheckReadiness pings the database.
func (s *SQLStore) CheckReadiness(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store unavailable: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
