package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// schemaSQL is embedded at compile time from schema.sql.
//
//go:embed schema.sql
var schemaSQL string

// DB wraps a SQLite database connection with write serialization
type DB struct {
	conn *sql.DB
	// writeSem serializes all write operations. Writers waiting on it honor
	// their context.
	writeSem chan struct{}
}

// Connect opens a SQLite database with WAL mode enabled
func Connect(dbPath string) (*DB, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time. The write-back goroutine and
	// the asset installer may write while a fallback read is in flight, so all
	// writes also go through writeSem.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			slog.Warn("failed to set pragma", "pragma", pragma, "error", err)
		}
	}

	slog.Info("connected to SQLite cache store", "path", dbPath)
	return &DB{conn: conn, writeSem: make(chan struct{}, 1)}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// LockWrite acquires the write lock. Must be paired with UnlockWrite.
func (db *DB) LockWrite() {
	db.writeSem <- struct{}{}
}

// LockWriteContext acquires the write lock, or returns ctx.Err() if ctx ends
// first. On success it must be paired with UnlockWrite.
func (db *DB) LockWriteContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case db.writeSem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UnlockWrite releases the write lock.
func (db *DB) UnlockWrite() {
	<-db.writeSem
}

// EnsureSchema creates tables if they don't exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	db.LockWrite()
	defer db.UnlockWrite()

	if _, err := db.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// GetSnapshot returns the snapshot stored under cacheName and key.
// A miss returns nil, nil.
func (db *DB) GetSnapshot(ctx context.Context, cacheName, key string) (*Snapshot, error) {
	query := `
		SELECT snapshot_id, cache_name, request_key, status_code, content_type, body, stored_at_utc
		FROM cache_snapshots
		WHERE cache_name = ? AND request_key = ?
	`

	var (
		s           Snapshot
		storedAtStr string
	)
	err := db.conn.QueryRowContext(ctx, query, cacheName, key).Scan(
		&s.ID,
		&s.CacheName,
		&s.Key,
		&s.StatusCode,
		&s.ContentType,
		&s.Body,
		&storedAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s/%s: %w", cacheName, key, err)
	}

	storedAt, err := time.Parse(time.RFC3339Nano, storedAtStr)
	if err != nil {
		return nil, fmt.Errorf("invalid stored_at_utc %q: %w", storedAtStr, err)
	}
	s.StoredAt = storedAt

	return &s, nil
}

// PutSnapshot inserts or replaces the snapshot for its cache name and key.
func (db *DB) PutSnapshot(ctx context.Context, s Snapshot) error {
	s.fillDefaults()

	if err := db.LockWriteContext(ctx); err != nil {
		return fmt.Errorf("failed to write snapshot %s/%s: %w", s.CacheName, s.Key, err)
	}
	defer db.UnlockWrite()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO cache_snapshots (
			cache_name, request_key, snapshot_id, status_code, content_type, body, stored_at_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (cache_name, request_key) DO UPDATE SET
			snapshot_id = excluded.snapshot_id,
			status_code = excluded.status_code,
			content_type = excluded.content_type,
			body = excluded.body,
			stored_at_utc = excluded.stored_at_utc
	`,
		s.CacheName,
		s.Key,
		s.ID,
		s.StatusCode,
		s.ContentType,
		s.Body,
		s.StoredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to write snapshot %s/%s: %w", s.CacheName, s.Key, err)
	}
	return nil
}

// CacheNames lists the distinct cache names present in the store, sorted.
func (db *DB) CacheNames(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT DISTINCT cache_name FROM cache_snapshots ORDER BY cache_name")
	if err != nil {
		return nil, fmt.Errorf("failed to list caches: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan cache name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
