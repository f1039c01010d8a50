package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema_postgres.sql
var postgresSchemaSQL string

// PostgresStore keeps cache snapshots in PostgreSQL. It offers the same
// operations as DB so several processes can share one durable cache.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres creates a connection pool for databaseURL and verifies it.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

// EnsureSchema creates tables if they don't exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// GetSnapshot returns the snapshot stored under cacheName and key.
// A miss returns nil, nil.
func (p *PostgresStore) GetSnapshot(ctx context.Context, cacheName, key string) (*Snapshot, error) {
	query := `
		SELECT snapshot_id, cache_name, request_key, status_code, content_type, body, stored_at_utc
		FROM cache_snapshots
		WHERE cache_name = $1 AND request_key = $2
	`

	var s Snapshot
	err := p.pool.QueryRow(ctx, query, cacheName, key).Scan(
		&s.ID,
		&s.CacheName,
		&s.Key,
		&s.StatusCode,
		&s.ContentType,
		&s.Body,
		&s.StoredAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s/%s: %w", cacheName, key, err)
	}
	s.StoredAt = s.StoredAt.UTC()

	return &s, nil
}

// PutSnapshot inserts or replaces the snapshot for its cache name and key.
func (p *PostgresStore) PutSnapshot(ctx context.Context, s Snapshot) error {
	s.fillDefaults()

	_, err := p.pool.Exec(ctx, `
		INSERT INTO cache_snapshots (
			cache_name, request_key, snapshot_id, status_code, content_type, body, stored_at_utc
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (cache_name, request_key) DO UPDATE SET
			snapshot_id = EXCLUDED.snapshot_id,
			status_code = EXCLUDED.status_code,
			content_type = EXCLUDED.content_type,
			body = EXCLUDED.body,
			stored_at_utc = EXCLUDED.stored_at_utc
	`,
		s.CacheName,
		s.Key,
		s.ID,
		s.StatusCode,
		s.ContentType,
		s.Body,
		s.StoredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write snapshot %s/%s: %w", s.CacheName, s.Key, err)
	}
	return nil
}

// CacheNames lists the distinct cache names present in the store, sorted.
func (p *PostgresStore) CacheNames(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, "SELECT DISTINCT cache_name FROM cache_snapshots ORDER BY cache_name")
	if err != nil {
		return nil, fmt.Errorf("failed to list caches: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan cache names: %w", err)
	}
	return names, nil
}

// DeleteCache removes every snapshot stored under cacheName and reports how many were removed.
func (p *PostgresStore) DeleteCache(ctx context.Context, cacheName string) (int64, error) {
	tag, err := p.pool.Exec(ctx, "DELETE FROM cache_snapshots WHERE cache_name = $1", cacheName)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache %s: %w", cacheName, err)
	}
	return tag.RowsAffected(), nil
}
