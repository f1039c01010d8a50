package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Store is a durable cache of response snapshots grouped into named caches.
// DB and PostgresStore both implement it.
type Store interface {
	GetSnapshot(ctx context.Context, cacheName, key string) (*Snapshot, error)
	PutSnapshot(ctx context.Context, s Snapshot) error
	CacheNames(ctx context.Context) ([]string, error)
	DeleteCache(ctx context.Context, cacheName string) (int64, error)
	Close() error
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*PostgresStore)(nil)
)

// Open connects the store for backend ("sqlite", "postgres" or "none") and
// ensures its schema. The "none" backend returns a nil Store.
func Open(ctx context.Context, backend, sqlitePath, databaseURL string) (Store, error) {
	switch backend {
	case "none":
		return nil, nil

	case "sqlite":
		if dir := filepath.Dir(sqlitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		database, err := Connect(sqlitePath)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx); err != nil {
			database.Close()
			return nil, err
		}
		return database, nil

	case "postgres":
		store, err := ConnectPostgres(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
