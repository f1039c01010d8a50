package db

import (
	"context"
	"fmt"
	"log/slog"
)

// DeleteCache removes every snapshot stored under cacheName and reports how many were removed.
func (db *DB) DeleteCache(ctx context.Context, cacheName string) (int64, error) {
	if err := db.LockWriteContext(ctx); err != nil {
		return 0, fmt.Errorf("failed to delete cache %s: %w", cacheName, err)
	}
	defer db.UnlockWrite()

	result, err := db.conn.ExecContext(ctx, "DELETE FROM cache_snapshots WHERE cache_name = ?", cacheName)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache %s: %w", cacheName, err)
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		slog.Info("cache deleted", "cache", cacheName, "snapshots", rows)
	}
	return rows, nil
}
