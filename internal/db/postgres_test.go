package db

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

func setupPostgresStore(t *testing.T) *PostgresStore {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set - skipping integration test")
	}

	ctx := context.Background()
	store, err := ConnectPostgres(ctx, databaseURL)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	return store
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	store := setupPostgresStore(t)
	ctx := context.Background()

	// Unique cache name so parallel runs against a shared database don't collide.
	cacheName := "test-" + uuid.NewString()
	t.Cleanup(func() { store.DeleteCache(context.Background(), cacheName) })

	want := NewSnapshot(cacheName, "http://example.test/ril100.csv", 200, "text/csv", []byte("a,b\n1,2\n"))
	if err := store.PutSnapshot(ctx, want); err != nil {
		t.Fatalf("PutSnapshot failed: %v", err)
	}

	got, err := store.GetSnapshot(ctx, cacheName, want.Key)
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetSnapshot returned nil for a stored snapshot")
	}
	if got.ID != want.ID || string(got.Body) != string(want.Body) {
		t.Errorf("got %+v, expected %+v", got, want)
	}

	miss, err := store.GetSnapshot(ctx, cacheName, "missing")
	if err != nil || miss != nil {
		t.Errorf("GetSnapshot miss = %v, %v; expected nil, nil", miss, err)
	}

	deleted, err := store.DeleteCache(ctx, cacheName)
	if err != nil {
		t.Fatalf("DeleteCache failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteCache removed %d rows, expected 1", deleted)
	}
}
