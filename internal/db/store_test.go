package db

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
)

func TestOpen_SQLiteCreatesDirectoryAndSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "ril100.db")

	store, err := Open(ctx, "sqlite", path, "")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer store.Close()

	if err := store.PutSnapshot(ctx, NewSnapshot("ril100data", "http://x/ril100.csv", http.StatusOK, "text/csv", []byte("a"))); err != nil {
		t.Fatalf("PutSnapshot() error: %v", err)
	}
	got, err := store.GetSnapshot(ctx, "ril100data", "http://x/ril100.csv")
	if err != nil || got == nil {
		t.Fatalf("GetSnapshot() = %v, %v", got, err)
	}
}

func TestOpen_None(t *testing.T) {
	store, err := Open(context.Background(), "none", "", "")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if store != nil {
		t.Errorf("Open(none) = %v, want nil store", store)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), "redis", "", ""); err == nil {
		t.Error("Open() expected error for unknown backend")
	}
}
