package static

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mini-rodalies-3d/ril100/internal/config"
	"github.com/mini-rodalies-3d/ril100/internal/db"
	"github.com/mini-rodalies-3d/ril100/internal/metrics"
	"github.com/mini-rodalies-3d/ril100/internal/static/dataset"
)

// DatasetCacheName is the durable cache that holds the last good dataset.
const DatasetCacheName = "ril100data"

// SnapshotStore is the durable cache the loader falls back to.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, cacheName, key string) (*db.Snapshot, error)
	PutSnapshot(ctx context.Context, s db.Snapshot) error
}

// LoadResult is a parsed dataset plus where it came from.
type LoadResult struct {
	Records []dataset.Record
	// Columns is the header row in file order.
	Columns []string
	Source  metrics.Source
	// StoredAt is when the cached copy was written; zero for network loads.
	StoredAt time.Time
}

// Loader fetches the dataset, preferring the network and falling back to the
// durable cache.
type Loader struct {
	url              string
	client           *http.Client
	store            SnapshotStore
	stats            *metrics.LoadStats
	writeBackTimeout time.Duration

	pending sync.WaitGroup
}

// NewLoader creates a loader for cfg.DatasetURL. store may be nil, in which
// case nothing is persisted and there is no fallback.
func NewLoader(cfg *config.Config, store SnapshotStore, stats *metrics.LoadStats) *Loader {
	if stats == nil {
		stats = metrics.NewLoadStats()
	}
	return &Loader{
		url: cfg.DatasetURL,
		client: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		store:            store,
		stats:            stats,
		writeBackTimeout: cfg.WriteBackTimeout,
	}
}

// Load returns the freshest dataset available.
//
// A successful fetch is parsed and returned straight away; its body is copied
// to the durable cache in the background. When the fetch fails the cached copy
// is parsed instead. Parse errors are returned as-is for either source.
func (l *Loader) Load(ctx context.Context) (*LoadResult, error) {
	body, fetchErr := l.fetch(ctx)
	if fetchErr == nil {
		records, columns, err := parse(body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse fresh dataset: %w", err)
		}

		l.writeBack(body)
		l.stats.RecordLoad(metrics.SourceNetwork, len(records), time.Time{})

		slog.Info("dataset loaded", "source", metrics.SourceNetwork, "records", len(records))
		return &LoadResult{Records: records, Columns: columns, Source: metrics.SourceNetwork}, nil
	}

	slog.Warn("failed to fetch fresh dataset, trying cache", "url", l.url, "error", fetchErr)

	snapshot, cacheErr := l.cached(ctx)
	if cacheErr != nil {
		return nil, &DataUnavailableError{FetchErr: fetchErr, CacheErr: cacheErr}
	}

	records, columns, err := parse(snapshot.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cached dataset: %w", err)
	}
	l.stats.RecordLoad(metrics.SourceCache, len(records), snapshot.StoredAt)

	slog.Info("dataset loaded", "source", metrics.SourceCache, "records", len(records), "stored_at", snapshot.StoredAt)
	return &LoadResult{Records: records, Columns: columns, Source: metrics.SourceCache, StoredAt: snapshot.StoredAt}, nil
}

func parse(body []byte) ([]dataset.Record, []string, error) {
	columns, records, err := dataset.ParseWithHeader(string(body))
	return records, columns, err
}

// Wait blocks until all background write-backs have finished.
func (l *Loader) Wait() {
	l.pending.Wait()
}

// fetch downloads the dataset, bypassing intermediate caches.
func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	start := time.Now()
	body, err := l.doFetch(ctx)
	l.stats.RecordFetch(time.Since(start), err)
	return body, err
}

func (l *Loader) doFetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, &FetchError{URL: l.url, Err: err}
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: l.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: l.url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: l.url, StatusCode: resp.StatusCode, Err: err}
	}
	return body, nil
}

func (l *Loader) cached(ctx context.Context) (*db.Snapshot, error) {
	if l.store == nil {
		return nil, errors.New("no durable cache configured")
	}

	snapshot, err := l.store.GetSnapshot(ctx, DatasetCacheName, l.url)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, errNoSnapshot
	}
	return snapshot, nil
}

// writeBack persists body in the background. It runs on its own deadline,
// detached from the caller's context, and only logs failures.
func (l *Loader) writeBack(body []byte) {
	if l.store == nil {
		return
	}

	snapshot := db.NewSnapshot(DatasetCacheName, l.url, http.StatusOK, "text/csv; charset=utf-8", body)

	l.pending.Add(1)
	go func() {
		defer l.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), l.writeBackTimeout)
		defer cancel()

		err := l.store.PutSnapshot(ctx, snapshot)
		l.stats.RecordWriteBack(err)
		if err != nil {
			slog.Warn("failed to cache dataset", "url", l.url, "error", err)
			return
		}
		slog.Debug("dataset cached", "url", l.url, "snapshot_id", snapshot.ID, "bytes", len(body))
	}()
}
