package metrics

import (
	"sync"
	"time"
)

// Source says where a loaded dataset came from.
type Source string

const (
	SourceNone    Source = ""
	SourceNetwork Source = "network"
	SourceCache   Source = "cache"
)

// LoadStats collects dataset load outcomes. It is safe for concurrent use:
// cache write-backs report from their own goroutine.
type LoadStats struct {
	mu sync.Mutex

	fetchLatency      WelfordState // milliseconds, successful fetches only
	fetchAttempts     int
	fetchFailures     int
	writeBacks        int
	writeBackFailures int

	source   Source
	records  int
	loadedAt time.Time
	storedAt time.Time
}

// NewLoadStats creates an empty collector.
func NewLoadStats() *LoadStats {
	return &LoadStats{}
}

// RecordFetch records one dataset fetch attempt.
func (s *LoadStats) RecordFetch(d time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetchAttempts++
	if err != nil {
		s.fetchFailures++
		return
	}
	s.fetchLatency.Update(float64(d) / float64(time.Millisecond))
}

// RecordWriteBack records the outcome of one cache write-back.
func (s *LoadStats) RecordWriteBack(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writeBacks++
	if err != nil {
		s.writeBackFailures++
	}
}

// RecordLoad records a successful load. storedAt is the cache snapshot time
// and is zero for network loads.
func (s *LoadStats) RecordLoad(source Source, records int, storedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.source = source
	s.records = records
	s.loadedAt = time.Now().UTC()
	s.storedAt = storedAt
}

// LoadSnapshot is a point-in-time copy of LoadStats.
type LoadSnapshot struct {
	Source               Source     `json:"source"`
	Records              int        `json:"records"`
	LoadedAt             *time.Time `json:"loadedAt,omitempty"`
	StoredAt             *time.Time `json:"storedAt,omitempty"`
	FetchAttempts        int        `json:"fetchAttempts"`
	FetchFailures        int        `json:"fetchFailures"`
	FetchLatencyMeanMS   float64    `json:"fetchLatencyMeanMs"`
	FetchLatencyStdDevMS float64    `json:"fetchLatencyStdDevMs"`
	WriteBacks           int        `json:"writeBacks"`
	WriteBackFailures    int        `json:"writeBackFailures"`
}

// Snapshot returns a copy of the current statistics.
func (s *LoadStats) Snapshot() LoadSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := LoadSnapshot{
		Source:               s.source,
		Records:              s.records,
		FetchAttempts:        s.fetchAttempts,
		FetchFailures:        s.fetchFailures,
		FetchLatencyMeanMS:   s.fetchLatency.Mean,
		FetchLatencyStdDevMS: s.fetchLatency.StdDev(),
		WriteBacks:           s.writeBacks,
		WriteBackFailures:    s.writeBackFailures,
	}
	if !s.loadedAt.IsZero() {
		t := s.loadedAt
		snap.LoadedAt = &t
	}
	if !s.storedAt.IsZero() {
		t := s.storedAt
		snap.StoredAt = &t
	}
	return snap
}
