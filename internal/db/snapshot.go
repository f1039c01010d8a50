package db

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is a stored copy of a response, keyed by cache name and request key.
type Snapshot struct {
	ID          string
	CacheName   string
	Key         string
	StatusCode  int
	ContentType string
	Body        []byte
	StoredAt    time.Time
}

// NewSnapshot builds a snapshot with a fresh ID, stamped with the current UTC time.
func NewSnapshot(cacheName, key string, statusCode int, contentType string, body []byte) Snapshot {
	return Snapshot{
		ID:          uuid.New().String(),
		CacheName:   cacheName,
		Key:         key,
		StatusCode:  statusCode,
		ContentType: contentType,
		Body:        body,
		StoredAt:    time.Now().UTC(),
	}
}

func (s *Snapshot) fillDefaults() {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.StoredAt.IsZero() {
		s.StoredAt = time.Now().UTC()
	}
	if s.Body == nil {
		s.Body = []byte{}
	}
}
