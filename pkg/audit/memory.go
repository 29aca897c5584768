package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage implements Storage with an in-memory slice. It is used
// in tests and as a fallback when no durable backend is configured.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []*Record
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Store appends a copy of the record.
func (s *MemoryStorage) Store(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *record
	s.records = append(s.records, &clone)
	return nil
}

// DeleteBefore removes records with a timestamp before cutoff.
func (s *MemoryStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var deleted int64
	for _, record := range s.records {
		if record.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, record)
	}
	s.records = kept

	return deleted, nil
}

// Count returns the number of stored records.
func (s *MemoryStorage) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.records)), nil
}

// DeleteOldest removes the n oldest records by timestamp.
func (s *MemoryStorage) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || len(s.records) == 0 {
		return 0, nil
	}

	sort.Slice(s.records, func(i, j int) bool {
		return s.records[i].Timestamp.Before(s.records[j].Timestamp)
	})

	if n > int64(len(s.records)) {
		n = int64(len(s.records))
	}
	s.records = s.records[n:]

	return n, nil
}

// Records returns a snapshot of the stored records.
func (s *MemoryStorage) Records() []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]*Record, len(s.records))
	copy(snapshot, s.records)
	return snapshot
}

// Close is a no-op.
func (s *MemoryStorage) Close() error {
	return nil
}
