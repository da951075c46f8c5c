package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps attempt timestamps in process memory behind one mutex
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]time.Time
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]time.Time),
	}
}

func (s *MemoryStore) Window(_ context.Context, identifier string, cutoff time.Time) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.pruneLocked(identifier, cutoff)
	out := make([]time.Time, len(ts))
	copy(out, ts)
	return out, nil
}

func (s *MemoryStore) Append(_ context.Context, identifier string, at, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[identifier] = append(s.entries[identifier], at)
	s.pruneLocked(identifier, cutoff)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, identifier)
	return nil
}

// Sweep prunes every identifier and forgets the ones left empty.
// It returns the number of identifiers removed.
func (s *MemoryStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for identifier := range s.entries {
		if len(s.pruneLocked(identifier, cutoff)) == 0 {
			removed++
		}
	}
	return removed
}

// Len returns the number of identifiers currently tracked
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// pruneLocked drops timestamps at or before cutoff in place. Callers hold s.mu.
func (s *MemoryStore) pruneLocked(identifier string, cutoff time.Time) []time.Time {
	ts, ok := s.entries[identifier]
	if !ok {
		return nil
	}

	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) == 0 {
		delete(s.entries, identifier)
		return nil
	}
	s.entries[identifier] = kept
	return kept
}
