package dedupe

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	rec       *Record // nil while the reservation is pending
	expiresAt time.Time
}

// InMemoryStore is the single-process implementation used when Redis is not
// configured. Expired entries are dropped lazily on access.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]*memoryEntry)}
}

func (s *InMemoryStore) Acquire(_ context.Context, id string, now time.Time) (*Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		if now.Before(e.expiresAt) {
			return e.rec, false, nil
		}
		delete(s.entries, id)
	}
	// Pending reservations expire too, in case a crashed pipeline never
	// released its hold.
	s.entries[id] = &memoryEntry{expiresAt: now.Add(TTL)}
	return nil, true, nil
}

func (s *InMemoryStore) Complete(_ context.Context, id string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &memoryEntry{rec: &rec, expiresAt: rec.StoredAt.Add(TTL)}
	return nil
}

func (s *InMemoryStore) Release(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok && e.rec == nil {
		delete(s.entries, id)
	}
	return nil
}

// Len reports how many ids are currently tracked, counting entries that have
// expired but not yet been swept.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
