package store

import (
	"context"
	"strings"
	"sync"

	"solidum/pkg/platform/sentinel"
)

// InMemoryStore keeps the allowlist in a map, for tests and for running
// without PostgreSQL.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]User)}
}

// Add inserts or replaces a user, keyed by lowercased email.
func (s *InMemoryStore) Add(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(u.Email)] = u
}

func (s *InMemoryStore) GetByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[strings.ToLower(email)]
	if !ok || !u.Active {
		return nil, sentinel.ErrNotFound
	}
	out := u
	return &out, nil
}
