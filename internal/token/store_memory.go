package token

import (
	"context"
	"sync"
	"time"

	"solidum/pkg/platform/sentinel"
)

// InMemoryStore holds token payloads in process memory. Expired tokens are
// removed lazily when looked up.
type InMemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]Data
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tokens: make(map[string]Data)}
}

func (s *InMemoryStore) Put(_ context.Context, token string, data Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = data
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, token string, now time.Time) (Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.tokens[token]
	if !ok {
		return Data{}, sentinel.ErrNotFound
	}
	if data.Expired(now) {
		delete(s.tokens, token)
		return Data{}, sentinel.ErrExpired
	}
	return data, nil
}

func (s *InMemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

// Len reports how many tokens are currently held, including expired tokens
// that have not been looked up yet.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
