package store

import (
	"context"
	"sort"
	"sync"

	"solidum/internal/registration/models"
	"solidum/pkg/platform/sentinel"
)

// InMemoryStore keeps registrations in process memory. It backs tests and
// deployments without a database configured.
type InMemoryStore struct {
	mu            sync.RWMutex
	registrations map[string]*models.Registration
	files         map[string][]models.File // keyed by registration id
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		registrations: make(map[string]*models.Registration),
		files:         make(map[string][]models.File),
	}
}

func (s *InMemoryStore) CreateRegistration(_ context.Context, r *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.registrations[r.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *r
	s.registrations[r.ID] = &clone
	return nil
}

func (s *InMemoryStore) GetRegistration(_ context.Context, id string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.registrations[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func (s *InMemoryStore) DeleteRegistration(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registrations, id)
	delete(s.files, id)
	return nil
}

func (s *InMemoryStore) AddFile(_ context.Context, f *models.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registrations[f.RegistrationID]; !ok {
		return sentinel.ErrNotFound
	}
	s.files[f.RegistrationID] = append(s.files[f.RegistrationID], *f)
	return nil
}

func (s *InMemoryStore) ListFiles(_ context.Context, registrationID string) ([]models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := s.files[registrationID]
	out := make([]models.File, len(files))
	copy(out, files)
	return out, nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Registration, 0, len(s.registrations))
	for _, r := range s.registrations {
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.From != nil && r.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && r.CreatedAt.After(*filter.To) {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, id string, status models.Status) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.registrations[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	r.Status = status
	clone := *r
	return &clone, nil
}
