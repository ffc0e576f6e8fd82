// Package mappings stores type-mapping definitions for reuse across
// ingestion runs: list, fetch by id, create, update, delete.
package mappings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lynxform/pkg/models"
)

// ErrNotFound is returned when no mapping exists for the requested id.
var ErrNotFound = errors.New("type mapping not found")

// StoredMapping is a persisted mapping plus registry bookkeeping.
type StoredMapping struct {
	ID        string             `json:"id"`
	Mapping   models.TypeMapping `json:"mapping"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Store is the registry contract. Create and Update validate the mapping
// before persisting, so a stored mapping is always evaluable.
type Store interface {
	List(ctx context.Context, activeOnly bool) ([]StoredMapping, error)
	Get(ctx context.Context, id string) (*StoredMapping, error)
	Create(ctx context.Context, m *models.TypeMapping) (*StoredMapping, error)
	Update(ctx context.Context, id string, m *models.TypeMapping) (*StoredMapping, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore is an in-process Store for tests and single-run CLI use.
type MemoryStore struct {
	mu       sync.RWMutex
	mappings map[string]StoredMapping
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mappings: make(map[string]StoredMapping),
		now:      time.Now,
	}
}

func (s *MemoryStore) List(_ context.Context, activeOnly bool) ([]StoredMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]StoredMapping, 0, len(s.mappings))
	for _, m := range s.mappings {
		if activeOnly && !m.Mapping.Active {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*StoredMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.mappings[id]
	if !ok {
		return nil, fmt.Errorf("mapping %s: %w", id, ErrNotFound)
	}
	return &m, nil
}

func (s *MemoryStore) Create(_ context.Context, m *models.TypeMapping) (*StoredMapping, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	stored := StoredMapping{
		ID:        uuid.NewString(),
		Mapping:   *m,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mappings[stored.ID] = stored
	return &stored, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, m *models.TypeMapping) (*StoredMapping, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.mappings[id]
	if !ok {
		return nil, fmt.Errorf("mapping %s: %w", id, ErrNotFound)
	}
	existing.Mapping = *m
	existing.UpdatedAt = s.now().UTC()
	s.mappings[id] = existing
	return &existing, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mappings[id]; !ok {
		return fmt.Errorf("mapping %s: %w", id, ErrNotFound)
	}
	delete(s.mappings, id)
	return nil
}
