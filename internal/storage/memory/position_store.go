package memory

import (
	"context"
	"sort"
	"sync"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Position // keyed by token address
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		data: make(map[string]*domain.Position),
	}
}

// Put upserts a position keyed by token address.
func (s *PositionStore) Put(_ context.Context, p *domain.Position) error {
	if p == nil || p.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	posCopy := *p
	s.data[p.TokenAddress] = &posCopy
	return nil
}

// Get retrieves a position. Returns ErrNotFound if not exists.
func (s *PositionStore) Get(_ context.Context, address string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	posCopy := *p
	return &posCopy, nil
}

// Remove deletes a position. Returns ErrNotFound if not exists.
func (s *PositionStore) Remove(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[address]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, address)
	return nil
}

// All retrieves all positions, ordered by entry time ASC.
func (s *PositionStore) All(_ context.Context) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Position
	for _, p := range s.data {
		posCopy := *p
		result = append(result, &posCopy)
	}

	// Sort by entry time ASC, address ASC as a deterministic tie-break
	sort.Slice(result, func(i, j int) bool {
		if result[i].EntryTime != result[j].EntryTime {
			return result[i].EntryTime < result[j].EntryTime
		}
		return result[i].TokenAddress < result[j].TokenAddress
	})

	return result, nil
}

// Len returns the number of open positions.
func (s *PositionStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

// Verify interface compliance at compile time.
var _ storage.PositionStore = (*PositionStore)(nil)
