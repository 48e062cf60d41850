package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// PredictionStore is an in-memory implementation of storage.PredictionStore.
type PredictionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Prediction // keyed by token address
	ttl  int64                         // milliseconds
	now  func() int64                  // overridable in tests
}

// NewPredictionStore creates a new in-memory prediction store with the
// given record TTL.
func NewPredictionStore(ttl time.Duration) *PredictionStore {
	return &PredictionStore{
		data: make(map[string]*domain.Prediction),
		ttl:  ttl.Milliseconds(),
		now:  func() int64 { return time.Now().UnixMilli() },
	}
}

func (s *PredictionStore) expired(p *domain.Prediction, nowMs int64) bool {
	return nowMs-p.CreatedAt > s.ttl
}

// Put upserts a prediction keyed by token address.
func (s *PredictionStore) Put(_ context.Context, p *domain.Prediction) error {
	if p == nil || p.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	predCopy := *p
	s.data[p.TokenAddress] = &predCopy
	return nil
}

// Get retrieves a live prediction. Returns ErrNotFound if the address
// is unknown or the record has expired.
func (s *PredictionStore) Get(_ context.Context, address string) (*domain.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[address]
	if !exists || s.expired(p, s.now()) {
		return nil, storage.ErrNotFound
	}

	predCopy := *p
	return &predCopy, nil
}

// All retrieves all live predictions, ordered by Rank DESC.
func (s *PredictionStore) All(_ context.Context) ([]*domain.Prediction, error) {
	return s.top(-1, false), nil
}

// TopBuy retrieves up to n live BUY predictions, ordered by Rank DESC.
func (s *PredictionStore) TopBuy(_ context.Context, n int) ([]*domain.Prediction, error) {
	if n < 0 {
		return nil, storage.ErrInvalidInput
	}
	return s.top(n, true), nil
}

func (s *PredictionStore) top(n int, buyOnly bool) []*domain.Prediction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nowMs := s.now()
	var result []*domain.Prediction
	for _, p := range s.data {
		if s.expired(p, nowMs) {
			continue
		}
		if buyOnly && p.Action != domain.ActionBuy {
			continue
		}
		predCopy := *p
		result = append(result, &predCopy)
	}

	// Sort by rank DESC, address ASC as a deterministic tie-break
	sort.Slice(result, func(i, j int) bool {
		ri, rj := result[i].Rank(), result[j].Rank()
		if ri != rj {
			return ri > rj
		}
		return result[i].TokenAddress < result[j].TokenAddress
	})

	if n >= 0 && len(result) > n {
		result = result[:n]
	}
	return result
}

// Sweep deletes expired records and returns how many were removed.
func (s *PredictionStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nowMs := s.now()
	removed := 0
	for addr, p := range s.data {
		if s.expired(p, nowMs) {
			delete(s.data, addr)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored records, expired ones included.
func (s *PredictionStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

// Verify interface compliance at compile time.
var _ storage.PredictionStore = (*PredictionStore)(nil)
