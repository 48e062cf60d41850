package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// OpportunityStore is an in-memory implementation of storage.OpportunityStore.
// Records older than the configured TTL are invisible to reads and
// reclaimed by Sweep.
type OpportunityStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Opportunity // keyed by token address
	ttl  int64                          // milliseconds
	now  func() int64                   // overridable in tests
}

// NewOpportunityStore creates a new in-memory opportunity store with the
// given record TTL.
func NewOpportunityStore(ttl time.Duration) *OpportunityStore {
	return &OpportunityStore{
		data: make(map[string]*domain.Opportunity),
		ttl:  ttl.Milliseconds(),
		now:  func() int64 { return time.Now().UnixMilli() },
	}
}

func (s *OpportunityStore) expired(o *domain.Opportunity, nowMs int64) bool {
	return nowMs-o.DetectedAt > s.ttl
}

// Put upserts an opportunity keyed by token address.
func (s *OpportunityStore) Put(_ context.Context, o *domain.Opportunity) error {
	if o == nil || o.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation
	oppCopy := *o
	s.data[o.Address] = &oppCopy
	return nil
}

// Get retrieves a live opportunity. Returns ErrNotFound if the address
// is unknown or the record has expired.
func (s *OpportunityStore) Get(_ context.Context, address string) (*domain.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.data[address]
	if !exists || s.expired(o, s.now()) {
		return nil, storage.ErrNotFound
	}

	// Return a copy
	oppCopy := *o
	return &oppCopy, nil
}

// All retrieves all live opportunities, ordered by Score DESC.
func (s *OpportunityStore) All(_ context.Context) ([]*domain.Opportunity, error) {
	return s.top(-1), nil
}

// TopN retrieves up to n live opportunities, ordered by Score DESC.
func (s *OpportunityStore) TopN(_ context.Context, n int) ([]*domain.Opportunity, error) {
	if n < 0 {
		return nil, storage.ErrInvalidInput
	}
	return s.top(n), nil
}

func (s *OpportunityStore) top(n int) []*domain.Opportunity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nowMs := s.now()
	var result []*domain.Opportunity
	for _, o := range s.data {
		if s.expired(o, nowMs) {
			continue
		}
		oppCopy := *o
		result = append(result, &oppCopy)
	}

	// Sort by score DESC, address ASC as a deterministic tie-break
	sort.Slice(result, func(i, j int) bool {
		si, sj := result[i].Score(), result[j].Score()
		if si != sj {
			return si > sj
		}
		return result[i].Address < result[j].Address
	})

	if n >= 0 && len(result) > n {
		result = result[:n]
	}
	return result
}

// Sweep deletes expired records and returns how many were removed.
func (s *OpportunityStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nowMs := s.now()
	removed := 0
	for addr, o := range s.data {
		if s.expired(o, nowMs) {
			delete(s.data, addr)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored records, expired ones included.
func (s *OpportunityStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

// Verify interface compliance at compile time.
var _ storage.OpportunityStore = (*OpportunityStore)(nil)
