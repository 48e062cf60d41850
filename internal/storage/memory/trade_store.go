package memory

import (
	"context"
	"sort"
	"sync"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Trade // keyed by trade_id
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.Trade),
	}
}

// Append adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Append(_ context.Context, t *domain.Trade) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	tradeCopy := *t
	s.data[t.TradeID] = &tradeCopy
	return nil
}

// Get retrieves a single trade by id. Returns ErrNotFound if not exists.
func (s *TradeStore) Get(_ context.Context, tradeID string) (*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[tradeID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	tradeCopy := *t
	return &tradeCopy, nil
}

// GetByToken retrieves all trades for a token, ordered by timestamp ASC.
func (s *TradeStore) GetByToken(_ context.Context, address string) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		if t.TokenAddress == address {
			tradeCopy := *t
			result = append(result, &tradeCopy)
		}
	}

	sortTrades(result)
	return result, nil
}

// All retrieves all trades, ordered by timestamp ASC.
func (s *TradeStore) All(_ context.Context) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		tradeCopy := *t
		result = append(result, &tradeCopy)
	}

	sortTrades(result)
	return result, nil
}

func sortTrades(trades []*domain.Trade) {
	sort.Slice(trades, func(i, j int) bool {
		if trades[i].Timestamp != trades[j].Timestamp {
			return trades[i].Timestamp < trades[j].Timestamp
		}
		return trades[i].TradeID < trades[j].TradeID
	})
}

// Verify interface compliance at compile time.
var _ storage.TradeStore = (*TradeStore)(nil)
