package storage

import (
	"context"

	"token-radar/internal/domain"
)

// OpportunityStore provides access to live opportunity records.
// Records expire after a TTL; expired records are invisible to reads
// and reclaimed by Sweep.
type OpportunityStore interface {
	// Put upserts an opportunity keyed by token address. Re-detection
	// overwrites the previous record and refreshes its TTL.
	Put(ctx context.Context, o *domain.Opportunity) error

	// Get retrieves a live opportunity. Returns ErrNotFound if the
	// address is unknown or the record has expired.
	Get(ctx context.Context, address string) (*domain.Opportunity, error)

	// All retrieves all live opportunities, ordered by Score DESC.
	All(ctx context.Context) ([]*domain.Opportunity, error)

	// TopN retrieves up to n live opportunities, ordered by Score DESC.
	TopN(ctx context.Context, n int) ([]*domain.Opportunity, error)

	// Sweep deletes expired records and returns how many were removed.
	Sweep(ctx context.Context) (int, error)

	// Len returns the number of stored records, expired ones included.
	Len(ctx context.Context) (int, error)
}

// PredictionStore provides access to live prediction records.
// Same TTL semantics as OpportunityStore, with a shorter window.
type PredictionStore interface {
	// Put upserts a prediction keyed by token address.
	Put(ctx context.Context, p *domain.Prediction) error

	// Get retrieves a live prediction. Returns ErrNotFound if the
	// address is unknown or the record has expired.
	Get(ctx context.Context, address string) (*domain.Prediction, error)

	// All retrieves all live predictions, ordered by Rank DESC.
	All(ctx context.Context) ([]*domain.Prediction, error)

	// TopBuy retrieves up to n live BUY predictions, ordered by Rank DESC.
	TopBuy(ctx context.Context, n int) ([]*domain.Prediction, error)

	// Sweep deletes expired records and returns how many were removed.
	Sweep(ctx context.Context) (int, error)

	// Len returns the number of stored records, expired ones included.
	Len(ctx context.Context) (int, error)
}

// PositionStore provides access to the open position book.
type PositionStore interface {
	// Put upserts a position keyed by token address.
	Put(ctx context.Context, p *domain.Position) error

	// Get retrieves a position. Returns ErrNotFound if not exists.
	Get(ctx context.Context, address string) (*domain.Position, error)

	// Remove deletes a position. Returns ErrNotFound if not exists.
	Remove(ctx context.Context, address string) error

	// All retrieves all positions, ordered by entry time ASC.
	All(ctx context.Context) ([]*domain.Position, error)

	// Len returns the number of open positions.
	Len(ctx context.Context) (int, error)
}

// TradeStore provides access to the immutable trade log.
type TradeStore interface {
	// Append adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Append(ctx context.Context, t *domain.Trade) error

	// Get retrieves a single trade by id. Returns ErrNotFound if not exists.
	Get(ctx context.Context, tradeID string) (*domain.Trade, error)

	// GetByToken retrieves all trades for a token, ordered by timestamp ASC.
	GetByToken(ctx context.Context, address string) ([]*domain.Trade, error)

	// All retrieves all trades, ordered by timestamp ASC.
	All(ctx context.Context) ([]*domain.Trade, error)
}

// SnapshotStore receives periodic opportunity snapshots for offline
// analysis. Implementations are append-only sinks.
type SnapshotStore interface {
	// InsertOpportunities writes one snapshot row per opportunity,
	// all stamped with the same capture time.
	InsertOpportunities(ctx context.Context, opps []*domain.Opportunity, capturedAt int64) error
}
