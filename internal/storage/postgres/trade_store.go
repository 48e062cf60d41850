package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// Append adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Append(ctx context.Context, t *domain.Trade) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trades (
			trade_id, token_address, action, amount, price,
			ts, settlement_id, exit_reason, pnl, status
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10
		)
	`

	_, err := s.pool.Exec(ctx, query,
		t.TradeID, t.TokenAddress, string(t.Action), t.Amount, t.Price,
		t.Timestamp, t.SettlementID, string(t.ExitReason), t.PnL, string(t.Status),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// Get retrieves a single trade by id. Returns ErrNotFound if not exists.
func (s *TradeStore) Get(ctx context.Context, tradeID string) (*domain.Trade, error) {
	query := `
		SELECT trade_id, token_address, action, amount, price,
		       ts, settlement_id, exit_reason, pnl, status
		FROM trades
		WHERE trade_id = $1
	`

	var t domain.Trade
	var action, exitReason, status string
	err := s.pool.QueryRow(ctx, query, tradeID).Scan(
		&t.TradeID, &t.TokenAddress, &action, &t.Amount, &t.Price,
		&t.Timestamp, &t.SettlementID, &exitReason, &t.PnL, &status,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query trade: %w", err)
	}
	t.Action = domain.TradeAction(action)
	t.ExitReason = domain.ExitReason(exitReason)
	t.Status = domain.TradeStatus(status)
	return &t, nil
}

// GetByToken retrieves all trades for a token, ordered by timestamp ASC.
func (s *TradeStore) GetByToken(ctx context.Context, address string) ([]*domain.Trade, error) {
	query := `
		SELECT trade_id, token_address, action, amount, price,
		       ts, settlement_id, exit_reason, pnl, status
		FROM trades
		WHERE token_address = $1
		ORDER BY ts ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("query trades by token: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// All retrieves all trades, ordered by timestamp ASC.
func (s *TradeStore) All(ctx context.Context) ([]*domain.Trade, error) {
	query := `
		SELECT trade_id, token_address, action, amount, price,
		       ts, settlement_id, exit_reason, pnl, status
		FROM trades
		ORDER BY ts ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

func scanTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var result []*domain.Trade
	for rows.Next() {
		var t domain.Trade
		var action, exitReason, status string
		err := rows.Scan(
			&t.TradeID, &t.TokenAddress, &action, &t.Amount, &t.Price,
			&t.Timestamp, &t.SettlementID, &exitReason, &t.PnL, &status,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Action = domain.TradeAction(action)
		t.ExitReason = domain.ExitReason(exitReason)
		t.Status = domain.TradeStatus(status)
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return result, nil
}
