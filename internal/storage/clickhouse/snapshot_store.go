package clickhouse

import (
	"context"
	"fmt"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
// Snapshots are append-only; MergeTree does not enforce uniqueness and
// the capture time disambiguates repeated rows for the same token.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertOpportunities writes one snapshot row per opportunity, all
// stamped with the same capture time.
func (s *SnapshotStore) InsertOpportunities(ctx context.Context, opps []*domain.Opportunity, capturedAt int64) error {
	if len(opps) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO opportunity_snapshots (
			captured_at, address, symbol, price, change_1h, change_5m,
			volume_1h, liquidity, market_cap, momentum, confidence,
			opportunity_type, urgency, expected_return, detected_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, o := range opps {
		err = batch.Append(
			capturedAt, o.Address, o.Symbol, o.Price, o.Change1h, o.Change5m,
			o.Volume1h, o.Liquidity, o.MarketCap, o.Momentum, o.Confidence,
			string(o.Type), uint8(o.Urgency), o.ExpectedReturn, o.DetectedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByCaptureTime retrieves all rows for a capture time, ordered by address ASC.
func (s *SnapshotStore) GetByCaptureTime(ctx context.Context, capturedAt int64) ([]*domain.Opportunity, error) {
	query := `
		SELECT address, symbol, price, change_1h, change_5m,
		       volume_1h, liquidity, market_cap, momentum, confidence,
		       opportunity_type, urgency, expected_return, detected_at
		FROM opportunity_snapshots
		WHERE captured_at = ?
		ORDER BY address ASC
	`

	rows, err := s.conn.Query(ctx, query, capturedAt)
	if err != nil {
		return nil, fmt.Errorf("query snapshot by capture time: %w", err)
	}
	defer rows.Close()

	var result []*domain.Opportunity
	for rows.Next() {
		var o domain.Opportunity
		var oppType string
		var urgency uint8
		err := rows.Scan(
			&o.Address, &o.Symbol, &o.Price, &o.Change1h, &o.Change5m,
			&o.Volume1h, &o.Liquidity, &o.MarketCap, &o.Momentum, &o.Confidence,
			&oppType, &urgency, &o.ExpectedReturn, &o.DetectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		o.Type = domain.OpportunityType(oppType)
		o.Urgency = int(urgency)
		result = append(result, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return result, nil
}
