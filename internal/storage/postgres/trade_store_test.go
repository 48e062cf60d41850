package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

func createTestTrade(tradeID, address string, action domain.TradeAction, ts int64) *domain.Trade {
	return &domain.Trade{
		TradeID:      tradeID,
		TokenAddress: address,
		Action:       action,
		Amount:       3.0,
		Price:        0.0012,
		Timestamp:    ts,
		SettlementID: "paper-" + tradeID,
		Status:       domain.TradeExecuted,
	}
}

func TestTradeStore_AppendAndGetByToken(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	buy := createTestTrade("trade-001", "token-a", domain.TradeBuy, 1000)
	sell := createTestTrade("trade-002", "token-a", domain.TradeSell, 2000)
	sell.ExitReason = domain.ExitTakeProfit
	sell.PnL = 6.0
	other := createTestTrade("trade-003", "token-b", domain.TradeBuy, 1500)

	for _, tr := range []*domain.Trade{sell, buy, other} {
		require.NoError(t, store.Append(ctx, tr))
	}

	got, err := store.GetByToken(ctx, "token-a")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by timestamp ASC
	assert.Equal(t, "trade-001", got[0].TradeID)
	assert.Equal(t, "trade-002", got[1].TradeID)
	assert.Equal(t, domain.TradeBuy, got[0].Action)
	assert.Equal(t, domain.ExitTakeProfit, got[1].ExitReason)
	assert.Equal(t, 6.0, got[1].PnL)
	assert.Equal(t, domain.TradeExecuted, got[1].Status)
}

func TestTradeStore_All(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	for i, tr := range []*domain.Trade{
		createTestTrade("trade-b", "token-a", domain.TradeSell, 3000),
		createTestTrade("trade-a", "token-a", domain.TradeBuy, 1000),
		createTestTrade("trade-c", "token-b", domain.TradeBuy, 2000),
	} {
		require.NoError(t, store.Append(ctx, tr), "append %d", i)
	}

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, "trade-a", all[0].TradeID)
	assert.Equal(t, "trade-c", all[1].TradeID)
	assert.Equal(t, "trade-b", all[2].TradeID)
}

func TestTradeStore_GetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	tr := createTestTrade("trade-001", "token-a", domain.TradeSell, 1000)
	tr.ExitReason = domain.ExitStopLoss
	tr.PnL = -0.9
	require.NoError(t, store.Append(ctx, tr))

	got, err := store.Get(ctx, "trade-001")
	require.NoError(t, err)
	assert.Equal(t, "token-a", got.TokenAddress)
	assert.Equal(t, domain.TradeSell, got.Action)
	assert.Equal(t, domain.ExitStopLoss, got.ExitReason)
	assert.InDelta(t, -0.9, got.PnL, 1e-9)

	_, err = store.Get(ctx, "no-such-trade")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	tr := createTestTrade("trade-001", "token-a", domain.TradeBuy, 1000)
	require.NoError(t, store.Append(ctx, tr))

	err := store.Append(ctx, tr)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTradeStore_FailedSettlementRow(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	tr := createTestTrade("trade-001", "token-a", domain.TradeSell, 1000)
	tr.SettlementID = ""
	tr.ExitReason = domain.ExitTimeLimit
	tr.Status = domain.TradeFailed
	require.NoError(t, store.Append(ctx, tr))

	got, err := store.GetByToken(ctx, "token-a")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.TradeFailed, got[0].Status)
	assert.Empty(t, got[0].SettlementID)
}
