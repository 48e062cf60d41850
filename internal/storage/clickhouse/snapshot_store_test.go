package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-radar/internal/domain"
)

func TestSnapshotStore_InsertAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(conn)
	ctx := context.Background()

	// Empty insert is a no-op
	err := store.InsertOpportunities(ctx, nil, 1000)
	assert.NoError(t, err)

	opps := []*domain.Opportunity{
		{
			Address:        "token-b",
			Symbol:         "TKB",
			Price:          0.002,
			Change1h:       22.0,
			Change5m:       1.8,
			Volume1h:       18000,
			Liquidity:      40000,
			MarketCap:      120000,
			Momentum:       0.6,
			Confidence:     0.82,
			Type:           domain.OpportunityToolsMomentum,
			Urgency:        8,
			ExpectedReturn: 1.1,
			DetectedAt:     999,
		},
		{
			Address:        "token-a",
			Symbol:         "TKA",
			Price:          0.001,
			Confidence:     0.9,
			Type:           domain.OpportunityNewListing,
			Urgency:        9,
			ExpectedReturn: 0.5,
			DetectedAt:     998,
		},
	}

	err = store.InsertOpportunities(ctx, opps, 1000)
	require.NoError(t, err)

	got, err := store.GetByCaptureTime(ctx, 1000)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by address ASC
	assert.Equal(t, "token-a", got[0].Address)
	assert.Equal(t, "token-b", got[1].Address)
	assert.Equal(t, domain.OpportunityToolsMomentum, got[1].Type)
	assert.Equal(t, 8, got[1].Urgency)
	assert.Equal(t, 1.1, got[1].ExpectedReturn)
	assert.Equal(t, int64(999), got[1].DetectedAt)
}

func TestSnapshotStore_RepeatedCaptures(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(conn)
	ctx := context.Background()

	o := &domain.Opportunity{Address: "token-a", Symbol: "TKA", Confidence: 0.8, Urgency: 5, DetectedAt: 1}

	require.NoError(t, store.InsertOpportunities(ctx, []*domain.Opportunity{o}, 1000))
	require.NoError(t, store.InsertOpportunities(ctx, []*domain.Opportunity{o}, 2000))

	first, err := store.GetByCaptureTime(ctx, 1000)
	require.NoError(t, err)
	second, err := store.GetByCaptureTime(ctx, 2000)
	require.NoError(t, err)

	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
}
