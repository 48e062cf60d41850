package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

const testNowMs = int64(1704067200000)

func newTestOpportunityStore(nowMs int64) *OpportunityStore {
	store := NewOpportunityStore(15 * time.Minute)
	store.now = func() int64 { return nowMs }
	return store
}

func TestOpportunityStore_PutAndGet(t *testing.T) {
	store := newTestOpportunityStore(testNowMs)
	ctx := context.Background()

	o := &domain.Opportunity{
		Address:        "addr1",
		Symbol:         "TKN",
		Price:          0.001,
		Confidence:     0.9,
		Type:           domain.OpportunityNewListing,
		Urgency:        8,
		ExpectedReturn: 0.5,
		DetectedAt:     testNowMs,
	}

	if err := store.Put(ctx, o); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "addr1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Symbol != "TKN" {
		t.Errorf("Symbol mismatch: got %s, want TKN", got.Symbol)
	}
	if got.Type != domain.OpportunityNewListing {
		t.Errorf("Type mismatch: got %s", got.Type)
	}
}

func TestOpportunityStore_PutOverwrites(t *testing.T) {
	store := newTestOpportunityStore(testNowMs)
	ctx := context.Background()

	first := &domain.Opportunity{Address: "addr1", Confidence: 0.7, DetectedAt: testNowMs - 60_000}
	second := &domain.Opportunity{Address: "addr1", Confidence: 0.9, DetectedAt: testNowMs}

	if err := store.Put(ctx, first); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, second); err != nil {
		t.Fatalf("Second put failed: %v", err)
	}

	got, err := store.Get(ctx, "addr1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Confidence != 0.9 {
		t.Errorf("Expected overwritten confidence 0.9, got %f", got.Confidence)
	}
	if got.DetectedAt != testNowMs {
		t.Errorf("Expected refreshed DetectedAt, got %d", got.DetectedAt)
	}

	n, err := store.Len(ctx)
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 record after overwrite, got %d", n)
	}
}

func TestOpportunityStore_TTL(t *testing.T) {
	store := newTestOpportunityStore(testNowMs)
	ctx := context.Background()

	// 899s old: still live. 901s old: expired.
	live := &domain.Opportunity{Address: "live", DetectedAt: testNowMs - 899_000}
	stale := &domain.Opportunity{Address: "stale", DetectedAt: testNowMs - 901_000}

	for _, o := range []*domain.Opportunity{live, stale} {
		if err := store.Put(ctx, o); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	if _, err := store.Get(ctx, "live"); err != nil {
		t.Errorf("Expected live record at 899s, got %v", err)
	}
	_, err := store.Get(ctx, "stale")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for expired record, got %v", err)
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 1 || all[0].Address != "live" {
		t.Errorf("Expected only live record, got %d records", len(all))
	}
}

func TestOpportunityStore_Sweep(t *testing.T) {
	store := newTestOpportunityStore(testNowMs)
	ctx := context.Background()

	opps := []*domain.Opportunity{
		{Address: "a1", DetectedAt: testNowMs},
		{Address: "a2", DetectedAt: testNowMs - 1_000_000},
		{Address: "a3", DetectedAt: testNowMs - 2_000_000},
	}
	for _, o := range opps {
		if err := store.Put(ctx, o); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	removed, err := store.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 removed, got %d", removed)
	}

	n, _ := store.Len(ctx)
	if n != 1 {
		t.Errorf("Expected 1 record left, got %d", n)
	}
}

func TestOpportunityStore_TopN(t *testing.T) {
	store := newTestOpportunityStore(testNowMs)
	ctx := context.Background()

	// Score = confidence * expected_return * urgency/10
	opps := []*domain.Opportunity{
		{Address: "low", Confidence: 0.7, ExpectedReturn: 0.3, Urgency: 4, DetectedAt: testNowMs},  // 0.084
		{Address: "high", Confidence: 0.9, ExpectedReturn: 1.5, Urgency: 9, DetectedAt: testNowMs}, // 1.215
		{Address: "mid", Confidence: 0.8, ExpectedReturn: 0.8, Urgency: 6, DetectedAt: testNowMs},  // 0.384
	}
	for _, o := range opps {
		if err := store.Put(ctx, o); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	top, err := store.TopN(ctx, 2)
	if err != nil {
		t.Fatalf("TopN failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(top))
	}
	if top[0].Address != "high" {
		t.Errorf("First result should be high, got %s", top[0].Address)
	}
	if top[1].Address != "mid" {
		t.Errorf("Second result should be mid, got %s", top[1].Address)
	}
}

func TestOpportunityStore_InvalidInput(t *testing.T) {
	store := newTestOpportunityStore(testNowMs)
	ctx := context.Background()

	if err := store.Put(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Put(ctx, &domain.Opportunity{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty address, got %v", err)
	}
}

func TestOpportunityStore_GetReturnsCopy(t *testing.T) {
	store := newTestOpportunityStore(testNowMs)
	ctx := context.Background()

	o := &domain.Opportunity{Address: "addr1", Price: 1.0, DetectedAt: testNowMs}
	if err := store.Put(ctx, o); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, _ := store.Get(ctx, "addr1")
	got.Price = 99.0

	again, _ := store.Get(ctx, "addr1")
	if again.Price != 1.0 {
		t.Errorf("Store record should be isolated from caller mutation, got price %f", again.Price)
	}
}
