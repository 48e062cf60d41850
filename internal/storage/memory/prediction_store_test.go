package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

func newTestPredictionStore(nowMs int64) *PredictionStore {
	store := NewPredictionStore(10 * time.Minute)
	store.now = func() int64 { return nowMs }
	return store
}

func TestPredictionStore_PutAndGet(t *testing.T) {
	store := newTestPredictionStore(testNowMs)
	ctx := context.Background()

	p := &domain.Prediction{
		TokenAddress:   "addr1",
		Action:         domain.ActionBuy,
		Confidence:     0.85,
		ExpectedReturn: 0.4,
		CreatedAt:      testNowMs,
	}

	if err := store.Put(ctx, p); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "addr1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Action != domain.ActionBuy {
		t.Errorf("Action mismatch: got %s", got.Action)
	}
	if got.Confidence != 0.85 {
		t.Errorf("Confidence mismatch: got %f", got.Confidence)
	}
}

func TestPredictionStore_TTL(t *testing.T) {
	store := newTestPredictionStore(testNowMs)
	ctx := context.Background()

	// Prediction TTL is 600s
	live := &domain.Prediction{TokenAddress: "live", CreatedAt: testNowMs - 599_000}
	stale := &domain.Prediction{TokenAddress: "stale", CreatedAt: testNowMs - 601_000}

	for _, p := range []*domain.Prediction{live, stale} {
		if err := store.Put(ctx, p); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	if _, err := store.Get(ctx, "live"); err != nil {
		t.Errorf("Expected live record at 599s, got %v", err)
	}
	_, err := store.Get(ctx, "stale")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for expired record, got %v", err)
	}

	removed, err := store.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed, got %d", removed)
	}
}

func TestPredictionStore_TopBuy(t *testing.T) {
	store := newTestPredictionStore(testNowMs)
	ctx := context.Background()

	// Rank = confidence * expected_return, BUY rows only
	preds := []*domain.Prediction{
		{TokenAddress: "hold", Action: domain.ActionHold, Confidence: 0.99, ExpectedReturn: 2.0, CreatedAt: testNowMs},
		{TokenAddress: "buy-low", Action: domain.ActionBuy, Confidence: 0.76, ExpectedReturn: 0.25, CreatedAt: testNowMs},
		{TokenAddress: "buy-high", Action: domain.ActionBuy, Confidence: 0.9, ExpectedReturn: 1.2, CreatedAt: testNowMs},
	}
	for _, p := range preds {
		if err := store.Put(ctx, p); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	top, err := store.TopBuy(ctx, 5)
	if err != nil {
		t.Fatalf("TopBuy failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("Expected 2 BUY rows, got %d", len(top))
	}
	if top[0].TokenAddress != "buy-high" {
		t.Errorf("First result should be buy-high, got %s", top[0].TokenAddress)
	}
	if top[1].TokenAddress != "buy-low" {
		t.Errorf("Second result should be buy-low, got %s", top[1].TokenAddress)
	}
}

func TestPredictionStore_InvalidInput(t *testing.T) {
	store := newTestPredictionStore(testNowMs)
	ctx := context.Background()

	if err := store.Put(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Put(ctx, &domain.Prediction{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty address, got %v", err)
	}
}
