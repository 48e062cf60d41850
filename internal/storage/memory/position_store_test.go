package memory

import (
	"context"
	"errors"
	"testing"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

func TestPositionStore_PutGetRemove(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	p := &domain.Position{
		TokenAddress: "addr1",
		Symbol:       "TKN",
		EntryPrice:   0.001,
		Amount:       3.0,
		EntryTime:    testNowMs,
		Status:       domain.PositionOpen,
	}

	if err := store.Put(ctx, p); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "addr1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Amount != 3.0 {
		t.Errorf("Amount mismatch: got %f", got.Amount)
	}

	if err := store.Remove(ctx, "addr1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	_, err = store.Get(ctx, "addr1")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after remove, got %v", err)
	}
}

func TestPositionStore_RemoveNotFound(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	err := store.Remove(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPositionStore_AllOrderedByEntryTime(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	positions := []*domain.Position{
		{TokenAddress: "p3", EntryTime: 3000},
		{TokenAddress: "p1", EntryTime: 1000},
		{TokenAddress: "p2", EntryTime: 2000},
	}
	for _, p := range positions {
		if err := store.Put(ctx, p); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 positions, got %d", len(all))
	}
	for i, want := range []string{"p1", "p2", "p3"} {
		if all[i].TokenAddress != want {
			t.Errorf("Position %d should be %s, got %s", i, want, all[i].TokenAddress)
		}
	}
}

func TestPositionStore_PutUpdatesInPlace(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	p := &domain.Position{TokenAddress: "addr1", EntryTime: 1000, CurrentPrice: 1.0}
	if err := store.Put(ctx, p); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	p.CurrentPrice = 1.5
	if err := store.Put(ctx, p); err != nil {
		t.Fatalf("Second put failed: %v", err)
	}

	got, _ := store.Get(ctx, "addr1")
	if got.CurrentPrice != 1.5 {
		t.Errorf("Expected updated mark price 1.5, got %f", got.CurrentPrice)
	}

	n, _ := store.Len(ctx)
	if n != 1 {
		t.Errorf("Expected 1 position, got %d", n)
	}
}
