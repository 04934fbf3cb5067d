package memory

import (
	"context"
	"errors"
	"testing"

	"meme-token-ledger/internal/storage"
)

func TestPairLiquidityStore_AddCreatesRecord(t *testing.T) {
	store := NewPairLiquidityStore()
	ctx := context.Background()

	token := testAddr("token")
	counter := testAddr("wsol")

	r, err := store.Add(ctx, token, counter, 1000, 1704067200000)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if r.Units != 1000 {
		t.Errorf("Units mismatch: got %d, want 1000", r.Units)
	}
	if r.UpdatedAt != 1704067200000 {
		t.Errorf("UpdatedAt mismatch: got %d", r.UpdatedAt)
	}
}

func TestPairLiquidityStore_AddAccumulates(t *testing.T) {
	store := NewPairLiquidityStore()
	ctx := context.Background()

	token := testAddr("token")
	counter := testAddr("wsol")

	if _, err := store.Add(ctx, token, counter, 1000, 1000); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}
	r, err := store.Add(ctx, token, counter, 500, 2000)
	if err != nil {
		t.Fatalf("second Add failed: %v", err)
	}

	if r.Units != 1500 {
		t.Errorf("Units not additive: got %d, want 1500", r.Units)
	}
	if r.UpdatedAt != 2000 {
		t.Errorf("UpdatedAt not advanced: got %d", r.UpdatedAt)
	}

	got, err := store.Get(ctx, token, counter)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Units != 1500 {
		t.Errorf("Get Units mismatch: got %d, want 1500", got.Units)
	}
}

func TestPairLiquidityStore_PairsAreIndependent(t *testing.T) {
	store := NewPairLiquidityStore()
	ctx := context.Background()

	token := testAddr("token")
	if _, err := store.Add(ctx, token, testAddr("wsol"), 100, 1000); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := store.Add(ctx, token, testAddr("usdc"), 7, 1000); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	wsol, _ := store.Get(ctx, token, testAddr("wsol"))
	usdc, _ := store.Get(ctx, token, testAddr("usdc"))
	if wsol.Units != 100 || usdc.Units != 7 {
		t.Errorf("pairs leaked into each other: %d, %d", wsol.Units, usdc.Units)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 records, got %d", len(all))
	}
}

func TestPairLiquidityStore_GetNotFound(t *testing.T) {
	store := NewPairLiquidityStore()

	_, err := store.Get(context.Background(), testAddr("token"), testAddr("wsol"))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPairLiquidityStore_InvalidInput(t *testing.T) {
	store := NewPairLiquidityStore()
	ctx := context.Background()

	if _, err := store.Add(ctx, "", testAddr("wsol"), 1, 1); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty token, got %v", err)
	}
	if _, err := store.Get(ctx, testAddr("token"), ""); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty counter, got %v", err)
	}
}
