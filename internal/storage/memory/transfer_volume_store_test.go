package memory

import (
	"context"
	"testing"

	"meme-token-ledger/internal/domain"
)

func TestTransferVolumeStore_InsertBulkSumsByDay(t *testing.T) {
	store := NewTransferVolumeStore()
	ctx := context.Background()

	day := int64(1704067200000)
	first := []*domain.TransferVolumePoint{
		{DayStartMs: day, Transfers: 2, Gross: 200, Net: 190, Tax: 10},
	}
	second := []*domain.TransferVolumePoint{
		{DayStartMs: day, Transfers: 1, Gross: 100, Net: 95, Tax: 5},
		{DayStartMs: day + 86400000, Transfers: 1, Gross: 50, Net: 50, Tax: 0},
	}

	if err := store.InsertBulk(ctx, first); err != nil {
		t.Fatalf("first InsertBulk failed: %v", err)
	}
	if err := store.InsertBulk(ctx, second); err != nil {
		t.Fatalf("second InsertBulk failed: %v", err)
	}

	result, err := store.GetByTimeRange(ctx, day, day+86400000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 days, got %d", len(result))
	}

	merged := result[0]
	if merged.Transfers != 3 || merged.Gross != 300 || merged.Net != 285 || merged.Tax != 15 {
		t.Errorf("Day not summed: %+v", merged)
	}
	if result[1].Transfers != 1 || result[1].Gross != 50 {
		t.Errorf("Second day wrong: %+v", result[1])
	}
}

func TestTransferVolumeStore_GetByTimeRangeBounds(t *testing.T) {
	store := NewTransferVolumeStore()
	ctx := context.Background()

	days := []int64{0, 86400000, 172800000}
	for _, d := range days {
		err := store.InsertBulk(ctx, []*domain.TransferVolumePoint{{DayStartMs: d, Transfers: 1}})
		if err != nil {
			t.Fatalf("InsertBulk failed: %v", err)
		}
	}

	result, err := store.GetByTimeRange(ctx, 86400000, 86400000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 1 || result[0].DayStartMs != 86400000 {
		t.Errorf("Inclusive bounds broken: %+v", result)
	}
}
