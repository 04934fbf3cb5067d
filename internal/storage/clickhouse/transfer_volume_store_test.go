package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meme-token-ledger/internal/domain"
)

const dayMs = int64(24 * 60 * 60 * 1000)

func TestTransferVolumeStore_InsertAndQuery(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTransferVolumeStore(conn)

	err := store.InsertBulk(ctx, []*domain.TransferVolumePoint{
		{DayStartMs: dayMs, Transfers: 2, Gross: 300, Net: 285, Tax: 15},
		{DayStartMs: 2 * dayMs, Transfers: 1, Gross: 1000, Net: 950, Tax: 50},
	})
	require.NoError(t, err)

	points, err := store.GetByTimeRange(ctx, 0, 3*dayMs)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, dayMs, points[0].DayStartMs)
	assert.Equal(t, uint64(2), points[0].Transfers)
	assert.Equal(t, uint64(300), points[0].Gross)
	assert.Equal(t, uint64(15), points[0].Tax)
	assert.Equal(t, 2*dayMs, points[1].DayStartMs)
}

func TestTransferVolumeStore_PartialDaysSum(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTransferVolumeStore(conn)

	// Two partial aggregates for the same day.
	err := store.InsertBulk(ctx, []*domain.TransferVolumePoint{
		{DayStartMs: dayMs, Transfers: 2, Gross: 300, Net: 285, Tax: 15},
	})
	require.NoError(t, err)
	err = store.InsertBulk(ctx, []*domain.TransferVolumePoint{
		{DayStartMs: dayMs, Transfers: 1, Gross: 50, Net: 48, Tax: 2},
	})
	require.NoError(t, err)

	points, err := store.GetByTimeRange(ctx, dayMs, dayMs)
	require.NoError(t, err)
	require.Len(t, points, 1)

	assert.Equal(t, uint64(3), points[0].Transfers)
	assert.Equal(t, uint64(350), points[0].Gross)
	assert.Equal(t, uint64(333), points[0].Net)
	assert.Equal(t, uint64(17), points[0].Tax)
}

func TestTransferVolumeStore_EmptyRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	points, err := NewTransferVolumeStore(conn).GetByTimeRange(context.Background(), 0, dayMs)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestTransferVolumeStore_InsertEmpty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, NewTransferVolumeStore(conn).InsertBulk(context.Background(), nil))
}
