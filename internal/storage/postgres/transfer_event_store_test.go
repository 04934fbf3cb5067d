package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/storage"
)

func insertTransferEvents(t *testing.T, ctx context.Context, store *TransferEventStore, events ...*domain.TransferEvent) {
	t.Helper()
	for _, e := range events {
		require.NoError(t, store.Insert(ctx, e))
	}
}

func TestTransferEventStore_InsertAndQuery(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTransferEventStore(pool)

	alice := domain.NewWalletAddress("pg-ev-alice")
	bob := domain.NewWalletAddress("pg-ev-bob")
	carol := domain.NewWalletAddress("pg-ev-carol")

	insertTransferEvents(t, ctx, store,
		&domain.TransferEvent{Seq: 1, From: alice, To: bob, Gross: 100, Net: 95, Tax: 5, Timestamp: 1000},
		&domain.TransferEvent{Seq: 2, From: bob, To: carol, Gross: 50, Net: 48, Tax: 2, Timestamp: 2000},
		&domain.TransferEvent{Seq: 3, From: carol, To: alice, Gross: 10, Net: 10, Tax: 0, Timestamp: 3000},
	)

	// GetByAccount covers both directions.
	events, err := store.GetByAccount(ctx, bob)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].Seq)
	assert.Equal(t, int64(2), events[1].Seq)
	assert.Equal(t, uint64(95), events[0].Net)

	// GetByTimeRange is inclusive on both ends.
	events, err = store.GetByTimeRange(ctx, 2000, 3000)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].Seq)

	// GetSince is exclusive of the given seq.
	events, err = store.GetSince(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].Seq)

	seq, err := store.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), seq)
}

func TestTransferEventStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTransferEventStore(pool)

	event := &domain.TransferEvent{
		Seq:       1,
		From:      domain.NewWalletAddress("pg-dup-from"),
		To:        domain.NewWalletAddress("pg-dup-to"),
		Gross:     100,
		Net:       95,
		Tax:       5,
		Timestamp: 1000,
	}
	require.NoError(t, store.Insert(ctx, event))

	err := store.Insert(ctx, event)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTransferEventStore_LastSeqEmpty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seq, err := NewTransferEventStore(pool).LastSeq(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)
}
