package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage"
)

func testWindowEnd(day int) time.Time {
	return time.Date(2016, 10, day, 0, 0, 0, 0, time.UTC)
}

func TestAggregateStore_InsertAndGetByLot(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAggregateStore(pool)
	ctx := context.Background()

	aggregates := []*domain.WindowAggregate{
		{WindowEnd: testWindowEnd(6), Lot: "BHMBCCMKT01", AvgPrice: 11.50, Count: 10},
		{WindowEnd: testWindowEnd(5), Lot: "BHMBCCMKT01", AvgPrice: 10.25, Count: 18},
		{WindowEnd: testWindowEnd(5), Lot: "BHMEURBRD01", AvgPrice: 12.00, Count: 7},
	}
	for _, a := range aggregates {
		require.NoError(t, store.Insert(ctx, a))
	}

	result, err := store.GetByLot(ctx, "BHMBCCMKT01")
	require.NoError(t, err)
	require.Len(t, result, 2)

	// Window end ASC, returned in UTC.
	assert.True(t, result[0].WindowEnd.Equal(testWindowEnd(5)))
	assert.True(t, result[1].WindowEnd.Equal(testWindowEnd(6)))
	assert.Equal(t, 10.25, result[0].AvgPrice)
	assert.Equal(t, 18, result[0].Count)
}

func TestAggregateStore_DuplicateWindowRejected(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAggregateStore(pool)
	ctx := context.Background()

	a := &domain.WindowAggregate{WindowEnd: testWindowEnd(5), Lot: "BHMBCCMKT01", AvgPrice: 10.25, Count: 18}
	require.NoError(t, store.Insert(ctx, a))

	// Re-emission of the same (lot, window end) is a duplicate regardless
	// of payload.
	dup := &domain.WindowAggregate{WindowEnd: testWindowEnd(5), Lot: "BHMBCCMKT01", AvgPrice: 99.99, Count: 1}
	err := store.Insert(ctx, dup)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	result, err := store.GetByLot(ctx, "BHMBCCMKT01")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, 10.25, result[0].AvgPrice)
}

func TestAggregateStore_GetAllOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAggregateStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.WindowAggregate{WindowEnd: testWindowEnd(6), Lot: "BHMBCCMKT01", AvgPrice: 11, Count: 1}))
	require.NoError(t, store.Insert(ctx, &domain.WindowAggregate{WindowEnd: testWindowEnd(5), Lot: "BHMEURBRD01", AvgPrice: 12, Count: 1}))
	require.NoError(t, store.Insert(ctx, &domain.WindowAggregate{WindowEnd: testWindowEnd(5), Lot: "BHMBCCMKT01", AvgPrice: 10, Count: 1}))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, "BHMBCCMKT01", all[0].Lot)
	assert.Equal(t, "BHMEURBRD01", all[1].Lot)
	assert.Equal(t, "BHMBCCMKT01", all[2].Lot)
}
