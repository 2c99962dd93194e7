package order

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/bill"
)

func sampleOrder() Order {
	ts := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	return Order{
		ID: uuid.New(),
		Lines: []Line{
			{ID: uuid.New(), ItemID: uuid.New(), Name: "Wine", Price: decimal.RequireFromString("7.00"), Category: bill.Alcohol},
		},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	store := NewRedisStore(client, time.Hour)
	o := sampleOrder()

	_, err = store.Get(ctx, o.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, o))
	require.Equal(t, time.Hour, mr.TTL(orderKey(o.ID)))

	got, err := store.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, o.ID, got.ID)
	require.Len(t, got.Lines, 1)
	require.True(t, o.Lines[0].Price.Equal(got.Lines[0].Price))
	require.Equal(t, bill.Alcohol, got.Lines[0].Category)

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, o.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, store.Delete(ctx, o.ID), ErrNotFound)
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	o := sampleOrder()
	require.NoError(t, store.Save(ctx, o))

	o.Lines[0].TaxExempt = true
	got, err := store.Get(ctx, o.ID)
	require.NoError(t, err)
	require.False(t, got.Lines[0].TaxExempt)

	require.NoError(t, store.Delete(ctx, o.ID))
	require.ErrorIs(t, store.Delete(ctx, o.ID), ErrNotFound)
}
