package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pratik-1-11/posfrontend-sub000/domain"
)

func TestSnapshotProductsSwap(t *testing.T) {
	db, _ := openTestDB(t)
	s, err := NewSQLiteSnapshotStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = s.GetProducts(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	first := []domain.Product{
		{ID: "p1", Name: "Tea", PriceCents: 250, Stock: 10},
		{ID: "p2", Name: "Coffee", PriceCents: 400, Stock: 5},
	}
	at1 := time.Unix(1000, 0).UTC()
	require.NoError(t, s.PutProducts(ctx, first, at1))

	got, at, err := s.GetProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.True(t, at.Equal(at1))

	// wholesale replacement: p2 disappears, nothing is merged back
	second := []domain.Product{{ID: "p1", Name: "Tea", PriceCents: 300, Stock: 8}}
	at2 := time.Unix(2000, 0).UTC()
	require.NoError(t, s.PutProducts(ctx, second, at2))

	got, at, err = s.GetProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
	assert.True(t, at.Equal(at2))
}

func TestSnapshotCustomerRecord(t *testing.T) {
	db, _ := openTestDB(t)
	s, err := NewSQLiteSnapshotStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = s.GetCustomer(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	c := domain.Customer{ID: "c1", Name: "Asha", BalanceCents: 900, CreditLimitCents: 1000}
	require.NoError(t, s.PutCustomer(ctx, c, time.Unix(1000, 0).UTC()))

	got, at, err := s.GetCustomer(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, c, got)
	assert.True(t, at.Equal(time.Unix(1000, 0).UTC()))

	// whole-record overwrite
	c.BalanceCents = 700
	require.NoError(t, s.PutCustomer(ctx, c, time.Unix(2000, 0).UTC()))
	got, at, err = s.GetCustomer(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(700), got.BalanceCents)
	assert.True(t, at.Equal(time.Unix(2000, 0).UTC()))

	// records are independent
	require.NoError(t, s.PutCustomer(ctx, domain.Customer{ID: "c2", Name: "Ravi"}, time.Unix(3000, 0).UTC()))
	got, _, err = s.GetCustomer(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)
}

func TestSnapshotStoresCoexistWithQueue(t *testing.T) {
	db, _ := openTestDB(t)
	qs, err := NewSQLiteQueueStore(db)
	require.NoError(t, err)
	ss, err := NewSQLiteSnapshotStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = qs.Append(ctx, queueSub("A"))
	require.NoError(t, err)
	require.NoError(t, ss.PutProducts(ctx, []domain.Product{{ID: "p1"}}, time.Unix(1000, 0).UTC()))

	entries, err := qs.ListInOrder(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	products, _, err := ss.GetProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}
