package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pratik-1-11/posfrontend-sub000/domain"
)

func openTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pos.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

func queueSub(key string) domain.OrderSubmission {
	return domain.OrderSubmission{
		IdempotencyKey: key,
		Lines:          []domain.CartLine{{ProductID: "p1", UnitPriceCents: 300, Quantity: 2}},
		Allocation: domain.PaymentAllocation{
			Method:        domain.MethodCash,
			TenderedCents: map[domain.Method]int64{domain.MethodCash: 600},
		},
		CreatedAtLocal: time.Unix(1700000000, 0).UTC(),
	}
}

func TestQueueAppendListOrder(t *testing.T) {
	db, _ := openTestDB(t)
	s, err := NewSQLiteQueueStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"A", "B", "C"} {
		_, err := s.Append(ctx, queueSub(key))
		require.NoError(t, err)
	}

	entries, err := s.ListInOrder(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, want := range []string{"A", "B", "C"} {
		assert.Equal(t, want, entries[i].Submission.IdempotencyKey)
		assert.Equal(t, domain.StatePending, entries[i].State)
	}
	assert.Less(t, entries[0].Seq, entries[1].Seq)
	assert.Less(t, entries[1].Seq, entries[2].Seq)

	// the frozen submission round-trips intact
	assert.Equal(t, queueSub("A").Allocation, entries[0].Submission.Allocation)
	assert.Equal(t, queueSub("A").CreatedAtLocal, entries[0].Submission.CreatedAtLocal)
}

func TestQueueUpdateState(t *testing.T) {
	db, _ := openTestDB(t)
	s, err := NewSQLiteQueueStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	e, err := s.Append(ctx, queueSub("A"))
	require.NoError(t, err)

	e.State = domain.StatePending
	e.Attempts = 2
	e.LastError = "timeout"
	e.LastAttemptAt = time.Unix(1700000100, 0).UTC()
	e.NextAttemptAt = time.Unix(1700000200, 0).UTC()
	require.NoError(t, s.UpdateState(ctx, e))

	entries, err := s.ListInOrder(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	got := entries[0]
	assert.Equal(t, 2, got.Attempts)
	assert.Equal(t, "timeout", got.LastError)
	assert.True(t, got.LastAttemptAt.Equal(e.LastAttemptAt))
	assert.True(t, got.NextAttemptAt.Equal(e.NextAttemptAt))

	ghost := domain.QueueEntry{Seq: 999, State: domain.StatePending}
	assert.ErrorIs(t, s.UpdateState(ctx, ghost), domain.ErrNotFound)
}

func TestQueueRemove(t *testing.T) {
	db, _ := openTestDB(t)
	s, err := NewSQLiteQueueStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	e, err := s.Append(ctx, queueSub("A"))
	require.NoError(t, err)
	require.NoError(t, s.Remove(ctx, e.Seq))

	entries, err := s.ListInOrder(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.ErrorIs(t, s.Remove(ctx, e.Seq), domain.ErrNotFound)
}

func TestQueueSurvivesReopen(t *testing.T) {
	db, path := openTestDB(t)
	s, err := NewSQLiteQueueStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Append(ctx, queueSub("A"))
	require.NoError(t, err)
	b, err := s.Append(ctx, queueSub("B"))
	require.NoError(t, err)

	// crash mid-attempt on B
	b.State = domain.StateSending
	require.NoError(t, s.UpdateState(ctx, b))
	require.NoError(t, db.Close())

	db2, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = db2.Close() }()
	s2, err := NewSQLiteQueueStore(db2)
	require.NoError(t, err)

	entries, err := s2.ListInOrder(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "A", entries[0].Submission.IdempotencyKey)
	assert.Equal(t, domain.StateSending, entries[1].State, "persisted state is what recovery demotes")
}

func TestQueueDuplicateKeyRejected(t *testing.T) {
	db, _ := openTestDB(t)
	s, err := NewSQLiteQueueStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Append(ctx, queueSub("A"))
	require.NoError(t, err)
	_, err = s.Append(ctx, queueSub("A"))
	require.Error(t, err, "one submission maps to exactly one queue entry")
}
