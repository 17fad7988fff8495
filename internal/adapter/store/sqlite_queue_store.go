package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Pratik-1-11/posfrontend-sub000/domain"
	"github.com/Pratik-1-11/posfrontend-sub000/offline"
	"github.com/Pratik-1-11/posfrontend-sub000/pipeline"
)

// SQLiteQueueStore is the durable offline queue. AUTOINCREMENT seq preserves
// insertion order across restarts; the submission travels as a JSON blob so
// replay sends exactly what was frozen at commit time, idempotency key
// included.
type SQLiteQueueStore struct {
	db *sql.DB
}

func NewSQLiteQueueStore(db *sql.DB) (*SQLiteQueueStore, error) {
	s := &SQLiteQueueStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteQueueStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS order_queue (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		idempotency_key TEXT NOT NULL UNIQUE,
		submission JSON NOT NULL,
		state TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		last_error TEXT NOT NULL DEFAULT '',
		enqueued_at TEXT NOT NULL,
		last_attempt_at TEXT NOT NULL DEFAULT '',
		next_attempt_at TEXT NOT NULL DEFAULT ''
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *SQLiteQueueStore) Append(ctx context.Context, sub domain.OrderSubmission) (domain.QueueEntry, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return domain.QueueEntry{}, fmt.Errorf("marshal submission: %w", err)
	}
	enqueuedAt := time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
	INSERT INTO order_queue (idempotency_key, submission, state, attempts, enqueued_at)
	VALUES (?, ?, ?, 0, ?)`,
		sub.IdempotencyKey, payload, string(domain.StatePending), formatTime(enqueuedAt))
	if err != nil {
		return domain.QueueEntry{}, fmt.Errorf("append queue entry: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return domain.QueueEntry{}, err
	}
	return domain.QueueEntry{
		Seq:        seq,
		Submission: sub,
		State:      domain.StatePending,
		EnqueuedAt: enqueuedAt,
	}, nil
}

func (s *SQLiteQueueStore) ListInOrder(ctx context.Context) ([]domain.QueueEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT seq, submission, state, attempts, last_error, enqueued_at, last_attempt_at, next_attempt_at
	FROM order_queue ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []domain.QueueEntry
	for rows.Next() {
		var e domain.QueueEntry
		var payload []byte
		var state, enqueuedAt, lastAttempt, nextAttempt string
		if err := rows.Scan(&e.Seq, &payload, &state, &e.Attempts, &e.LastError, &enqueuedAt, &lastAttempt, &nextAttempt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &e.Submission); err != nil {
			return nil, fmt.Errorf("unmarshal submission for seq %d: %w", e.Seq, err)
		}
		e.State = domain.EntryState(state)
		e.EnqueuedAt = parseTime(enqueuedAt)
		e.LastAttemptAt = parseTime(lastAttempt)
		e.NextAttemptAt = parseTime(nextAttempt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteQueueStore) UpdateState(ctx context.Context, entry domain.QueueEntry) error {
	res, err := s.db.ExecContext(ctx, `
	UPDATE order_queue
	SET state = ?, attempts = ?, last_error = ?, last_attempt_at = ?, next_attempt_at = ?
	WHERE seq = ?`,
		string(entry.State), entry.Attempts, entry.LastError,
		formatTime(entry.LastAttemptAt), formatTime(entry.NextAttemptAt), entry.Seq)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *SQLiteQueueStore) Remove(ctx context.Context, seq int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM order_queue WHERE seq = ?`, seq)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var (
	_ offline.Store       = (*SQLiteQueueStore)(nil)
	_ pipeline.QueueStore = (*SQLiteQueueStore)(nil)
)
