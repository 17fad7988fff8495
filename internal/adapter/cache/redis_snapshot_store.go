// Package cache is the Redis-backed snapshot store, for multi-lane shops
// where several registers share one till-side Redis instead of a per-device
// SQLite file. Same whole-snapshot contract: one SET replaces the previous
// value atomically, readers never see a partial update.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pratik-1-11/posfrontend-sub000/catalog"
	"github.com/Pratik-1-11/posfrontend-sub000/domain"
)

type snapshotEnvelope struct {
	FetchedAt time.Time       `json:"fetchedAt"`
	Payload   json.RawMessage `json:"payload"`
}

// RedisSnapshotStore implements catalog.SnapshotStore on go-redis.
// A ttl of 0 keeps snapshots until the next overwrite.
type RedisSnapshotStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSnapshotStore(rdb *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{rdb: rdb, ttl: ttl}
}

func (s *RedisSnapshotStore) put(ctx context.Context, key string, v any, fetchedAt time.Time) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	env, err := json.Marshal(snapshotEnvelope{FetchedAt: fetchedAt.UTC(), Payload: payload})
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, env, s.ttl).Err()
}

func (s *RedisSnapshotStore) get(ctx context.Context, key string, v any) (time.Time, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return time.Time{}, domain.ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	var env snapshotEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return time.Time{}, fmt.Errorf("unmarshal snapshot envelope: %w", err)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return time.Time{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return env.FetchedAt, nil
}

func (s *RedisSnapshotStore) PutProducts(ctx context.Context, products []domain.Product, fetchedAt time.Time) error {
	return s.put(ctx, "snap:products", products, fetchedAt)
}

func (s *RedisSnapshotStore) GetProducts(ctx context.Context) ([]domain.Product, time.Time, error) {
	var products []domain.Product
	at, err := s.get(ctx, "snap:products", &products)
	if err != nil {
		return nil, time.Time{}, err
	}
	return products, at, nil
}

func (s *RedisSnapshotStore) PutCustomer(ctx context.Context, customer domain.Customer, fetchedAt time.Time) error {
	return s.put(ctx, "snap:customer:"+customer.ID, customer, fetchedAt)
}

func (s *RedisSnapshotStore) GetCustomer(ctx context.Context, id string) (domain.Customer, time.Time, error) {
	var customer domain.Customer
	at, err := s.get(ctx, "snap:customer:"+id, &customer)
	if err != nil {
		return domain.Customer{}, time.Time{}, err
	}
	return customer, at, nil
}

var _ catalog.SnapshotStore = (*RedisSnapshotStore)(nil)
