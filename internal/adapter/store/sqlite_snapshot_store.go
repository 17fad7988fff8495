package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Pratik-1-11/posfrontend-sub000/catalog"
	"github.com/Pratik-1-11/posfrontend-sub000/domain"
)

const (
	bucketProducts  = "products"
	bucketCustomers = "customers"
	productsKey     = "all"
)

// SQLiteSnapshotStore keeps the last-known catalog snapshots. The product
// collection is swapped wholesale inside one transaction so a concurrent
// reader never sees a half-replaced list; customer records are replaced whole
// per id. No field-level merging anywhere.
type SQLiteSnapshotStore struct {
	db *sql.DB
}

func NewSQLiteSnapshotStore(db *sql.DB) (*SQLiteSnapshotStore, error) {
	s := &SQLiteSnapshotStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSnapshotStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS snapshots (
		bucket TEXT NOT NULL,
		key TEXT NOT NULL,
		payload JSON NOT NULL,
		fetched_at TEXT NOT NULL,
		PRIMARY KEY (bucket, key)
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *SQLiteSnapshotStore) PutProducts(ctx context.Context, products []domain.Product, fetchedAt time.Time) error {
	payload, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal products: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE bucket = ?`, bucketProducts); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
	INSERT INTO snapshots (bucket, key, payload, fetched_at) VALUES (?, ?, ?, ?)`,
		bucketProducts, productsKey, payload, formatTime(fetchedAt)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteSnapshotStore) GetProducts(ctx context.Context) ([]domain.Product, time.Time, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT payload, fetched_at FROM snapshots WHERE bucket = ? AND key = ?`,
		bucketProducts, productsKey)

	var (
		payload   []byte
		fetchedAt string
	)
	if err := row.Scan(&payload, &fetchedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, time.Time{}, domain.ErrNotFound
		}
		return nil, time.Time{}, err
	}
	var products []domain.Product
	if err := json.Unmarshal(payload, &products); err != nil {
		return nil, time.Time{}, fmt.Errorf("unmarshal products snapshot: %w", err)
	}
	return products, parseTime(fetchedAt), nil
}

func (s *SQLiteSnapshotStore) PutCustomer(ctx context.Context, customer domain.Customer, fetchedAt time.Time) error {
	payload, err := json.Marshal(customer)
	if err != nil {
		return fmt.Errorf("marshal customer: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT OR REPLACE INTO snapshots (bucket, key, payload, fetched_at) VALUES (?, ?, ?, ?)`,
		bucketCustomers, customer.ID, payload, formatTime(fetchedAt))
	return err
}

func (s *SQLiteSnapshotStore) GetCustomer(ctx context.Context, id string) (domain.Customer, time.Time, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT payload, fetched_at FROM snapshots WHERE bucket = ? AND key = ?`,
		bucketCustomers, id)

	var (
		payload   []byte
		fetchedAt string
	)
	if err := row.Scan(&payload, &fetchedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.Customer{}, time.Time{}, domain.ErrNotFound
		}
		return domain.Customer{}, time.Time{}, err
	}
	var customer domain.Customer
	if err := json.Unmarshal(payload, &customer); err != nil {
		return domain.Customer{}, time.Time{}, fmt.Errorf("unmarshal customer snapshot: %w", err)
	}
	return customer, parseTime(fetchedAt), nil
}

var _ catalog.SnapshotStore = (*SQLiteSnapshotStore)(nil)
