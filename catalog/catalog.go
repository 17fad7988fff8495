// Package catalog serves the read paths that must degrade gracefully
// offline: product lookup and customer lookup for credit display. Reads are
// network-first; on transport failure they fall through to the last full
// snapshot, labeled as possibly stale. Snapshots are replaced wholesale after
// every successful fetch, never merged field by field.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Pratik-1-11/posfrontend-sub000/domain"
	"github.com/Pratik-1-11/posfrontend-sub000/internal/logging"
)

// Gateway fetches the authoritative records from the server.
type Gateway interface {
	FetchProducts(ctx context.Context) ([]domain.Product, error)
	FetchCustomer(ctx context.Context, id string) (domain.Customer, error)
}

// SnapshotStore persists last-known snapshots: the whole product collection
// in one atomic swap, and whole customer records keyed by id. Gets return
// domain.ErrNotFound when no snapshot exists.
type SnapshotStore interface {
	PutProducts(ctx context.Context, products []domain.Product, fetchedAt time.Time) error
	GetProducts(ctx context.Context) ([]domain.Product, time.Time, error)
	PutCustomer(ctx context.Context, customer domain.Customer, fetchedAt time.Time) error
	GetCustomer(ctx context.Context, id string) (domain.Customer, time.Time, error)
}

// Clock is injected so tests control snapshot timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ProductsResult labels where the data came from. Stale data is a disclosed
// risk, not a silent one: an allocation made against a stale balance is
// advisory until the queued sale syncs.
type ProductsResult struct {
	Products  []domain.Product
	Stale     bool
	FetchedAt time.Time
}

// CustomerResult is the customer-lookup counterpart of ProductsResult.
type CustomerResult struct {
	Customer  domain.Customer
	Stale     bool
	FetchedAt time.Time
}

// Catalog is the cache-fallback read layer.
type Catalog struct {
	gw    Gateway
	snaps SnapshotStore
	clock Clock
	log   *slog.Logger
}

type Option func(*Catalog)

func WithClock(c Clock) Option         { return func(cat *Catalog) { cat.clock = c } }
func WithLogger(l *slog.Logger) Option { return func(cat *Catalog) { cat.log = l } }

func New(gw Gateway, snaps SnapshotStore, opts ...Option) *Catalog {
	c := &Catalog{
		gw:    gw,
		snaps: snaps,
		clock: systemClock{},
		log:   logging.New("catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Products returns the product list, network-first. A snapshot write failure
// after a successful fetch is logged, not fatal: the fresh data still serves
// the caller.
func (c *Catalog) Products(ctx context.Context) (ProductsResult, error) {
	products, err := c.gw.FetchProducts(ctx)
	if err == nil {
		now := c.clock.Now()
		if perr := c.snaps.PutProducts(ctx, products, now); perr != nil {
			c.log.Warn("product snapshot write failed", "err", perr)
		}
		return ProductsResult{Products: products, FetchedAt: now}, nil
	}
	if !domain.IsNetwork(err) {
		return ProductsResult{}, err
	}

	products, at, serr := c.snaps.GetProducts(ctx)
	if serr != nil {
		return ProductsResult{}, fmt.Errorf("no product snapshot to fall back on: %w", err)
	}
	c.log.Info("serving products from snapshot", "fetchedAt", at)
	return ProductsResult{Products: products, Stale: true, FetchedAt: at}, nil
}

// Customer returns one customer, network-first. A server 404 is authoritative
// and returns domain.ErrNotFound without consulting the snapshot; only
// transport failures fall through to the cache.
func (c *Catalog) Customer(ctx context.Context, id string) (CustomerResult, error) {
	customer, err := c.gw.FetchCustomer(ctx, id)
	if err == nil {
		now := c.clock.Now()
		if perr := c.snaps.PutCustomer(ctx, customer, now); perr != nil {
			c.log.Warn("customer snapshot write failed", "id", id, "err", perr)
		}
		return CustomerResult{Customer: customer, FetchedAt: now}, nil
	}
	if !domain.IsNetwork(err) {
		return CustomerResult{}, err
	}

	customer, at, serr := c.snaps.GetCustomer(ctx, id)
	if serr != nil {
		return CustomerResult{}, fmt.Errorf("no customer snapshot to fall back on: %w", err)
	}
	c.log.Info("serving customer from snapshot", "id", id, "fetchedAt", at)
	return CustomerResult{Customer: customer, Stale: true, FetchedAt: at}, nil
}
