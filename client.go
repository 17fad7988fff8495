// Package posfrontend wires the transaction-commit core of the point-of-sale
// client: payment allocation, order commit, offline queue replay, and cached
// catalog reads. The package is a library; UI event handlers construct one
// Client per device and drive it. There is no process boundary here — the
// host application owns the lifecycle, including running the sync loop.
//
// Usage:
//
//	cfg, _ := configs.Load("configs", "dev")
//	client, cleanup, err := posfrontend.New(cfg)
//	defer cleanup()
//	go client.Sync.Run(ctx, cfg.Sync.Interval)
//	// hook the platform connectivity events:
//	//   onOnline  -> client.Probe.SetOnline(true)
//	//   onOffline -> client.Probe.SetOnline(false)
package posfrontend

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Pratik-1-11/posfrontend-sub000/catalog"
	"github.com/Pratik-1-11/posfrontend-sub000/configs"
	"github.com/Pratik-1-11/posfrontend-sub000/internal/adapter/cache"
	"github.com/Pratik-1-11/posfrontend-sub000/internal/adapter/gateway"
	"github.com/Pratik-1-11/posfrontend-sub000/internal/adapter/store"
	"github.com/Pratik-1-11/posfrontend-sub000/internal/logging"
	"github.com/Pratik-1-11/posfrontend-sub000/internal/observ"
	"github.com/Pratik-1-11/posfrontend-sub000/offline"
	"github.com/Pratik-1-11/posfrontend-sub000/pipeline"
)

// Client bundles the wired components. Allocation is pure and needs no
// wiring; call allocation.Allocate directly.
type Client struct {
	Pipeline *pipeline.Pipeline
	Sync     *offline.Manager
	Catalog  *catalog.Catalog
	Probe    *gateway.SignalProbe
}

// New builds the core from config and returns a cleanup func for the
// underlying stores. The commit pipeline and the sync manager share one
// queue-head gate, and the probe's restored signal wakes the sync loop.
func New(cfg configs.Config) (*Client, func(), error) {
	logging.Init(cfg.App.Name, cfg.App.LogFile)

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, nil, err
	}

	queueStore, err := store.NewSQLiteQueueStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("init queue store: %w", err)
	}

	var rdb *redis.Client
	var snaps catalog.SnapshotStore
	switch cfg.Cache.Backend {
	case "redis":
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       0,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		snaps = cache.NewRedisSnapshotStore(rdb, 0)
	default:
		sqlSnaps, err := store.NewSQLiteSnapshotStore(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("init snapshot store: %w", err)
		}
		snaps = sqlSnaps
	}

	gw := gateway.New(cfg.Server.BaseURL, cfg.Server.AttemptTimeout, logging.New("gateway"))
	probe := gateway.NewSignalProbe(true)
	metrics := observ.Default()

	mgr := offline.New(queueStore, gw,
		offline.WithMaxAttempts(cfg.Sync.MaxAttempts),
		offline.WithBackoff(cfg.Sync.BackoffBase, cfg.Sync.BackoffMax),
		offline.WithLogger(logging.New("sync")),
		offline.WithMetrics(metrics),
	)
	probe.OnRestored(mgr.Notify)

	pipe := pipeline.New(gw, queueStore, probe,
		pipeline.WithGate(mgr.Gate()),
		pipeline.WithAttemptTimeout(cfg.Server.AttemptTimeout),
		pipeline.WithLogger(logging.New("commit")),
		pipeline.WithMetrics(metrics),
	)

	cat := catalog.New(gw, snaps, catalog.WithLogger(logging.New("catalog")))

	cleanup := func() {
		_ = db.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
	}

	return &Client{
		Pipeline: pipe,
		Sync:     mgr,
		Catalog:  cat,
		Probe:    probe,
	}, cleanup, nil
}
