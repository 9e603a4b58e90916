package main

import (
	"context"
	"fmt"
	"time"

	"giving-hand-api-server/config"
	"giving-hand-api-server/internal/cache"
	"giving-hand-api-server/internal/logging"
	"giving-hand-api-server/internal/metrics"
	"giving-hand-api-server/internal/store"
	"giving-hand-api-server/internal/store/mongostore"
	"giving-hand-api-server/internal/store/sqlstore"
)

// backend is the opened store. mirror is nil unless a mongo primary runs
// with the local mirror enabled.
type backend struct {
	store  store.Store
	mirror *cache.Mirror
}

func openBackend(ctx context.Context, cfg config.Config, m *metrics.Metrics) (*backend, error) {
	log := logging.New("store")

	if cfg.Store.Driver == "sqlite" {
		st, err := sqlstore.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		log.Info("using sqlite store", "path", cfg.SQLite.Path)
		return &backend{store: st}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	remote, err := mongostore.Connect(connectCtx, cfg.Mongo.URI, cfg.Mongo.DBName, cfg.Mongo.Transactions)
	if err != nil {
		return nil, err
	}
	log.Info("connected to MongoDB", "db", cfg.Mongo.DBName, "transactions", cfg.Mongo.Transactions)
	if !cfg.Mirror.Enabled {
		return &backend{store: remote}, nil
	}

	local, err := sqlstore.Open(cfg.Mirror.Path)
	if err != nil {
		remote.Close(ctx)
		return nil, fmt.Errorf("open mirror: %w", err)
	}
	mirror := cache.New(remote, local, m)
	if n, err := mirror.Reconcile(ctx); err != nil {
		log.Warn("initial mirror reconcile failed", "error", err)
	} else {
		log.Info("mirror ready", "path", cfg.Mirror.Path, "tickets", n)
	}
	return &backend{store: mirror, mirror: mirror}, nil
}

func (b *backend) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return b.store.Close(ctx)
}
