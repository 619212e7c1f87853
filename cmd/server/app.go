package main

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/go-bistro/auth"
	"github.com/diewo77/go-bistro/internal/cache"
	"github.com/diewo77/go-bistro/internal/config"
	"github.com/diewo77/go-bistro/internal/db"
	"github.com/diewo77/go-bistro/internal/events"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// resources are the connections opened at startup, closed in reverse order
// on shutdown.
type resources struct {
	closers []func() error
}

func (r *resources) add(fn func() error) { r.closers = append(r.closers, fn) }

func (r *resources) Close() error {
	var err error
	for i := len(r.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, r.closers[i]())
	}
	return err
}

// prepareDatabase connects, migrates when enabled, and seeds profiles and
// the bootstrap admin.
func prepareDatabase(ctx context.Context, cfg *config.Config, logg *logger.Logger, res *resources) (*gorm.DB, error) {
	conn, err := db.Open(ctx, cfg.DB, logg)
	if err != nil {
		return nil, err
	}
	res.add(func() error { return db.Close(conn) })

	if cfg.DB.AutoMigrate {
		if err := db.Migrate(ctx, conn); err != nil {
			return nil, fmt.Errorf("migrating: %w", err)
		}
	}
	if err := seed(ctx, cfg, logg, conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func seed(ctx context.Context, cfg *config.Config, logg *logger.Logger, conn *gorm.DB) error {
	if err := db.SeedProfiles(ctx, conn); err != nil {
		return fmt.Errorf("seeding profiles: %w", err)
	}
	created, err := db.SeedAdmin(ctx, conn, cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}
	if created {
		logg.Info(logg.WithField(ctx, "email", cfg.Admin.Email), "seed.admin_created")
	}
	if cfg.App.DemoData {
		if err := db.SeedDemo(ctx, conn, time.Now().UTC()); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
		logg.Info(ctx, "seed.demo_loaded")
	}
	return nil
}

// newStore picks Redis when configured, otherwise the in-process map.
func newStore(ctx context.Context, cfg *config.Config, logg *logger.Logger, res *resources) (cache.Store, error) {
	if !cfg.Redis.Enabled() {
		logg.Info(ctx, "cache.memory")
		return cache.NewMemory(), nil
	}
	store, err := cache.NewRedis(ctx, cfg.Redis, logg)
	if err != nil {
		return nil, err
	}
	res.add(store.Close)
	return store, nil
}

// newPublisher picks RabbitMQ when configured, otherwise the log publisher.
func newPublisher(ctx context.Context, cfg *config.Config, logg *logger.Logger, res *resources) (events.Publisher, error) {
	if !cfg.AMQP.Enabled() {
		logg.Info(ctx, "events.log_publisher")
		return events.NewLogPublisher(logg), nil
	}
	conn, err := events.Dial(cfg.AMQP.URL)
	if err != nil {
		return nil, err
	}
	pub := events.NewAMQPPublisher(conn, cfg.AMQP.Exchange, events.WithDialer(func() (events.Connection, error) {
		return events.Dial(cfg.AMQP.URL)
	}))
	res.add(pub.Close)
	logg.Info(logg.WithField(ctx, "exchange", cfg.AMQP.Exchange), "events.amqp_publisher")
	return pub, nil
}

// buildApp opens every dependency and wires the HTTP application.
func buildApp(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*server.App, *resources, error) {
	res := &resources{}
	fail := func(err error) (*server.App, *resources, error) {
		return nil, nil, multierr.Append(err, res.Close())
	}

	conn, err := prepareDatabase(ctx, cfg, logg, res)
	if err != nil {
		return fail(err)
	}
	store, err := newStore(ctx, cfg, logg, res)
	if err != nil {
		return fail(err)
	}
	pub, err := newPublisher(ctx, cfg, logg, res)
	if err != nil {
		return fail(err)
	}
	tokens, err := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	if err != nil {
		return fail(fmt.Errorf("configuring tokens: %w", err))
	}
	auth.SetSecret(cfg.Session.Secret)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app := server.New(server.Options{
		DB:         conn,
		Log:        logg,
		Store:      store,
		Publisher:  pub,
		Registry:   reg,
		Tokens:     tokens,
		SummaryTTL: cfg.Cache.SummaryTTL,
	})
	return app, res, nil
}
