package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/diewo77/go-bistro/internal/config"
	"github.com/diewo77/go-bistro/internal/db"
	"github.com/diewo77/go-bistro/internal/logger"
	"go.uber.org/multierr"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg := logger.New(logger.Options{
		ServiceName: "go-bistro",
		Level:       logger.ParseLevel(cfg.Log.Level),
		Format:      cfg.Log.Format,
		WarnStack:   cfg.Log.WarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *migrateOnlyFlag || *seedOnlyFlag {
		return maintenance(ctx, cfg, logg)
	}

	app, res, err := buildApp(ctx, cfg, logg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithFields(ctx, map[string]any{"port": cfg.Server.Port, "env": cfg.App.Env}), "server.start")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err = <-serveErr:
	case <-ctx.Done():
		logg.Info(context.Background(), "server.shutdown_signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	err = multierr.Combine(err, srv.Shutdown(shutdownCtx), res.Close())
	if err != nil {
		logg.Error(context.Background(), "server.stopped_with_errors", err)
		return err
	}
	logg.Info(context.Background(), "server.stopped")
	return nil
}

// maintenance handles -migrate-only and -seed-only.
func maintenance(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	conn, err := db.Open(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer db.Close(conn)

	if *migrateOnlyFlag {
		if err := db.Migrate(ctx, conn); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logg.Info(ctx, "migrate.done")
		return nil
	}
	if err := seed(ctx, cfg, logg, conn); err != nil {
		return err
	}
	logg.Info(ctx, "seed.done")
	return nil
}
