// Command server runs the bookkeeping HTTP API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joaodebarro/backend/internal/infrastructure/config"
	"github.com/joaodebarro/backend/internal/infrastructure/logger"
	"github.com/joaodebarro/backend/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync(log)

	log.Info("Starting bookkeeping backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Money goes over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers cleanup
	defer closers.run(log)

	tel, err := startTelemetry(ctx, cfg, log, &closers)
	if err != nil {
		return err
	}
	stores, err := openStores(ctx, cfg, log, tel, &closers)
	if err != nil {
		return err
	}
	handlers, err := buildHandlers(cfg, log, stores, tel)
	if err != nil {
		return err
	}

	engine, err := newEngine(cfg, log, tel.meters)
	if err != nil {
		return err
	}
	r := router.Mount(engine, handlers, router.WithAPIVersion("v1"))
	log.Info("Routes registered", zap.Int("count", len(r.Routes())))

	return serve(ctx, &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}, log)
}
