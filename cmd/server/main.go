package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/light-bringer/chatsync-service/internal/config"
	"github.com/light-bringer/chatsync-service/internal/pkg/logger"
	"github.com/light-bringer/chatsync-service/internal/services"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}

func run() error {
	// 1. Load configuration from the environment
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	lg, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	lg.Info("starting chat sync service",
		zap.String("spanner_database", cfg.Spanner.Database),
		zap.String("http_port", cfg.HTTP.Port),
		zap.Bool("kafka_enabled", cfg.Kafka.Enabled),
		zap.String("catalog_driver", cfg.Catalog.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize service dependencies (DI container)
	opts, err := services.NewServiceOptions(ctx, cfg, lg)
	if err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}
	defer opts.Close()

	g, gctx := errgroup.WithContext(ctx)

	// 3. Sync worker and stall sweeper
	g.Go(func() error { return opts.Scheduler.Run(gctx) })
	g.Go(func() error { return opts.Scheduler.RunSweeper(gctx) })

	// 4. Live message consumer
	g.Go(func() error { return opts.Subscriber.Subscribe(gctx, opts.MessageHandler) })

	// 5. Admin API
	addr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
	g.Go(func() error {
		lg.Info("HTTP server listening", zap.String("addr", addr))
		if err := opts.Server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// 6. Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := opts.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		return nil
	})

	return g.Wait()
}
