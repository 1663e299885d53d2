package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloud-ru/loan-servicing-go/internal/commission"
	"github.com/cloud-ru/loan-servicing-go/internal/config"
	"github.com/cloud-ru/loan-servicing-go/internal/httpapi"
	"github.com/cloud-ru/loan-servicing-go/internal/logging"
	"github.com/cloud-ru/loan-servicing-go/internal/servicing"
	"github.com/cloud-ru/loan-servicing-go/internal/store"
	"github.com/cloud-ru/loan-servicing-go/internal/store/memory"
	"github.com/cloud-ru/loan-servicing-go/internal/store/postgres"
	"github.com/cloud-ru/loan-servicing-go/internal/tools"
	"github.com/cloud-ru/loan-servicing-go/internal/tracing"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	tracer, shutdownTracing, err := tracing.InitTracing(cfg.OTELServiceName, cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("tracing shutdown failed", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	distributor, err := commission.NewDistributor(cfg.Reconstruction(), logger)
	if err != nil {
		return fmt.Errorf("init distributor: %w", err)
	}
	svc := servicing.New(st, distributor, servicing.WithLogger(logger))
	registry := tools.NewRegistry(cfg, tracer, distributor, svc)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      httpapi.NewRouter(httpapi.Dependencies{Tools: registry, Logger: logger}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// openStore выбирает PostgreSQL при заданном DATABASE_URL, иначе хранилище в памяти
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("using in-memory store")
		return memory.New(), func() {}, nil
	}

	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	pool, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	logger.Info("using postgres store")
	return postgres.New(pool), pool.Close, nil
}
