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

	httpadapter "adcore/internal/adapter/http"
	"adcore/internal/adapter/memory"
	"adcore/internal/adapter/payment"
	"adcore/internal/adapter/postgres"
	redisadapter "adcore/internal/adapter/redis"
	"adcore/internal/adapter/usecase"
	"adcore/internal/config"
	"adcore/internal/config/configs"
	"adcore/internal/core/port"
	"adcore/internal/db"
)

// store is every repository port; the postgres repository and the memory
// store both implement it.
type store interface {
	port.CampaignRepository
	port.AdGroupRepository
	port.CriterionRepository
	port.AdvertiserRepository
	port.TransactionRepository
	port.SpendReader
	port.SpendRecorder
}

// main is the entry point of the ad decision service. It loads configuration,
// opens the configured store, optionally runs migrations and seeds demo data,
// wires the use cases and starts the HTTP server. On receiving a termination
// signal it gracefully shuts down the server.
func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var logger *slog.Logger
	{
		// Initialise structured logger based on configuration.
		var handler slog.Handler
		level := cfg.Log.SlogLevel()
		switch cfg.Log.SlogFormat() {
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		default:
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
		logger = slog.New(handler).With(slog.String("env", cfg.Env))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err = run(ctx, cfg, logger); err != nil {
		logger.Error("service stopped", slog.Any("error", err))
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	var st store
	switch cfg.Store.Driver {
	case configs.StoreMemory:
		st = memory.New()
		logger.Warn("using in-memory store, data is lost on restart")
	default:
		// Optionally run migrations if configured. We use the Psql sub-config.
		if cfg.Psql.RunMigrations {
			if err := db.Migrate(cfg.Psql.Addr.String()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migrations applied successfully")
		}

		pool, err := db.NewPostgresPool(ctx, cfg.Psql)
		if err != nil {
			return fmt.Errorf("database connection: %w", err)
		}
		defer pool.Close()
		st = postgres.NewRepository(pool)
	}

	if cfg.Psql.Seed {
		if err := db.Seed(ctx, st); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		logger.Info("demo data seeded")
	}

	var (
		adGroups port.AdGroupRepository   = st
		criteria port.CriterionRepository = st
	)
	if cfg.Redis.Enabled() {
		rdb, err := redisadapter.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			return err
		}
		defer rdb.Close()
		cache := redisadapter.NewCriteriaCache(st, rdb, cfg.Redis.CriteriaTTL, logger)
		criteria = cache
		adGroups = cache.AdGroups(st)
	}

	var gateway port.PaymentGateway
	if cfg.Payment.Sandbox {
		gateway = payment.NewSandbox()
		logger.Warn("payment sandbox enabled, no real money moves")
	} else {
		gateway = payment.NewClient(payment.Config{
			BaseURL:       cfg.Payment.BaseURL,
			Channel:       cfg.Payment.Channel,
			Secret:        cfg.Payment.Secret,
			Timeout:       cfg.Payment.Timeout,
			MaxAttempts:   cfg.Payment.MaxAttempts,
			RetryInterval: cfg.Payment.RetryInterval,
			Rate:          cfg.Payment.Rate,
			Burst:         cfg.Payment.Burst,
		}, logger)
	}

	opts := []usecase.Option{usecase.WithLogger(logger)}
	targeting := usecase.NewTargetingUseCase(adGroups, criteria, opts...)
	budget := usecase.NewBudgetUseCase(st, st, st, opts...)
	billing := usecase.NewBillingUseCase(st, st, gateway, opts...)

	handler := httpadapter.NewHandler(httpadapter.Services{
		Serving:   usecase.NewServingUseCase(adGroups, targeting, budget, billing, opts...),
		Targeting: targeting,
		Budget:    budget,
		Billing:   billing,
		Catalog:   usecase.NewCatalogUseCase(st, adGroups, criteria, opts...),
	}, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server gracefully stopped")
	return nil
}
