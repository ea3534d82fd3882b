package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vartasolar/fieldops-backend/api/routes"
	"github.com/vartasolar/fieldops-backend/internal/cache"
	"github.com/vartasolar/fieldops-backend/internal/connectivity"
	"github.com/vartasolar/fieldops-backend/internal/orders"
	"github.com/vartasolar/fieldops-backend/internal/syncer"
	"github.com/vartasolar/fieldops-backend/pkg/auth"
	"github.com/vartasolar/fieldops-backend/pkg/config"
	"github.com/vartasolar/fieldops-backend/pkg/db"
	"github.com/vartasolar/fieldops-backend/pkg/logger"
	"github.com/vartasolar/fieldops-backend/pkg/metrics"
	"github.com/vartasolar/fieldops-backend/pkg/migrate"
	"github.com/vartasolar/fieldops-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "agent"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "agent",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	cacheClient, err := db.NewCache(ctx, cfg.Cache, logg)
	if err != nil {
		logg.Error(ctx, "failed to open cache database", err)
		os.Exit(1)
	}
	defer func() {
		if err := cacheClient.Close(); err != nil {
			logg.Error(ctx, "error closing cache database", err)
		}
	}()

	if err := migrate.MaybeRunCache(ctx, cfg, logg, cacheClient); err != nil {
		logg.Error(ctx, "failed to migrate cache database", err)
		os.Exit(1)
	}

	remoteClient, err := db.New(ctx, cfg.RemoteDB, logg)
	if err != nil {
		logg.Error(ctx, "failed to configure remote database", err)
		os.Exit(1)
	}
	defer func() {
		if err := remoteClient.Close(); err != nil {
			logg.Error(ctx, "error closing remote database", err)
		}
	}()

	// Redis is optional: without it the transition endpoints lose duplicate
	// absorption but keep working.
	var idempotencyStore redis.IdempotencyStore
	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Warn(ctx, "redis unavailable, idempotency replay disabled")
	} else {
		idempotencyStore = redisClient
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}()
	}

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)

	monitor := connectivity.NewMonitor(connectivity.MonitorParams{
		Pinger:   remoteClient,
		Logger:   logg,
		Metrics:  syncMetrics,
		Interval: cfg.Sync.ProbeInterval,
		Timeout:  cfg.Sync.ProbeTimeout,
	})

	coordinator, err := syncer.NewCoordinator(syncer.CoordinatorParams{
		Logger:     logg,
		Store:      cache.NewStore(cacheClient.DB()),
		Remote:     orders.NewRepository(remoteClient.DB()),
		Monitor:    monitor,
		Metrics:    syncMetrics,
		AgentActor: agentActor(cfg, logg),
	})
	if err != nil {
		logg.Error(ctx, "failed to build sync coordinator", err)
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := monitor.Run(runCtx); err != nil && err != context.Canceled {
			logg.Error(runCtx, "connectivity monitor stopped", err)
		}
	}()
	go func() {
		if err := coordinator.Run(runCtx); err != nil && err != context.Canceled {
			logg.Error(runCtx, "sync coordinator stopped", err)
		}
	}()

	if cfg.Sync.FetchOnBoot {
		if _, err := coordinator.FetchOrders(runCtx); err != nil {
			logg.Error(runCtx, "initial order fetch failed", err)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	bootCtx := logg.WithFields(runCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(bootCtx, "starting sync agent")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, coordinator, cacheClient, remoteClient, idempotencyStore, registry),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-runCtx.Done():
		logg.Info(bootCtx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(bootCtx, "graceful shutdown failed", err)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(bootCtx, "agent server stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}

// agentActor resolves the identity background drains act under. Drains need
// an authenticated actor; without a valid agent token only manually triggered
// syncs (which carry the caller's identity) will run.
func agentActor(cfg *config.Config, logg *logger.Logger) uuid.UUID {
	if cfg.Auth.AgentToken == "" {
		logg.Warn(context.Background(), "no agent token configured, automatic drains disabled")
		return uuid.Nil
	}
	claims, err := auth.ParseAccessToken(cfg.Auth, cfg.Auth.AgentToken)
	if err != nil {
		logg.Warn(context.Background(), "agent token invalid, automatic drains disabled")
		return uuid.Nil
	}
	return claims.UserID
}
