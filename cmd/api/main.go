// Command api is the Scoracle Trends API server. Besides serving the read
// API it keeps trends current: a LISTEN/NOTIFY consumer recomputes each
// (player, season) scope as raw box scores land, and maintenance tickers
// sweep for missed scopes and refresh the leaderboard view.
//
// Usage:
//
//	scoracle-api
//	API_PORT=8080 LISTENER_ENABLED=false scoracle-api

// @title Scoracle Trends API
// @version 1.0.0
// @description Basketball box-score analytics: per-game derived metrics (true shooting, usage, efficiency, per-36 rates, letter grades) and monthly player trends (recency-weighted averages, slopes, trend direction, consistency).
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Scoracle
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/scoracle-trends/internal/api"
	"github.com/albapepper/scoracle-trends/internal/cache"
	"github.com/albapepper/scoracle-trends/internal/config"
	"github.com/albapepper/scoracle-trends/internal/db"
	"github.com/albapepper/scoracle-trends/internal/listener"
	"github.com/albapepper/scoracle-trends/internal/maintenance"
	"github.com/albapepper/scoracle-trends/internal/observability"
	"github.com/albapepper/scoracle-trends/internal/pipeline"
	"github.com/albapepper/scoracle-trends/internal/store"

	_ "github.com/albapepper/scoracle-trends/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	st := store.New(pool.Pool)
	metrics := observability.NewMetrics()

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	defer appCache.Close()
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Scope recomputation shared by the listener and the catch-up sweep.
	runner := &pipeline.Runner{
		Repo:    st,
		Decay:   cfg.TrendDecay,
		Workers: cfg.PipelineWorkers,
		Metrics: metrics,
		Logger:  logger,
		OnComplete: func(res pipeline.Result) {
			appCache.InvalidatePrefix(cache.PlayerPrefix(res.PlayerID))
			appCache.InvalidatePrefix(cache.SeasonsKey)
		},
	}
	if cfg.TrendAsOfPinned {
		runner.AsOf = cfg.TrendAsOf
	}

	var background sync.WaitGroup

	// Start LISTEN/NOTIFY consumer for raw box-score loads
	if cfg.ListenerEnabled {
		background.Add(1)
		go func() {
			defer background.Done()
			listener.Start(ctx, cfg.DatabaseURL, func(ctx context.Context, ev listener.Event) error {
				_, err := runner.RunScope(ctx, ev.Season, ev.PlayerID)
				return err
			}, logger)
		}()
	} else {
		logger.Info("Box score listener disabled (LISTENER_ENABLED=false)")
	}

	// Start maintenance tickers (catch-up sweep, view refresh)
	maintCfg := maintenance.DefaultConfig()
	maintCfg.CatchUpInterval = cfg.MaintenanceInterval
	background.Add(1)
	go func() {
		defer background.Done()
		maintenance.Start(ctx, maintenance.Deps{
			Scopes: st,
			Recompute: func(ctx context.Context, sc store.Scope) error {
				_, err := runner.RunScope(ctx, sc.Season, sc.PlayerID)
				return err
			},
			Views: pool.Pool,
		}, maintCfg, logger)
	}()

	// Create router
	router := api.NewRouter(st, appCache, cfg, metrics, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Scoracle Trends API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			cancel()
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	background.Wait()
	logger.Info("Server stopped")
}
