// Package maintenance runs periodic background tasks as Go tickers: a
// catch-up sweep that recomputes scopes whose NOTIFY events were missed
// (listener downtime, bulk loads with triggers disabled) and a refresh of
// the trend leaderboard view.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/albapepper/scoracle-trends/internal/store"
)

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	CatchUpInterval time.Duration // Sweep for stale trend scopes
	CatchUpBatch    int           // Max scopes recomputed per sweep
	RefreshInterval time.Duration // Leaderboard materialized view refresh
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		CatchUpInterval: 15 * time.Minute,
		CatchUpBatch:    200,
		RefreshInterval: 30 * time.Minute,
	}
}

// ScopeSource lists scopes whose trends lag their raw rows.
type ScopeSource interface {
	StaleScopes(ctx context.Context, limit int) ([]store.Scope, error)
}

// RecomputeFunc recomputes one scope.
type RecomputeFunc func(ctx context.Context, sc store.Scope) error

// Deps are the collaborators the tickers need.
type Deps struct {
	Scopes    ScopeSource
	Recompute RecomputeFunc
	Views     Execer
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, deps Deps, cfg Config, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Maintenance tickers started",
		"catchup", cfg.CatchUpInterval,
		"refresh", cfg.RefreshInterval)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	// Catch-up: recompute scopes missed by the listener
	if cfg.CatchUpInterval > 0 {
		t := time.NewTicker(cfg.CatchUpInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() {
			ran, _, err := CatchUp(ctx, deps.Scopes, deps.Recompute, cfg.CatchUpBatch, logger)
			if err == nil && ran > 0 && deps.Views != nil {
				_ = RefreshMaterializedViews(ctx, deps.Views, logger)
			}
		})
	}

	// Refresh: keep the leaderboard current with listener-driven runs
	if cfg.RefreshInterval > 0 && deps.Views != nil {
		t := time.NewTicker(cfg.RefreshInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { _ = RefreshMaterializedViews(ctx, deps.Views, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// CatchUp recomputes up to limit stale scopes, one at a time. It returns how
// many recomputations succeeded and failed; err is set only when the stale
// scope query itself fails.
func CatchUp(ctx context.Context, src ScopeSource, recompute RecomputeFunc, limit int, logger *slog.Logger) (ran, failed int, err error) {
	if limit <= 0 {
		limit = DefaultConfig().CatchUpBatch
	}
	scopes, err := src.StaleScopes(ctx, limit)
	if err != nil {
		logger.Warn("Catch-up sweep: failed to list stale scopes", "error", err)
		return 0, 0, err
	}
	if len(scopes) == 0 {
		return 0, 0, nil
	}

	start := time.Now()
	for _, sc := range scopes {
		if ctx.Err() != nil {
			break
		}
		if err := recompute(ctx, sc); err != nil {
			logger.Warn("Catch-up sweep: recompute failed",
				"player_id", sc.PlayerID, "season", sc.Season, "error", err)
			failed++
			continue
		}
		ran++
	}
	logger.Info("Catch-up sweep: recomputed stale scopes",
		"count", ran, "failed", failed, "duration", time.Since(start).Round(time.Millisecond))
	return ran, failed, nil
}
