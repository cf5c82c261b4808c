// Package handler provides HTTP handlers for all API endpoints.
// Handlers read through the Store interface and serve JSON from the
// in-memory cache when possible.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/albapepper/scoracle-trends/internal/api/respond"
	"github.com/albapepper/scoracle-trends/internal/boxscore"
	"github.com/albapepper/scoracle-trends/internal/cache"
	"github.com/albapepper/scoracle-trends/internal/config"
	"github.com/albapepper/scoracle-trends/internal/store"
	"github.com/albapepper/scoracle-trends/internal/trends"
)

// Store is the read side of the persistence layer. *store.Store satisfies it.
type Store interface {
	HealthCheck(ctx context.Context) error
	ListSeasons(ctx context.Context) ([]store.SeasonSummary, error)
	ListProcessedRows(ctx context.Context, season string, playerID int64) ([]boxscore.ProcessedGameRow, error)
	ListMonthlyTrends(ctx context.Context, playerID int64, season string) ([]trends.MonthlyTrendRecord, error)
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store  Store
	cache  *cache.Cache
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(s Store, c *cache.Cache, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: s, cache: c, cfg: cfg, logger: logger}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status, and the trend parameters in effect.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	// Unpinned runs use the UTC date at run time, not the startup date.
	var asOf interface{}
	if h.cfg.TrendAsOfPinned {
		asOf = h.cfg.TrendAsOf.Format(time.DateOnly)
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":           "Scoracle Trends API",
		"version":        "1.0.0",
		"status":         "running",
		"docs":           "/docs",
		"current_season": config.CurrentSeason(),
		"trend_parameters": map[string]interface{}{
			"decay_factor": h.cfg.TrendDecay,
			"as_of":        asOf,
			"as_of_pinned": h.cfg.TrendAsOfPinned,
		},
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthCheck(r.Context()); err != nil {
		h.logger.Warn("Database health check failed", "error", err)
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics (active keys, expired keys).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// --------------------------------------------------------------------------
// Cached responses
// --------------------------------------------------------------------------

// errNotFound is returned by a load func when there is nothing to serve.
type errNotFound string

func (e errNotFound) Error() string { return string(e) }

// serveCached answers from the cache (honoring If-None-Match) or calls load,
// encodes its result and caches it for ttl.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration, load func(ctx context.Context) (interface{}, error)) {
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	v, err := load(r.Context())
	if err != nil {
		if nf, ok := err.(errNotFound); ok {
			respond.WriteError(w, http.StatusNotFound, respond.CodeNotFound, string(nf))
			return
		}
		h.logger.Error("Query failed", "key", key, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, respond.CodeInternal, "Query failed")
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("Encode response failed", "key", key, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, respond.CodeInternal, "Encode failed")
		return
	}

	etag := h.cache.Set(key, data, ttl)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, ttl, false)
}
