// Package api wires the HTTP router: middleware stack, docs, metrics and
// the read-only /api/v1 routes over processed games and monthly trends.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/albapepper/scoracle-trends/internal/api/handler"
	"github.com/albapepper/scoracle-trends/internal/cache"
	"github.com/albapepper/scoracle-trends/internal/config"
	"github.com/albapepper/scoracle-trends/internal/observability"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
// m may be nil, in which case /metrics is not mounted.
func NewRouter(s handler.Store, appCache *cache.Cache, cfg *config.Config, m *observability.Metrics, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip
	r.Use(middleware.Recoverer)

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(s, appCache, cfg, logger)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Prometheus
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/seasons", h.GetSeasons)

		r.Route("/players/{playerID}", func(r chi.Router) {
			r.Get("/games", h.GetPlayerGames)
			r.Get("/trends", h.GetPlayerTrends)
		})
	})

	return r
}
