package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albapepper/scoracle-trends/internal/config"
)

// Execer runs a statement. *pgxpool.Pool satisfies it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Views lists the materialized views derived from monthly trends.
var Views = []string{
	config.TrendLeadersView,
}

// RefreshMaterializedViews refreshes all materialized views after trends
// change. Uses CONCURRENTLY so reads are not blocked during refresh.
// Call this after a successful pipeline run.
func RefreshMaterializedViews(ctx context.Context, db Execer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, v := range Views {
		start := time.Now()
		_, err := db.Exec(ctx, "REFRESH MATERIALIZED VIEW CONCURRENTLY "+pgx.Identifier{v}.Sanitize())
		dur := time.Since(start).Round(time.Millisecond)

		if err != nil {
			logger.Warn("Failed to refresh materialized view",
				"view", v, "duration", dur, "error", err)
			return fmt.Errorf("refresh %s: %w", v, err)
		}
		logger.Info("Refreshed materialized view", "view", v, "duration", dur)
	}
	return nil
}
