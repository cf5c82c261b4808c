// Package db provides a pgxpool-based connection pool with prepared statement
// registration, health checking and embedded schema migrations.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/scoracle-trends/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// Column lists shared by the read statements and the store's scanners.
const (
	RawColumns = `r.season, r.game_id, r.game_date, r.team_id, r.team_tricode, r.matchup,
		r.player_id, r.player_name, r.position, r.comment, r.minutes,
		r.points, r.field_goals_made, r.field_goals_attempted,
		r.three_pointers_made, r.three_pointers_attempted,
		r.free_throws_made, r.free_throws_attempted,
		r.rebounds_offensive, r.rebounds_defensive, r.rebounds_total,
		r.assists, r.steals, r.blocks, r.turnovers, r.fouls_personal, r.plus_minus`

	ProcessedColumns = `p.minutes_played, p.is_dnp,
		p.field_goal_pct, p.three_point_pct, p.free_throw_pct,
		p.true_shooting_pct, p.effective_fg_pct, p.usage_rate,
		p.efficiency_rating, p.defensive_impact,
		p.points_per_36, p.rebounds_per_36, p.assists_per_36,
		p.efficiency_grade, p.defensive_grade, p.valid, p.validation_warnings`

	TrendColumns = `player_id, season, month, player_name, games_played, games_in_month,
		avg_minutes, avg_points, avg_rebounds, avg_assists, avg_steals, avg_blocks, avg_turnovers,
		field_goal_pct, three_point_pct, free_throw_pct,
		avg_true_shooting_pct, avg_effective_fg_pct, avg_usage_rate,
		avg_efficiency_rating, avg_defensive_impact,
		avg_points_per_36, avg_rebounds_per_36, avg_assists_per_36,
		weighted_points, weighted_true_shooting_pct, weighted_efficiency_rating,
		points_slope, true_shooting_slope, defensive_impact_slope,
		trend_direction, consistency_score, decay_factor, as_of`
)

// registerPreparedStatements registers all statements the API and ingestion
// layers use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// API + pipeline: raw rows for a season, optionally one player ($2 = 0 means all)
		"list_raw_rows": `SELECT ` + RawColumns + `
			FROM ` + config.RawStatsTable + ` r
			WHERE r.season = $1 AND ($2::bigint = 0 OR r.player_id = $2)
			ORDER BY r.player_id, r.game_date, r.game_id`,

		// API: processed rows joined to their raw counts
		"list_processed_rows": `SELECT ` + RawColumns + `, ` + ProcessedColumns + `
			FROM ` + config.ProcessedStatsTable + ` p
			JOIN ` + config.RawStatsTable + ` r USING (player_id, game_id)
			WHERE r.season = $1 AND ($2::bigint = 0 OR r.player_id = $2)
			ORDER BY r.player_id, r.game_date, r.game_id`,

		// API: monthly trends for one player, optionally one season
		"list_monthly_trends": `SELECT ` + TrendColumns + `
			FROM ` + config.MonthlyTrendsTable + `
			WHERE player_id = $1 AND ($2::text = '' OR season = $2)
			ORDER BY season, month`,

		// API: seasons with loaded box scores
		"list_seasons": `SELECT season, COUNT(DISTINCT player_id), COUNT(*), MIN(game_date), MAX(game_date)
			FROM ` + config.RawStatsTable + `
			GROUP BY season
			ORDER BY season DESC`,

		// Maintenance: (player, season) scopes whose raw rows changed after the last trend run
		"stale_trend_scopes": `SELECT r.player_id, r.season
			FROM ` + config.RawStatsTable + ` r
			LEFT JOIN trend_runs t ON t.player_id = r.player_id AND t.season = r.season
			GROUP BY r.player_id, r.season, t.calculated_at
			HAVING t.calculated_at IS NULL OR MAX(r.updated_at) > t.calculated_at
			ORDER BY r.season, r.player_id
			LIMIT $1`,

		// Trend writes: per-scope lock, serializes concurrent recomputations
		"lock_trend_scope": "SELECT pg_advisory_xact_lock(hashtext($1::text || ':' || $2::text))",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
