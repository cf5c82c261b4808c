// Package store persists raw rows, processed rows and monthly trends in
// Postgres. Writes are full overwrites: processed rows upsert by
// (player, game) and a (player, season) trend scope is replaced as a unit
// under an advisory lock, so concurrent recomputations of the same scope
// serialize instead of interleaving.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/scoracle-trends/internal/boxscore"
	"github.com/albapepper/scoracle-trends/internal/config"
	"github.com/albapepper/scoracle-trends/internal/db"
	"github.com/albapepper/scoracle-trends/internal/trends"
)

// batchSize caps the number of queued statements per pgx.Batch round trip.
const batchSize = 500

// Store is the Postgres-backed repository.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps a pool whose connections have the db package's prepared
// statements registered.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool exposes the underlying pool for maintenance statements.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Scope identifies one (player, season) trend recomputation unit.
type Scope struct {
	PlayerID int64  `json:"player_id"`
	Season   string `json:"season"`
}

// SeasonSummary describes the box scores loaded for one season.
type SeasonSummary struct {
	Season    string    `json:"season"`
	Players   int       `json:"players"`
	GameRows  int       `json:"game_rows"`
	FirstGame time.Time `json:"first_game"`
	LastGame  time.Time `json:"last_game"`
}

// HealthCheck runs the prepared health statement.
func (s *Store) HealthCheck(ctx context.Context) error {
	var n int
	return s.pool.QueryRow(ctx, "health_check").Scan(&n)
}

// --------------------------------------------------------------------------
// Writes
// --------------------------------------------------------------------------

const upsertRawSQL = `
	INSERT INTO ` + config.RawStatsTable + ` (
		season, game_id, game_date, team_id, team_tricode, matchup,
		player_id, player_name, position, comment, minutes,
		points, field_goals_made, field_goals_attempted,
		three_pointers_made, three_pointers_attempted,
		free_throws_made, free_throws_attempted,
		rebounds_offensive, rebounds_defensive, rebounds_total,
		assists, steals, blocks, turnovers, fouls_personal, plus_minus
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)
	ON CONFLICT (player_id, game_id) DO UPDATE SET
		season = EXCLUDED.season,
		game_date = EXCLUDED.game_date,
		team_id = EXCLUDED.team_id,
		team_tricode = EXCLUDED.team_tricode,
		matchup = EXCLUDED.matchup,
		player_name = EXCLUDED.player_name,
		position = EXCLUDED.position,
		comment = EXCLUDED.comment,
		minutes = EXCLUDED.minutes,
		points = EXCLUDED.points,
		field_goals_made = EXCLUDED.field_goals_made,
		field_goals_attempted = EXCLUDED.field_goals_attempted,
		three_pointers_made = EXCLUDED.three_pointers_made,
		three_pointers_attempted = EXCLUDED.three_pointers_attempted,
		free_throws_made = EXCLUDED.free_throws_made,
		free_throws_attempted = EXCLUDED.free_throws_attempted,
		rebounds_offensive = EXCLUDED.rebounds_offensive,
		rebounds_defensive = EXCLUDED.rebounds_defensive,
		rebounds_total = EXCLUDED.rebounds_total,
		assists = EXCLUDED.assists,
		steals = EXCLUDED.steals,
		blocks = EXCLUDED.blocks,
		turnovers = EXCLUDED.turnovers,
		fouls_personal = EXCLUDED.fouls_personal,
		plus_minus = EXCLUDED.plus_minus,
		updated_at = NOW()`

// UpsertRawRows writes raw rows, overwriting any existing (player, game) row.
// It returns the number of rows written.
func (s *Store) UpsertRawRows(ctx context.Context, rows []boxscore.RawGameRow) (int, error) {
	return sendChunked(ctx, s.pool, len(rows), func(b *pgx.Batch, i int) {
		b.Queue(upsertRawSQL, rawArgs(rows[i])...)
	})
}

const upsertProcessedSQL = `
	INSERT INTO ` + config.ProcessedStatsTable + ` (
		player_id, game_id, season, game_date, minutes_played, is_dnp,
		field_goal_pct, three_point_pct, free_throw_pct,
		true_shooting_pct, effective_fg_pct, usage_rate,
		efficiency_rating, defensive_impact,
		points_per_36, rebounds_per_36, assists_per_36,
		efficiency_grade, defensive_grade, valid, validation_warnings
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	ON CONFLICT (player_id, game_id) DO UPDATE SET
		season = EXCLUDED.season,
		game_date = EXCLUDED.game_date,
		minutes_played = EXCLUDED.minutes_played,
		is_dnp = EXCLUDED.is_dnp,
		field_goal_pct = EXCLUDED.field_goal_pct,
		three_point_pct = EXCLUDED.three_point_pct,
		free_throw_pct = EXCLUDED.free_throw_pct,
		true_shooting_pct = EXCLUDED.true_shooting_pct,
		effective_fg_pct = EXCLUDED.effective_fg_pct,
		usage_rate = EXCLUDED.usage_rate,
		efficiency_rating = EXCLUDED.efficiency_rating,
		defensive_impact = EXCLUDED.defensive_impact,
		points_per_36 = EXCLUDED.points_per_36,
		rebounds_per_36 = EXCLUDED.rebounds_per_36,
		assists_per_36 = EXCLUDED.assists_per_36,
		efficiency_grade = EXCLUDED.efficiency_grade,
		defensive_grade = EXCLUDED.defensive_grade,
		valid = EXCLUDED.valid,
		validation_warnings = EXCLUDED.validation_warnings,
		processed_at = NOW()`

// UpsertProcessedRows writes processed rows. Every derived column is
// overwritten; nothing is merged with the previous version.
func (s *Store) UpsertProcessedRows(ctx context.Context, rows []boxscore.ProcessedGameRow) (int, error) {
	return sendChunked(ctx, s.pool, len(rows), func(b *pgx.Batch, i int) {
		b.Queue(upsertProcessedSQL, processedArgs(rows[i])...)
	})
}

const insertTrendSQL = `
	INSERT INTO ` + config.MonthlyTrendsTable + ` (` + db.TrendColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34)`

// ReplaceMonthlyTrends swaps the stored records for one (player, season)
// scope with records in a single transaction. Records outside the scope are
// rejected before anything is written.
func (s *Store) ReplaceMonthlyTrends(ctx context.Context, playerID int64, season string, records []trends.MonthlyTrendRecord) error {
	for _, rec := range records {
		if rec.PlayerID != playerID || rec.Season != season {
			return fmt.Errorf("record %+v outside scope player=%d season=%s", rec.PartitionKey, playerID, season)
		}
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "lock_trend_scope", playerID, season); err != nil {
			return fmt.Errorf("lock trend scope: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM `+config.MonthlyTrendsTable+` WHERE player_id = $1 AND season = $2`,
			playerID, season); err != nil {
			return fmt.Errorf("delete trends: %w", err)
		}

		if len(records) > 0 {
			b := &pgx.Batch{}
			for _, rec := range records {
				b.Queue(insertTrendSQL, trendArgs(rec)...)
			}
			if err := tx.SendBatch(ctx, b).Close(); err != nil {
				return fmt.Errorf("insert trends: %w", err)
			}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO trend_runs (player_id, season, records, calculated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (player_id, season) DO UPDATE SET
				records = EXCLUDED.records,
				calculated_at = EXCLUDED.calculated_at`,
			playerID, season, len(records))
		if err != nil {
			return fmt.Errorf("record trend run: %w", err)
		}
		return nil
	})
}

// sendChunked queues n statements in batches of batchSize and returns how
// many executed before the first error.
func sendChunked(ctx context.Context, pool *pgxpool.Pool, n int, queue func(b *pgx.Batch, i int)) (int, error) {
	written := 0
	for start := 0; start < n; start += batchSize {
		end := min(start+batchSize, n)
		b := &pgx.Batch{}
		for i := start; i < end; i++ {
			queue(b, i)
		}

		br := pool.SendBatch(ctx, b)
		for i := start; i < end; i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return written, fmt.Errorf("batch row %d: %w", i, err)
			}
			written++
		}
		if err := br.Close(); err != nil {
			return written, fmt.Errorf("close batch: %w", err)
		}
	}
	return written, nil
}

// --------------------------------------------------------------------------
// Reads
// --------------------------------------------------------------------------

// ListRawRows returns raw rows for a season ordered by player, date and game.
// playerID 0 returns every player.
func (s *Store) ListRawRows(ctx context.Context, season string, playerID int64) ([]boxscore.RawGameRow, error) {
	rows, err := s.pool.Query(ctx, "list_raw_rows", season, playerID)
	if err != nil {
		return nil, fmt.Errorf("query raw rows: %w", err)
	}
	defer rows.Close()

	var out []boxscore.RawGameRow
	for rows.Next() {
		var r boxscore.RawGameRow
		if err := rows.Scan(rawDest(&r)...); err != nil {
			return nil, fmt.Errorf("scan raw row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListProcessedRows returns processed rows for a season, same ordering as
// ListRawRows.
func (s *Store) ListProcessedRows(ctx context.Context, season string, playerID int64) ([]boxscore.ProcessedGameRow, error) {
	rows, err := s.pool.Query(ctx, "list_processed_rows", season, playerID)
	if err != nil {
		return nil, fmt.Errorf("query processed rows: %w", err)
	}
	defer rows.Close()

	var out []boxscore.ProcessedGameRow
	for rows.Next() {
		var (
			p              boxscore.ProcessedGameRow
			effGrade, dGrd *string
		)
		dest := append(rawDest(&p.RawGameRow), processedDest(&p, &effGrade, &dGrd)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan processed row: %w", err)
		}
		p.EfficiencyGrade = toGrade(effGrade)
		p.DefensiveGrade = toGrade(dGrd)
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListMonthlyTrends returns a player's monthly records ordered by season and
// month. An empty season returns every season.
func (s *Store) ListMonthlyTrends(ctx context.Context, playerID int64, season string) ([]trends.MonthlyTrendRecord, error) {
	rows, err := s.pool.Query(ctx, "list_monthly_trends", playerID, season)
	if err != nil {
		return nil, fmt.Errorf("query monthly trends: %w", err)
	}
	defer rows.Close()

	var out []trends.MonthlyTrendRecord
	for rows.Next() {
		var (
			rec       trends.MonthlyTrendRecord
			direction string
		)
		if err := rows.Scan(trendDest(&rec, &direction)...); err != nil {
			return nil, fmt.Errorf("scan monthly trend: %w", err)
		}
		rec.TrendDirection = boxscore.TrendDirection(direction)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListSeasons summarizes each season with loaded box scores, newest first.
func (s *Store) ListSeasons(ctx context.Context) ([]SeasonSummary, error) {
	rows, err := s.pool.Query(ctx, "list_seasons")
	if err != nil {
		return nil, fmt.Errorf("query seasons: %w", err)
	}
	defer rows.Close()

	var out []SeasonSummary
	for rows.Next() {
		var ss SeasonSummary
		if err := rows.Scan(&ss.Season, &ss.Players, &ss.GameRows, &ss.FirstGame, &ss.LastGame); err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

// StaleScopes returns up to limit (player, season) scopes whose raw rows
// changed after their trends were last computed, or were never computed.
func (s *Store) StaleScopes(ctx context.Context, limit int) ([]Scope, error) {
	rows, err := s.pool.Query(ctx, "stale_trend_scopes", limit)
	if err != nil {
		return nil, fmt.Errorf("query stale scopes: %w", err)
	}
	defer rows.Close()

	var out []Scope
	for rows.Next() {
		var sc Scope
		if err := rows.Scan(&sc.PlayerID, &sc.Season); err != nil {
			return nil, fmt.Errorf("scan stale scope: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
