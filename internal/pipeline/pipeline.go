// Package pipeline recomputes processed rows and monthly trends for a
// season, or one player within it, from the raw rows in the store.
//
// A run is a full recomputation: every processed row in scope is rewritten
// and every (player, season) trend scope is replaced, including scopes that
// no longer qualify for any monthly record.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/albapepper/scoracle-trends/internal/boxscore"
	"github.com/albapepper/scoracle-trends/internal/metrics"
	"github.com/albapepper/scoracle-trends/internal/observability"
	"github.com/albapepper/scoracle-trends/internal/trends"
)

// Repository is the storage the pipeline reads from and writes to.
type Repository interface {
	ListRawRows(ctx context.Context, season string, playerID int64) ([]boxscore.RawGameRow, error)
	UpsertProcessedRows(ctx context.Context, rows []boxscore.ProcessedGameRow) (int, error)
	ReplaceMonthlyTrends(ctx context.Context, playerID int64, season string, records []trends.MonthlyTrendRecord) error
}

// Options scopes and parameterizes a run.
type Options struct {
	Season   string
	PlayerID int64 // 0 = every player in the season
	Decay    float64
	AsOf     time.Time
	Workers  int

	Metrics *observability.Metrics // optional
}

// Run executes one recomputation. The returned error is reserved for
// failures that make the whole run meaningless (bad options, unreadable
// raw rows); per-player write failures are recorded on the Result.
func Run(ctx context.Context, repo Repository, opts Options, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	result := Result{RunID: uuid.New(), Season: opts.Season, PlayerID: opts.PlayerID}
	logger = logger.With("run_id", result.RunID.String(), "season", opts.Season)
	if opts.PlayerID != 0 {
		logger = logger.With("player_id", opts.PlayerID)
	}

	if opts.Season == "" {
		return result, fmt.Errorf("pipeline: season is required")
	}
	if err := trends.CheckParams(opts.Decay, opts.AsOf); err != nil {
		return result, err
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	// 1. Raw rows
	raw, err := repo.ListRawRows(ctx, opts.Season, opts.PlayerID)
	if err != nil {
		return result, fmt.Errorf("load raw rows: %w", err)
	}
	result.RawRows = len(raw)
	if len(raw) == 0 {
		result.Duration = time.Since(start)
		logger.Info("No raw rows in scope", "summary", result.Summary())
		return result, nil
	}

	// 2. Metrics
	processed := metrics.ProcessAll(raw, opts.Workers)
	for _, p := range processed {
		if !p.Valid {
			result.InvalidRows++
		}
	}
	opts.Metrics.RowsProcessed(true, len(processed)-result.InvalidRows)
	opts.Metrics.RowsProcessed(false, result.InvalidRows)

	written, err := repo.UpsertProcessedRows(ctx, processed)
	result.ProcessedRows = written
	if err != nil {
		result.AddErrorf("upsert processed rows: %v", err)
	}
	logger.Info("Processed rows written", "count", written, "invalid", result.InvalidRows)

	// 3. Trends
	records, err := trends.AggregateAll(processed, opts.Decay, opts.AsOf, opts.Workers)
	if err != nil {
		return result, fmt.Errorf("aggregate trends: %w", err)
	}
	byScope := make(map[scope][]trends.MonthlyTrendRecord)
	for _, rec := range records {
		k := scope{rec.PlayerID, rec.Season}
		byScope[k] = append(byScope[k], rec)
	}

	scopes := scopesOf(processed)
	result.Players = len(scopes)

	p := pool.NewWithResults[scopeOutcome]().WithMaxGoroutines(opts.Workers)
	for _, sc := range scopes {
		recs := byScope[sc]
		p.Go(func() scopeOutcome {
			err := repo.ReplaceMonthlyTrends(ctx, sc.playerID, sc.season, recs)
			return scopeOutcome{scope: sc, records: len(recs), err: err}
		})
	}
	outcomes := p.Wait()
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].scope.less(outcomes[j].scope) })
	for _, o := range outcomes {
		if o.err != nil {
			result.AddErrorf("replace trends player=%d season=%s: %v", o.scope.playerID, o.scope.season, o.err)
			continue
		}
		result.TrendRecords += o.records
	}

	result.Duration = time.Since(start)
	opts.Metrics.TrendRecords(result.TrendRecords)
	opts.Metrics.PipelineRun(result.Duration.Seconds(), len(result.Errors))

	if result.OK() {
		logger.Info("Pipeline run complete", "summary", result.Summary())
	} else {
		logger.Warn("Pipeline run finished with errors", "summary", result.Summary(), "first_error", result.Errors[0])
	}
	return result, nil
}

type scope struct {
	playerID int64
	season   string
}

func (s scope) less(o scope) bool {
	if s.playerID != o.playerID {
		return s.playerID < o.playerID
	}
	return s.season < o.season
}

type scopeOutcome struct {
	scope   scope
	records int
	err     error
}

// scopesOf lists the distinct (player, season) pairs in rows, sorted.
func scopesOf(rows []boxscore.ProcessedGameRow) []scope {
	seen := make(map[scope]struct{})
	var out []scope
	for _, r := range rows {
		k := scope{r.PlayerID, r.Season}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}
