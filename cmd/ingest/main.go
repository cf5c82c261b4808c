// Command ingest is the Scoracle trends ingestion CLI.
//
// Usage:
//
//	scoracle-ingest migrate up
//	scoracle-ingest load csv --path ./data/boxscores --workers 4 --process
//	scoracle-ingest load bdl --season-year 2024 --player-id 237 --player-id 115
//	scoracle-ingest process --season 2023-24 --decay 0.95 --as-of 2024-04-15
//	scoracle-ingest catchup --limit 500
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/scoracle-trends/internal/boxscore"
	"github.com/albapepper/scoracle-trends/internal/config"
	"github.com/albapepper/scoracle-trends/internal/db"
	"github.com/albapepper/scoracle-trends/internal/ingest"
	"github.com/albapepper/scoracle-trends/internal/maintenance"
	"github.com/albapepper/scoracle-trends/internal/pipeline"
	"github.com/albapepper/scoracle-trends/internal/provider"
	"github.com/albapepper/scoracle-trends/internal/provider/bdl"
	"github.com/albapepper/scoracle-trends/internal/seed"
	"github.com/albapepper/scoracle-trends/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "scoracle-ingest",
		Short:        "Scoracle box-score ingestion and trend computation CLI",
		SilenceUsage: true,
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(loadCmd())
	root.AddCommand(processCmd())
	root.AddCommand(catchUpCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|version]",
		Short:     "Apply, roll back or inspect the embedded schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			// No pool here: prepared statements need the schema to exist.
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			status, err := db.Migrate(cfg.DatabaseURL, args[0])
			if err != nil {
				return err
			}
			logger.Info("Migration finished",
				"direction", args[0], "version", status.Version,
				"dirty", status.Dirty, "changed", status.Changed)
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// load command
// --------------------------------------------------------------------------

func loadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load raw box scores into players_raw",
	}
	cmd.AddCommand(loadCSVCmd())
	cmd.AddCommand(loadBDLCmd())
	return cmd
}

func loadCSVCmd() *cobra.Command {
	var (
		path    string
		workers int
		process bool
	)
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Load a box-score CSV file or a directory of them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				return fmt.Errorf("--path is required")
			}
			return runWithStore(func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				if workers <= 0 {
					workers = cfg.PipelineWorkers
				}
				start := time.Now()
				files, err := ingest.LoadPath(ctx, path, workers)
				if err != nil {
					return err
				}
				result := seed.SeedFiles(ctx, st, files, logger)
				logger.Info("CSV load finished", "duration", time.Since(start).Round(time.Second), "summary", result.Summary())
				logErrors("load error", result.Errors)

				if process {
					return processSeasons(ctx, cfg, st, seasonsOf(ingest.Rows(files)), workers)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "CSV file or directory of *.csv files")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent file parsers (default PIPELINE_WORKERS)")
	cmd.Flags().BoolVar(&process, "process", false, "Recompute processed rows and trends for the loaded seasons")
	return cmd
}

func loadBDLCmd() *cobra.Command {
	var (
		seasonYear int
		playerIDs  []int64
		process    bool
	)
	cmd := &cobra.Command{
		Use:   "bdl",
		Short: "Load per-game box scores from BallDontLie",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				if cfg.BDLAPIKey == "" {
					return fmt.Errorf("BALLDONTLIE_API_KEY is required")
				}
				handler := bdl.NewStatsHandler(cfg.BDLAPIKey, logger)
				start := time.Now()
				result := seed.SeedBDL(ctx, st, handler, seasonYear, playerIDs, logger)
				logger.Info("BallDontLie load finished", "duration", time.Since(start).Round(time.Second), "summary", result.Summary())
				logErrors("load error", result.Errors)

				if process {
					season := provider.SeasonLabel(seasonYear)
					if len(playerIDs) == 0 {
						return processSeasons(ctx, cfg, st, []string{season}, cfg.PipelineWorkers)
					}
					for _, id := range playerIDs {
						if err := runPipeline(ctx, cfg, st, season, id, cfg.PipelineWorkers); err != nil {
							return err
						}
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&seasonYear, "season-year", config.SeasonRegistry["NBA"].StartYear, "Season start year (2024 = 2024-25)")
	cmd.Flags().Int64SliceVar(&playerIDs, "player-id", nil, "BallDontLie player ID (repeatable); empty = all players")
	cmd.Flags().BoolVar(&process, "process", false, "Recompute processed rows and trends afterwards")
	return cmd
}

// --------------------------------------------------------------------------
// process command
// --------------------------------------------------------------------------

func processCmd() *cobra.Command {
	var (
		season   string
		playerID int64
		workers  int
		decay    float64
		asOf     string
	)
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Recompute processed rows and monthly trends from raw box scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				if cmd.Flags().Changed("decay") {
					cfg.TrendDecay = decay
				}
				if asOf != "" {
					t, err := time.Parse(time.DateOnly, asOf)
					if err != nil {
						return fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
					}
					cfg.TrendAsOf = t
				}
				if workers <= 0 {
					workers = cfg.PipelineWorkers
				}
				return runPipeline(ctx, cfg, st, season, playerID, workers)
			})
		},
	}
	cmd.Flags().StringVar(&season, "season", config.CurrentSeason(), "Season label, e.g. 2023-24")
	cmd.Flags().Int64Var(&playerID, "player-id", 0, "Limit to one player; 0 = every player")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent workers (default PIPELINE_WORKERS)")
	cmd.Flags().Float64Var(&decay, "decay", 0, "Recency decay factor in (0, 1] (default TREND_DECAY_FACTOR)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Reference date YYYY-MM-DD (default TREND_AS_OF or today)")
	return cmd
}

// --------------------------------------------------------------------------
// catchup command
// --------------------------------------------------------------------------

func catchUpCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "catchup",
		Short: "Recompute every scope whose trends lag its raw rows, then refresh views",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				recompute := func(ctx context.Context, sc store.Scope) error {
					return runPipeline(ctx, cfg, st, sc.Season, sc.PlayerID, cfg.PipelineWorkers)
				}
				ran, failed, err := maintenance.CatchUp(ctx, st, recompute, limit, logger)
				if err != nil {
					return err
				}
				if ran > 0 {
					if err := maintenance.RefreshMaterializedViews(ctx, st.Pool(), logger); err != nil {
						return err
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d scopes failed to recompute", failed)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", maintenance.DefaultConfig().CatchUpBatch, "Maximum scopes to recompute")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// runWithStore handles config loading, DB connection, and context cancellation.
func runWithStore(fn func(ctx context.Context, cfg *config.Config, st *store.Store) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, store.New(pool.Pool))
}

func runPipeline(ctx context.Context, cfg *config.Config, st *store.Store, season string, playerID int64, workers int) error {
	result, err := pipeline.Run(ctx, st, pipeline.Options{
		Season:   season,
		PlayerID: playerID,
		Decay:    cfg.TrendDecay,
		AsOf:     cfg.TrendAsOf,
		Workers:  workers,
	}, logger)
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", season, err)
	}
	logErrors("pipeline error", result.Errors)
	return nil
}

func processSeasons(ctx context.Context, cfg *config.Config, st *store.Store, seasons []string, workers int) error {
	for _, s := range seasons {
		if err := runPipeline(ctx, cfg, st, s, 0, workers); err != nil {
			return err
		}
	}
	if len(seasons) > 0 {
		return maintenance.RefreshMaterializedViews(ctx, st.Pool(), logger)
	}
	return nil
}

func seasonsOf(rows []boxscore.RawGameRow) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		if !seen[r.Season] {
			seen[r.Season] = true
			out = append(out, r.Season)
		}
	}
	sort.Strings(out)
	return out
}

func logErrors(msg string, errs []string) {
	for _, e := range errs {
		logger.Error(msg, "error", e)
	}
}
