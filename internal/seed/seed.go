package seed

import (
	"context"
	"log/slog"

	"github.com/albapepper/scoracle-trends/internal/boxscore"
	"github.com/albapepper/scoracle-trends/internal/ingest"
	"github.com/albapepper/scoracle-trends/internal/provider"
)

// flushSize is how many streamed rows are buffered before a write.
const flushSize = 500

// RawWriter persists raw rows. *store.Store satisfies it.
type RawWriter interface {
	UpsertRawRows(ctx context.Context, rows []boxscore.RawGameRow) (int, error)
}

// SeedFiles writes the rows parsed from CSV files. Per-line parse errors are
// carried into the result; a failed write is recorded and the next file is
// still attempted.
func SeedFiles(ctx context.Context, w RawWriter, files []ingest.FileResult, logger *slog.Logger) SeedResult {
	if logger == nil {
		logger = slog.Default()
	}
	var result SeedResult

	for _, f := range files {
		result.Files++
		result.RowsRead += len(f.Rows)
		for _, e := range f.Errors {
			result.AddErrorf("%s: %v", f.Path, e)
		}
		if len(f.Rows) == 0 {
			logger.Warn("No usable rows in file", "path", f.Path, "errors", len(f.Errors))
			continue
		}

		n, err := w.UpsertRawRows(ctx, f.Rows)
		result.RowsUpserted += n
		if err != nil {
			result.AddErrorf("upsert %s: %v", f.Path, err)
			continue
		}
		logger.Info("File loaded", "path", f.Path, "rows", n, "errors", len(f.Errors))
	}

	logger.Info("CSV seed complete", "summary", result.Summary())
	return result
}

// SeedBDL streams one season of box scores from src into w. A nil or empty
// playerIDs loads every player.
func SeedBDL(ctx context.Context, w RawWriter, src provider.GameStatsSource, seasonYear int, playerIDs []int64, logger *slog.Logger) SeedResult {
	if logger == nil {
		logger = slog.Default()
	}
	var result SeedResult
	logger.Info("Seeding box scores from BallDontLie...", "season", provider.SeasonLabel(seasonYear), "players", len(playerIDs))

	buf := make([]boxscore.RawGameRow, 0, flushSize)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		n, err := w.UpsertRawRows(ctx, buf)
		result.RowsUpserted += n
		if err != nil {
			result.AddErrorf("upsert %d rows: %v", len(buf), err)
		}
		buf = buf[:0]
		logger.Info("Box score progress", "read", result.RowsRead, "upserted", result.RowsUpserted)
	}

	err := src.GetGameStats(ctx, seasonYear, playerIDs, func(row boxscore.RawGameRow) error {
		result.RowsRead++
		buf = append(buf, row)
		if len(buf) >= flushSize {
			flush()
		}
		return nil
	})
	if err != nil {
		result.AddErrorf("fetch box scores: %v", err)
	}
	// Rows received before a failure are still written.
	flush()

	logger.Info("BallDontLie seed complete", "summary", result.Summary())
	return result
}
