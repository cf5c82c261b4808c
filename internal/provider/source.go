// Package provider adapts external box-score APIs into boxscore.RawGameRow
// values. Handlers stream rows through a callback so a full season never has
// to sit in memory; the loader decides how to batch them into Postgres.
package provider

import (
	"context"
	"fmt"

	"github.com/albapepper/scoracle-trends/internal/boxscore"
)

// GameStatsSource streams per-game player stat lines for one season.
type GameStatsSource interface {
	GetGameStats(ctx context.Context, seasonYear int, playerIDs []int64, fn func(boxscore.RawGameRow) error) error
}

// SeasonLabel turns a season's starting year into the "2023-24" label used
// throughout the store.
func SeasonLabel(startYear int) string {
	return fmt.Sprintf("%d-%02d", startYear, (startYear+1)%100)
}
