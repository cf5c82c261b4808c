// Package trends reduces a player's processed games for one calendar month
// into a MonthlyTrendRecord: simple averages, summed-ratio shooting
// percentages, recency-weighted averages, regression slopes, a half-split
// trend direction and a consistency score.
//
// The aggregator is pure and deterministic. The reference "as-of" date is an
// explicit argument so re-running over identical rows reproduces identical
// records.
package trends

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/albapepper/scoracle-trends/internal/boxscore"
)

// DefaultDecay is the recency weighting base applied per day of age.
const DefaultDecay = 0.95

const (
	minQualifyingGames = 2
	minDirectionGames  = 4
	improvingRatio     = 1.05
	decliningRatio     = 0.95
	maxConsistency     = 100.0
)

var (
	ErrMixedPartition = errors.New("rows span more than one player, season or month")
	ErrInvalidDecay   = errors.New("decay factor must be in (0, 1]")
	ErrMissingAsOf    = errors.New("as-of date is required")
)

// PartitionKey identifies one monthly aggregate.
type PartitionKey struct {
	PlayerID int64  `json:"player_id"`
	Season   string `json:"season"`
	Month    string `json:"month"` // "2024-01"
}

// KeyOf returns the partition a processed row belongs to.
func KeyOf(r boxscore.ProcessedGameRow) PartitionKey {
	return PartitionKey{PlayerID: r.PlayerID, Season: r.Season, Month: boxscore.MonthKey(r.GameDate)}
}

// Less orders keys by player, season then month.
func (k PartitionKey) Less(o PartitionKey) bool {
	if k.PlayerID != o.PlayerID {
		return k.PlayerID < o.PlayerID
	}
	if k.Season != o.Season {
		return k.Season < o.Season
	}
	return k.Month < o.Month
}

// MonthlyTrendRecord is the monthly aggregate for one PartitionKey.
type MonthlyTrendRecord struct {
	PartitionKey
	PlayerName string `json:"player_name"`

	// GamesPlayed counts qualifying games (minutes > 0, not DNP).
	// GamesInMonth counts every row in the partition.
	GamesPlayed  int `json:"games_played"`
	GamesInMonth int `json:"games_in_month"`

	AvgMinutes   float64 `json:"avg_minutes"`
	AvgPoints    float64 `json:"avg_points"`
	AvgRebounds  float64 `json:"avg_rebounds"`
	AvgAssists   float64 `json:"avg_assists"`
	AvgSteals    float64 `json:"avg_steals"`
	AvgBlocks    float64 `json:"avg_blocks"`
	AvgTurnovers float64 `json:"avg_turnovers"`

	FieldGoalPct  *float64 `json:"field_goal_pct"`
	ThreePointPct *float64 `json:"three_point_pct"`
	FreeThrowPct  *float64 `json:"free_throw_pct"`

	AvgTrueShootingPct  *float64 `json:"avg_true_shooting_pct"`
	AvgEffectiveFGPct   *float64 `json:"avg_effective_fg_pct"`
	AvgUsageRate        *float64 `json:"avg_usage_rate"`
	AvgEfficiencyRating *float64 `json:"avg_efficiency_rating"`
	AvgDefensiveImpact  *float64 `json:"avg_defensive_impact"`
	AvgPointsPer36      *float64 `json:"avg_points_per_36"`
	AvgReboundsPer36    *float64 `json:"avg_rebounds_per_36"`
	AvgAssistsPer36     *float64 `json:"avg_assists_per_36"`

	WeightedPoints           *float64 `json:"weighted_points"`
	WeightedTrueShootingPct  *float64 `json:"weighted_true_shooting_pct"`
	WeightedEfficiencyRating *float64 `json:"weighted_efficiency_rating"`

	PointsSlope          *float64 `json:"points_slope"`
	TrueShootingSlope    *float64 `json:"true_shooting_slope"`
	DefensiveImpactSlope *float64 `json:"defensive_impact_slope"`

	TrendDirection   boxscore.TrendDirection `json:"trend_direction"`
	ConsistencyScore float64                 `json:"consistency_score"`
	DecayFactor      float64                 `json:"decay_factor"`
	AsOf             time.Time               `json:"as_of"`
}

// contractViolation marks err as a caller programming error.
func contractViolation(sentinel error, format string, args ...interface{}) error {
	return errors.WithAssertionFailure(errors.Wrapf(sentinel, format, args...))
}

// CheckParams rejects decay factors outside (0, 1] and a missing as-of date.
func CheckParams(decay float64, asOf time.Time) error {
	if !(decay > 0 && decay <= 1) {
		return contractViolation(ErrInvalidDecay, "decay=%v", decay)
	}
	if asOf.IsZero() {
		return contractViolation(ErrMissingAsOf, "as_of is the zero time")
	}
	return nil
}
