package trends

import (
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/albapepper/scoracle-trends/internal/boxscore"
)

const secondsPerDay = 24 * 60 * 60

// ComputeMonthlyTrend reduces the rows of a single (player, season, month)
// partition. It returns nil without error when fewer than two rows qualify.
//
// Rows are re-sorted by game date and game id on a copy, so the caller's
// slice is left untouched. Rows from more than one partition, a decay factor
// outside (0, 1] or a zero as-of date are contract violations.
func ComputeMonthlyTrend(rows []boxscore.ProcessedGameRow, decay float64, asOf time.Time) (*MonthlyTrendRecord, error) {
	if err := CheckParams(decay, asOf); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	key := KeyOf(rows[0])
	for _, r := range rows[1:] {
		if k := KeyOf(r); k != key {
			return nil, contractViolation(ErrMixedPartition, "got %+v and %+v", key, k)
		}
	}

	sorted := make([]boxscore.ProcessedGameRow, len(rows))
	copy(sorted, rows)
	sortChronologically(sorted)

	games := make([]boxscore.ProcessedGameRow, 0, len(sorted))
	for _, r := range sorted {
		if r.Played() {
			games = append(games, r)
		}
	}
	if len(games) < minQualifyingGames {
		return nil, nil
	}

	rec := &MonthlyTrendRecord{
		PartitionKey: key,
		PlayerName:   games[len(games)-1].PlayerName,
		GamesPlayed:  len(games),
		GamesInMonth: len(sorted),
		DecayFactor:  decay,
		AsOf:         asOf,
	}

	points := counting(games, func(r boxscore.ProcessedGameRow) int { return r.Points })
	rec.AvgMinutes = stat.Mean(collect(games, func(r boxscore.ProcessedGameRow) float64 { return r.MinutesPlayed }), nil)
	rec.AvgPoints = stat.Mean(points, nil)
	rec.AvgRebounds = stat.Mean(counting(games, func(r boxscore.ProcessedGameRow) int { return r.ReboundsTotal }), nil)
	rec.AvgAssists = stat.Mean(counting(games, func(r boxscore.ProcessedGameRow) int { return r.Assists }), nil)
	rec.AvgSteals = stat.Mean(counting(games, func(r boxscore.ProcessedGameRow) int { return r.Steals }), nil)
	rec.AvgBlocks = stat.Mean(counting(games, func(r boxscore.ProcessedGameRow) int { return r.Blocks }), nil)
	rec.AvgTurnovers = stat.Mean(counting(games, func(r boxscore.ProcessedGameRow) int { return r.Turnovers }), nil)

	rec.FieldGoalPct = summedRatio(games,
		func(r boxscore.ProcessedGameRow) int { return r.FieldGoalsMade },
		func(r boxscore.ProcessedGameRow) int { return r.FieldGoalsAttempted })
	rec.ThreePointPct = summedRatio(games,
		func(r boxscore.ProcessedGameRow) int { return r.ThreePointersMade },
		func(r boxscore.ProcessedGameRow) int { return r.ThreePointersAttempted })
	rec.FreeThrowPct = summedRatio(games,
		func(r boxscore.ProcessedGameRow) int { return r.FreeThrowsMade },
		func(r boxscore.ProcessedGameRow) int { return r.FreeThrowsAttempted })

	rec.AvgTrueShootingPct = meanOf(games, trueShooting)
	rec.AvgEffectiveFGPct = meanOf(games, func(r boxscore.ProcessedGameRow) *float64 { return r.EffectiveFGPct })
	rec.AvgUsageRate = meanOf(games, func(r boxscore.ProcessedGameRow) *float64 { return r.UsageRate })
	rec.AvgEfficiencyRating = meanOf(games, efficiency)
	rec.AvgDefensiveImpact = meanOf(games, defensive)
	rec.AvgPointsPer36 = meanOf(games, func(r boxscore.ProcessedGameRow) *float64 { return r.PointsPer36 })
	rec.AvgReboundsPer36 = meanOf(games, func(r boxscore.ProcessedGameRow) *float64 { return r.ReboundsPer36 })
	rec.AvgAssistsPer36 = meanOf(games, func(r boxscore.ProcessedGameRow) *float64 { return r.AssistsPer36 })

	rec.WeightedPoints = recencyWeighted(games, pointsOf, decay, asOf)
	rec.WeightedTrueShootingPct = recencyWeighted(games, trueShooting, decay, asOf)
	rec.WeightedEfficiencyRating = recencyWeighted(games, efficiency, decay, asOf)

	rec.PointsSlope = slope(games, pointsOf)
	rec.TrueShootingSlope = slope(games, trueShooting)
	rec.DefensiveImpactSlope = slope(games, defensive)

	rec.TrendDirection = direction(points)
	rec.ConsistencyScore = consistency(points)

	return rec, nil
}

type metricFunc func(boxscore.ProcessedGameRow) *float64

func pointsOf(r boxscore.ProcessedGameRow) *float64 { return boxscore.Float(float64(r.Points)) }
func trueShooting(r boxscore.ProcessedGameRow) *float64 { return r.TrueShootingPct }
func efficiency(r boxscore.ProcessedGameRow) *float64 { return r.EfficiencyRating }
func defensive(r boxscore.ProcessedGameRow) *float64 { return r.DefensiveImpact }

func collect(rows []boxscore.ProcessedGameRow, f func(boxscore.ProcessedGameRow) float64) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = f(r)
	}
	return out
}

func counting(rows []boxscore.ProcessedGameRow, f func(boxscore.ProcessedGameRow) int) []float64 {
	return collect(rows, func(r boxscore.ProcessedGameRow) float64 { return float64(f(r)) })
}

// meanOf averages the non-nil values of a metric. Nil when every value is nil.
func meanOf(rows []boxscore.ProcessedGameRow, f metricFunc) *float64 {
	var vals []float64
	for _, r := range rows {
		if v := f(r); v != nil {
			vals = append(vals, *v)
		}
	}
	if len(vals) == 0 {
		return nil
	}
	return boxscore.Float(stat.Mean(vals, nil))
}

// summedRatio is sum(made) / sum(attempted) across the partition.
func summedRatio(rows []boxscore.ProcessedGameRow, made, attempted func(boxscore.ProcessedGameRow) int) *float64 {
	var m, a int
	for _, r := range rows {
		m += made(r)
		a += attempted(r)
	}
	if a == 0 {
		return nil
	}
	return boxscore.Float(float64(m) / float64(a))
}

// recencyWeighted weights each game by decay^(days before asOf). Games dated
// after asOf get weight 1. Ages are measured from the most recent game, which
// leaves the ratio unchanged and keeps the weights from underflowing.
func recencyWeighted(rows []boxscore.ProcessedGameRow, f metricFunc, decay float64, asOf time.Time) *float64 {
	var vals []float64
	var ages []int64
	ref := dayNumber(asOf)
	for _, r := range rows {
		v := f(r)
		if v == nil {
			continue
		}
		vals = append(vals, *v)
		ages = append(ages, max(ref-dayNumber(r.GameDate), 0))
	}
	if len(vals) == 0 {
		return nil
	}
	youngest := slices.Min(ages)
	weights := make([]float64, len(ages))
	for i, age := range ages {
		weights[i] = math.Pow(decay, float64(age-youngest))
	}
	return boxscore.Float(stat.Mean(vals, weights))
}

// slope is the least-squares slope of a metric against days since the Unix
// epoch. Nil with fewer than two points or no spread in dates.
func slope(rows []boxscore.ProcessedGameRow, f metricFunc) *float64 {
	var xs, ys []float64
	for _, r := range rows {
		if v := f(r); v != nil {
			xs = append(xs, float64(dayNumber(r.GameDate)))
			ys = append(ys, *v)
		}
	}
	if len(xs) < 2 {
		return nil
	}
	if _, variance := stat.PopMeanVariance(xs, nil); variance == 0 {
		return nil
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	return boxscore.Float(beta)
}

// direction compares the mean of the second half of the month's games with
// the first half. The split is by game position, not calendar time.
func direction(points []float64) boxscore.TrendDirection {
	if len(points) < minDirectionGames {
		return boxscore.TrendStable
	}
	mid := len(points) / 2
	first := stat.Mean(points[:mid], nil)
	second := stat.Mean(points[mid:], nil)
	switch {
	case second > first*improvingRatio:
		return boxscore.TrendImproving
	case second < first*decliningRatio:
		return boxscore.TrendDeclining
	default:
		return boxscore.TrendStable
	}
}

// consistency is 100 minus the coefficient of variation in percent, floored
// at 0. Fewer than two games or a non-positive mean score 100.
func consistency(points []float64) float64 {
	if len(points) < minQualifyingGames {
		return maxConsistency
	}
	mean, variance := stat.PopMeanVariance(points, nil)
	if mean <= 0 {
		return maxConsistency
	}
	cv := math.Sqrt(variance) / mean
	return math.Min(maxConsistency, math.Max(0, maxConsistency-cv*100))
}

// dayNumber is the civil date of t in UTC as days since 1970-01-01.
func dayNumber(t time.Time) int64 {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}
