// Package metrics turns raw box-score rows into processed rows carrying
// advanced metrics, letter grades and a validation flag.
//
// Every function here is pure. Malformed input degrades to safe defaults:
// unparseable minutes become 0, zero denominators produce nil metrics, and
// invariant violations are recorded on the row instead of rejecting it.
package metrics

import (
	"github.com/sourcegraph/conc/iter"

	"github.com/albapepper/scoracle-trends/internal/boxscore"
)

// ComputeProcessedRow derives a ProcessedGameRow from a single raw row.
func ComputeProcessedRow(raw boxscore.RawGameRow) boxscore.ProcessedGameRow {
	minutes, dnp := ParseMinutes(raw.Minutes)

	p := boxscore.ProcessedGameRow{
		RawGameRow:    raw,
		MinutesPlayed: minutes,
		IsDNP:         dnp,

		FieldGoalPct:  ShootingPct(raw.FieldGoalsMade, raw.FieldGoalsAttempted),
		ThreePointPct: ShootingPct(raw.ThreePointersMade, raw.ThreePointersAttempted),
		FreeThrowPct:  ShootingPct(raw.FreeThrowsMade, raw.FreeThrowsAttempted),

		TrueShootingPct:  TrueShooting(raw),
		EffectiveFGPct:   EffectiveFieldGoal(raw),
		UsageRate:        UsageRate(raw, minutes),
		EfficiencyRating: EfficiencyRating(raw, minutes),
		DefensiveImpact:  DefensiveImpact(raw, minutes),
		PointsPer36:      Per36(raw.Points, minutes),
		ReboundsPer36:    Per36(raw.ReboundsTotal, minutes),
		AssistsPer36:     Per36(raw.Assists, minutes),

		Valid:              Validate(raw),
		ValidationWarnings: Warnings(raw, minutes, dnp),
	}
	p.EfficiencyGrade = EfficiencyGrade(p.TrueShootingPct)
	p.DefensiveGrade = DefensiveGrade(p.DefensiveImpact)
	return p
}

// ProcessAll computes processed rows in parallel. Output order matches input
// order. workers < 1 uses one goroutine per CPU.
func ProcessAll(rows []boxscore.RawGameRow, workers int) []boxscore.ProcessedGameRow {
	if len(rows) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 0
	}
	mapper := iter.Mapper[boxscore.RawGameRow, boxscore.ProcessedGameRow]{MaxGoroutines: workers}
	return mapper.Map(rows, func(r *boxscore.RawGameRow) boxscore.ProcessedGameRow {
		return ComputeProcessedRow(*r)
	})
}
