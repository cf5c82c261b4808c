package store

import (
	"github.com/albapepper/scoracle-trends/internal/boxscore"
	"github.com/albapepper/scoracle-trends/internal/trends"
)

// Argument and scan-destination lists. Their order must match the column
// lists in the db package and the INSERT statements in store.go.

func rawArgs(r boxscore.RawGameRow) []any {
	return []any{
		r.Season, r.GameID, r.GameDate, r.TeamID, r.TeamTricode, r.Matchup,
		r.PlayerID, r.PlayerName, r.Position, r.Comment, r.Minutes,
		r.Points, r.FieldGoalsMade, r.FieldGoalsAttempted,
		r.ThreePointersMade, r.ThreePointersAttempted,
		r.FreeThrowsMade, r.FreeThrowsAttempted,
		r.ReboundsOffensive, r.ReboundsDefensive, r.ReboundsTotal,
		r.Assists, r.Steals, r.Blocks, r.Turnovers, r.FoulsPersonal, r.PlusMinus,
	}
}

func rawDest(r *boxscore.RawGameRow) []any {
	return []any{
		&r.Season, &r.GameID, &r.GameDate, &r.TeamID, &r.TeamTricode, &r.Matchup,
		&r.PlayerID, &r.PlayerName, &r.Position, &r.Comment, &r.Minutes,
		&r.Points, &r.FieldGoalsMade, &r.FieldGoalsAttempted,
		&r.ThreePointersMade, &r.ThreePointersAttempted,
		&r.FreeThrowsMade, &r.FreeThrowsAttempted,
		&r.ReboundsOffensive, &r.ReboundsDefensive, &r.ReboundsTotal,
		&r.Assists, &r.Steals, &r.Blocks, &r.Turnovers, &r.FoulsPersonal, &r.PlusMinus,
	}
}

func processedArgs(p boxscore.ProcessedGameRow) []any {
	warnings := p.ValidationWarnings
	if warnings == nil {
		warnings = []string{}
	}
	return []any{
		p.PlayerID, p.GameID, p.Season, p.GameDate, p.MinutesPlayed, p.IsDNP,
		p.FieldGoalPct, p.ThreePointPct, p.FreeThrowPct,
		p.TrueShootingPct, p.EffectiveFGPct, p.UsageRate,
		p.EfficiencyRating, p.DefensiveImpact,
		p.PointsPer36, p.ReboundsPer36, p.AssistsPer36,
		gradeArg(p.EfficiencyGrade), gradeArg(p.DefensiveGrade), p.Valid, warnings,
	}
}

// processedDest scans the derived columns. Grades land in the string
// pointers and are converted by the caller.
func processedDest(p *boxscore.ProcessedGameRow, effGrade, defGrade **string) []any {
	return []any{
		&p.MinutesPlayed, &p.IsDNP,
		&p.FieldGoalPct, &p.ThreePointPct, &p.FreeThrowPct,
		&p.TrueShootingPct, &p.EffectiveFGPct, &p.UsageRate,
		&p.EfficiencyRating, &p.DefensiveImpact,
		&p.PointsPer36, &p.ReboundsPer36, &p.AssistsPer36,
		effGrade, defGrade, &p.Valid, &p.ValidationWarnings,
	}
}

func trendArgs(t trends.MonthlyTrendRecord) []any {
	return []any{
		t.PlayerID, t.Season, t.Month, t.PlayerName, t.GamesPlayed, t.GamesInMonth,
		t.AvgMinutes, t.AvgPoints, t.AvgRebounds, t.AvgAssists, t.AvgSteals, t.AvgBlocks, t.AvgTurnovers,
		t.FieldGoalPct, t.ThreePointPct, t.FreeThrowPct,
		t.AvgTrueShootingPct, t.AvgEffectiveFGPct, t.AvgUsageRate,
		t.AvgEfficiencyRating, t.AvgDefensiveImpact,
		t.AvgPointsPer36, t.AvgReboundsPer36, t.AvgAssistsPer36,
		t.WeightedPoints, t.WeightedTrueShootingPct, t.WeightedEfficiencyRating,
		t.PointsSlope, t.TrueShootingSlope, t.DefensiveImpactSlope,
		string(t.TrendDirection), t.ConsistencyScore, t.DecayFactor, t.AsOf,
	}
}

func trendDest(t *trends.MonthlyTrendRecord, direction *string) []any {
	return []any{
		&t.PlayerID, &t.Season, &t.Month, &t.PlayerName, &t.GamesPlayed, &t.GamesInMonth,
		&t.AvgMinutes, &t.AvgPoints, &t.AvgRebounds, &t.AvgAssists, &t.AvgSteals, &t.AvgBlocks, &t.AvgTurnovers,
		&t.FieldGoalPct, &t.ThreePointPct, &t.FreeThrowPct,
		&t.AvgTrueShootingPct, &t.AvgEffectiveFGPct, &t.AvgUsageRate,
		&t.AvgEfficiencyRating, &t.AvgDefensiveImpact,
		&t.AvgPointsPer36, &t.AvgReboundsPer36, &t.AvgAssistsPer36,
		&t.WeightedPoints, &t.WeightedTrueShootingPct, &t.WeightedEfficiencyRating,
		&t.PointsSlope, &t.TrueShootingSlope, &t.DefensiveImpactSlope,
		direction, &t.ConsistencyScore, &t.DecayFactor, &t.AsOf,
	}
}

// gradeArg maps a nil grade to SQL NULL.
func gradeArg(g *boxscore.Grade) any {
	if g == nil {
		return nil
	}
	return string(*g)
}

func toGrade(s *string) *boxscore.Grade {
	if s == nil {
		return nil
	}
	g := boxscore.Grade(*s)
	return &g
}
