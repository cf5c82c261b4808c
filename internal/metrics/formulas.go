package metrics

import (
	"math"

	"github.com/albapepper/scoracle-trends/internal/boxscore"
)

const (
	freeThrowWeight = 0.44
	per36           = 36.0
	gameMinutes     = 48.0
	lineupSize      = 5.0
	efficiencyScale = 30.0
	defensiveScale  = 10.0
	defensiveMax    = 100.0
)

// TrueShooting returns points / (2 * (FGA + 0.44*FTA)).
func TrueShooting(r boxscore.RawGameRow) *float64 {
	attempts := float64(r.FieldGoalsAttempted) + freeThrowWeight*float64(r.FreeThrowsAttempted)
	if attempts == 0 {
		return nil
	}
	return boxscore.Float(float64(r.Points) / (2 * attempts))
}

// EffectiveFieldGoal returns (FGM + 0.5*3PM) / FGA.
func EffectiveFieldGoal(r boxscore.RawGameRow) *float64 {
	if r.FieldGoalsAttempted == 0 {
		return nil
	}
	made := float64(r.FieldGoalsMade) + 0.5*float64(r.ThreePointersMade)
	return boxscore.Float(made / float64(r.FieldGoalsAttempted))
}

// UsageRate estimates the share of team possessions used on court, capped at 1.
func UsageRate(r boxscore.RawGameRow, minutes float64) *float64 {
	if minutes <= 0 {
		return nil
	}
	possessions := float64(r.FieldGoalsAttempted) +
		freeThrowWeight*float64(r.FreeThrowsAttempted) +
		float64(r.Turnovers)
	return boxscore.Float(math.Min(1.0, possessions*gameMinutes/(minutes*lineupSize)))
}

// EfficiencyRating is a simplified per-minute productivity composite scaled
// by 30.
func EfficiencyRating(r boxscore.RawGameRow, minutes float64) *float64 {
	if minutes <= 0 {
		return nil
	}
	positive := float64(r.FieldGoalsMade) +
		0.5*float64(r.ThreePointersMade) +
		float64(r.FreeThrowsMade) +
		float64(r.Steals) +
		0.5*float64(r.Assists) +
		0.5*float64(r.Blocks) +
		float64(r.ReboundsOffensive) +
		float64(r.ReboundsDefensive)
	negative := 0.5*float64(r.FoulsPersonal) +
		float64(r.Turnovers) +
		float64(r.FieldGoalsAttempted-r.FieldGoalsMade) +
		0.5*float64(r.FreeThrowsAttempted-r.FreeThrowsMade)
	return boxscore.Float((positive - negative) / minutes * efficiencyScale)
}

// DefensiveImpact combines steals, blocks, defensive rebounds and fouls per
// 36 minutes into a 0-100 score.
func DefensiveImpact(r boxscore.RawGameRow, minutes float64) *float64 {
	if minutes <= 0 {
		return nil
	}
	raw := rate36(r.Steals, minutes)*2.0 +
		rate36(r.Blocks, minutes)*1.5 +
		rate36(r.ReboundsDefensive, minutes)*1.0 -
		rate36(r.FoulsPersonal, minutes)*0.5
	return boxscore.Float(clamp(raw*defensiveScale, 0, defensiveMax))
}

// Per36 scales a counting stat to 36 minutes.
func Per36(stat int, minutes float64) *float64 {
	if minutes <= 0 {
		return nil
	}
	return boxscore.Float(float64(stat) * per36 / minutes)
}

// ShootingPct returns made/attempted, or nil with no attempts.
func ShootingPct(made, attempted int) *float64 {
	if attempted == 0 {
		return nil
	}
	return boxscore.Float(float64(made) / float64(attempted))
}

// rate36 contributes zero when minutes are not positive.
func rate36(stat int, minutes float64) float64 {
	if minutes <= 0 {
		return 0
	}
	return float64(stat) * per36 / minutes
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
