// Package boxscore defines the per-game data shapes that flow through the
// analytics engine. These structs are the contract between the raw-row
// sources (CSV files, BallDontLie), the metrics calculator, the trend
// aggregator and the Postgres store.
//
// A RawGameRow is owned by whatever loaded it and is never mutated. A
// ProcessedGameRow is derived from exactly one RawGameRow and is always
// recomputed wholesale when the raw data changes.
package boxscore

import (
	"fmt"
	"time"
)

// RawGameRow is one player's stat line for one game, as ingested.
type RawGameRow struct {
	Season      string    `json:"season"` // "2023-24"
	GameID      string    `json:"game_id"`
	GameDate    time.Time `json:"game_date"`
	TeamID      int64     `json:"team_id"`
	TeamTricode string    `json:"team_tricode,omitempty"`
	Matchup     string    `json:"matchup,omitempty"`
	PlayerID    int64     `json:"player_id"`
	PlayerName  string    `json:"player_name"`
	Position    string    `json:"position,omitempty"`
	Comment     string    `json:"comment,omitempty"`

	// Minutes is free-form: empty, a DNP marker, "MM:SS" or a bare integer.
	Minutes string `json:"minutes"`

	Points                 int `json:"points"`
	FieldGoalsMade         int `json:"field_goals_made"`
	FieldGoalsAttempted    int `json:"field_goals_attempted"`
	ThreePointersMade      int `json:"three_pointers_made"`
	ThreePointersAttempted int `json:"three_pointers_attempted"`
	FreeThrowsMade         int `json:"free_throws_made"`
	FreeThrowsAttempted    int `json:"free_throws_attempted"`
	ReboundsOffensive      int `json:"rebounds_offensive"`
	ReboundsDefensive      int `json:"rebounds_defensive"`
	ReboundsTotal          int `json:"rebounds_total"`
	Assists                int `json:"assists"`
	Steals                 int `json:"steals"`
	Blocks                 int `json:"blocks"`
	Turnovers              int `json:"turnovers"`
	FoulsPersonal          int `json:"fouls_personal"`
	PlusMinus              int `json:"plus_minus"`
}

// ProcessedGameRow is a RawGameRow enriched with derived metrics.
// Nil metric pointers mean the metric is undefined for the game (zero
// denominator), never zero.
type ProcessedGameRow struct {
	RawGameRow

	MinutesPlayed float64 `json:"minutes_played"`
	IsDNP         bool    `json:"is_dnp"`

	FieldGoalPct  *float64 `json:"field_goal_pct"`
	ThreePointPct *float64 `json:"three_point_pct"`
	FreeThrowPct  *float64 `json:"free_throw_pct"`

	TrueShootingPct   *float64 `json:"true_shooting_pct"`
	EffectiveFGPct    *float64 `json:"effective_fg_pct"`
	UsageRate         *float64 `json:"usage_rate"`
	EfficiencyRating  *float64 `json:"efficiency_rating"`
	DefensiveImpact   *float64 `json:"defensive_impact"`
	PointsPer36       *float64 `json:"points_per_36"`
	ReboundsPer36     *float64 `json:"rebounds_per_36"`
	AssistsPer36      *float64 `json:"assists_per_36"`
	EfficiencyGrade   *Grade   `json:"efficiency_grade"`
	DefensiveGrade    *Grade   `json:"defensive_grade"`

	Valid              bool     `json:"valid"`
	ValidationWarnings []string `json:"validation_warnings,omitempty"`
}

// Played reports whether the row counts toward monthly aggregates.
func (p ProcessedGameRow) Played() bool {
	return p.MinutesPlayed > 0 && !p.IsDNP
}

// Grade is a letter grade assigned from a threshold table.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeCPlus Grade = "C+"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
)

// TrendDirection classifies month-over-month scoring movement.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// MonthKey formats a game date as the calendar-month key "YYYY-MM".
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// Float returns a pointer to v. Used for nullable metric fields.
func Float(v float64) *float64 {
	return &v
}
