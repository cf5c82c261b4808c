package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-trends/internal/boxscore"
)

func sampleRow() boxscore.RawGameRow {
	return boxscore.RawGameRow{
		Season:                 "2023-24",
		GameID:                 "0022300101",
		GameDate:               time.Date(2023, 11, 3, 0, 0, 0, 0, time.UTC),
		TeamID:                 1610612747,
		PlayerID:               2544,
		PlayerName:             "LeBron James",
		Minutes:                "36:00",
		Points:                 27,
		FieldGoalsMade:         10,
		FieldGoalsAttempted:    20,
		ThreePointersMade:      2,
		ThreePointersAttempted: 6,
		FreeThrowsMade:         5,
		FreeThrowsAttempted:    6,
		ReboundsOffensive:      1,
		ReboundsDefensive:      7,
		ReboundsTotal:          8,
		Assists:                9,
		Steals:                 2,
		Blocks:                 1,
		Turnovers:              3,
		FoulsPersonal:          2,
		PlusMinus:              6,
	}
}

func TestParseMinutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		minutes float64
		dnp     bool
	}{
		{name: "minutes and seconds", in: "32:30", minutes: 32.5},
		{name: "bare integer", in: "28", minutes: 28},
		{name: "padded", in: "  07:06 ", minutes: 7.1},
		{name: "empty", in: "", dnp: true},
		{name: "whitespace", in: "   ", dnp: true},
		{name: "dnp with reason", in: "DNP - Injury", dnp: true},
		{name: "lowercase dnp", in: "dnp coach's decision", dnp: true},
		{name: "zero integer", in: "0", dnp: true},
		{name: "zero clock", in: "0:00", dnp: true},
		{name: "decimal text falls back", in: "31.5"},
		{name: "garbage falls back", in: "n/a"},
		{name: "malformed clock falls back", in: "ab:cd"},
		{name: "negative integer falls back", in: "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			minutes, dnp := ParseMinutes(tt.in)
			assert.InDelta(t, tt.minutes, minutes, 1e-9)
			assert.Equal(t, tt.dnp, dnp)
		})
	}
}

// Unrecognized minutes text parses to zero minutes but leaves the DNP flag
// unset. Aggregation still excludes the row because minutes are zero.
func TestParseMinutes_UnrecognizedTextKeepsDNPFlagUnset(t *testing.T) {
	t.Parallel()

	raw := sampleRow()
	raw.Minutes = "injured reserve"
	p := ComputeProcessedRow(raw)

	assert.Zero(t, p.MinutesPlayed)
	assert.False(t, p.IsDNP)
	assert.False(t, p.Played())
	assert.Nil(t, p.UsageRate)
	assert.Nil(t, p.EfficiencyRating)
	assert.Nil(t, p.DefensiveImpact)
}

func TestComputeProcessedRow(t *testing.T) {
	t.Parallel()

	p := ComputeProcessedRow(sampleRow())

	assert.InDelta(t, 36.0, p.MinutesPlayed, 1e-9)
	assert.False(t, p.IsDNP)
	assert.True(t, p.Valid)

	// 27 / (2 * (20 + 0.44*6))
	require.NotNil(t, p.TrueShootingPct)
	assert.InDelta(t, 27.0/(2*22.64), *p.TrueShootingPct, 1e-9)

	require.NotNil(t, p.EffectiveFGPct)
	assert.InDelta(t, 0.55, *p.EffectiveFGPct, 1e-9)

	// (20 + 2.64 + 3) * 48 / (36 * 5) exceeds the cap
	require.NotNil(t, p.UsageRate)
	assert.Equal(t, 1.0, *p.UsageRate)

	// positive = 10 + 1 + 5 + 2 + 4.5 + 0.5 + 1 + 7 = 31
	// negative = 1 + 3 + 10 + 0.5 = 14.5
	require.NotNil(t, p.EfficiencyRating)
	assert.InDelta(t, (31-14.5)/36*30, *p.EfficiencyRating, 1e-9)

	// per-36 rates equal the raw counts at 36 minutes: (4 + 1.5 + 7 - 1) * 10
	require.NotNil(t, p.DefensiveImpact)
	assert.InDelta(t, 100.0, *p.DefensiveImpact, 1e-9)

	require.NotNil(t, p.PointsPer36)
	assert.InDelta(t, 27.0, *p.PointsPer36, 1e-9)
	require.NotNil(t, p.ReboundsPer36)
	assert.InDelta(t, 8.0, *p.ReboundsPer36, 1e-9)
	require.NotNil(t, p.AssistsPer36)
	assert.InDelta(t, 9.0, *p.AssistsPer36, 1e-9)

	require.NotNil(t, p.FieldGoalPct)
	assert.InDelta(t, 0.5, *p.FieldGoalPct, 1e-9)

	require.NotNil(t, p.EfficiencyGrade)
	assert.Equal(t, boxscore.GradeBPlus, *p.EfficiencyGrade)
	require.NotNil(t, p.DefensiveGrade)
	assert.Equal(t, boxscore.GradeAPlus, *p.DefensiveGrade)

	assert.Equal(t, sampleRow(), p.RawGameRow)
}

func TestComputeProcessedRow_DNP(t *testing.T) {
	t.Parallel()

	raw := sampleRow()
	raw.Minutes = "DNP - Injury"
	raw.Points, raw.FieldGoalsMade, raw.FieldGoalsAttempted = 0, 0, 0
	raw.ThreePointersMade, raw.ThreePointersAttempted = 0, 0
	raw.FreeThrowsMade, raw.FreeThrowsAttempted = 0, 0

	p := ComputeProcessedRow(raw)

	assert.Zero(t, p.MinutesPlayed)
	assert.True(t, p.IsDNP)
	assert.Nil(t, p.TrueShootingPct)
	assert.Nil(t, p.EffectiveFGPct)
	assert.Nil(t, p.UsageRate)
	assert.Nil(t, p.EfficiencyRating)
	assert.Nil(t, p.DefensiveImpact)
	assert.Nil(t, p.PointsPer36)
	assert.Nil(t, p.EfficiencyGrade)
	assert.Nil(t, p.DefensiveGrade)
}

func TestTrueShooting_NilWithoutAttempts(t *testing.T) {
	t.Parallel()

	for _, pts := range []int{0, 2, 40} {
		raw := sampleRow()
		raw.FieldGoalsAttempted = 0
		raw.FreeThrowsAttempted = 0
		raw.Points = pts
		assert.Nil(t, TrueShooting(raw), "points=%d", pts)
	}
}

func TestEffectiveFieldGoal(t *testing.T) {
	t.Parallel()

	raw := sampleRow()
	raw.FieldGoalsAttempted = 10
	raw.FieldGoalsMade = 5
	raw.ThreePointersMade = 2

	got := EffectiveFieldGoal(raw)
	require.NotNil(t, got)
	assert.InDelta(t, 0.60, *got, 1e-9)

	raw.FieldGoalsAttempted = 0
	assert.Nil(t, EffectiveFieldGoal(raw))
}

func TestUsageRate(t *testing.T) {
	t.Parallel()

	raw := boxscore.RawGameRow{FieldGoalsAttempted: 1}
	got := UsageRate(raw, 48)
	require.NotNil(t, got)
	assert.InDelta(t, 0.2, *got, 1e-9)

	raw.FieldGoalsAttempted = 12
	got = UsageRate(raw, 2)
	require.NotNil(t, got)
	assert.Equal(t, 1.0, *got)

	assert.Nil(t, UsageRate(raw, 0))
}

func TestDefensiveImpact_ClampedAtZero(t *testing.T) {
	t.Parallel()

	raw := sampleRow()
	raw.Steals, raw.Blocks, raw.ReboundsDefensive = 0, 0, 0
	raw.FoulsPersonal = 6

	got := DefensiveImpact(raw, 20)
	require.NotNil(t, got)
	assert.Equal(t, 0.0, *got)
	assert.Nil(t, DefensiveImpact(raw, 0))
}

func TestRate36_ZeroMinutesContributesNothing(t *testing.T) {
	t.Parallel()

	assert.Zero(t, rate36(5, 0))
	assert.Zero(t, rate36(5, -1))
	assert.InDelta(t, 10.0, rate36(5, 18), 1e-9)
}

func TestEfficiencyGrade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ts   float64
		want boxscore.Grade
	}{
		{0.70, boxscore.GradeAPlus},
		{0.65, boxscore.GradeAPlus},
		{0.649999, boxscore.GradeA},
		{0.60, boxscore.GradeA},
		{0.58, boxscore.GradeBPlus},
		{0.575, boxscore.GradeBPlus},
		{0.53, boxscore.GradeB},
		{0.50, boxscore.GradeCPlus},
		{0.45, boxscore.GradeC},
		{0.4499, boxscore.GradeD},
		{0, boxscore.GradeD},
	}
	for _, tt := range tests {
		got := EfficiencyGrade(boxscore.Float(tt.ts))
		require.NotNil(t, got, "ts=%v", tt.ts)
		assert.Equal(t, tt.want, *got, "ts=%v", tt.ts)
	}
	assert.Nil(t, EfficiencyGrade(nil))
}

func TestDefensiveGrade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  boxscore.Grade
	}{
		{100, boxscore.GradeAPlus},
		{80, boxscore.GradeAPlus},
		{79.9, boxscore.GradeA},
		{70, boxscore.GradeA},
		{60, boxscore.GradeBPlus},
		{50, boxscore.GradeB},
		{49.99, boxscore.GradeC},
		{0, boxscore.GradeC},
	}
	for _, tt := range tests {
		got := DefensiveGrade(boxscore.Float(tt.score))
		require.NotNil(t, got, "score=%v", tt.score)
		assert.Equal(t, tt.want, *got, "score=%v", tt.score)
	}
	assert.Nil(t, DefensiveGrade(nil))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*boxscore.RawGameRow)
		want   bool
	}{
		{name: "consistent row", mutate: func(*boxscore.RawGameRow) {}, want: true},
		{name: "rebounds mismatch", mutate: func(r *boxscore.RawGameRow) { r.ReboundsTotal = 9 }},
		{name: "fgm over fga", mutate: func(r *boxscore.RawGameRow) { r.FieldGoalsMade = 21 }},
		{name: "3pm over 3pa", mutate: func(r *boxscore.RawGameRow) { r.ThreePointersMade = 7 }},
		{name: "ftm over fta", mutate: func(r *boxscore.RawGameRow) { r.FreeThrowsMade = 7 }},
		{name: "3pm over fgm", mutate: func(r *boxscore.RawGameRow) {
			r.FieldGoalsMade = 1
			r.ThreePointersMade = 2
		}},
		{name: "3pa over fga", mutate: func(r *boxscore.RawGameRow) { r.ThreePointersAttempted = 21 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			raw := sampleRow()
			tt.mutate(&raw)
			assert.Equal(t, tt.want, Validate(raw))

			// invalid rows are still emitted
			p := ComputeProcessedRow(raw)
			assert.Equal(t, tt.want, p.Valid)
			assert.Equal(t, raw.PlayerID, p.PlayerID)
		})
	}
}

func TestWarnings(t *testing.T) {
	t.Parallel()

	raw := sampleRow()
	assert.Empty(t, Warnings(raw, 36, false))

	raw.Points = 30
	raw.Season = "2023-25"
	got := Warnings(raw, 65, false)
	assert.Len(t, got, 3)
	assert.Contains(t, got[0], "unusually high minutes")
	assert.Contains(t, got[1], "points mismatch")
	assert.Contains(t, got[2], "invalid season label")

	// warnings never flip the validation flag
	p := ComputeProcessedRow(raw)
	assert.True(t, p.Valid)
	assert.NotEmpty(t, p.ValidationWarnings)
}

func TestValidSeasonLabel(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidSeasonLabel("2023-24"))
	assert.True(t, ValidSeasonLabel("1999-00"))
	assert.False(t, ValidSeasonLabel("2023-25"))
	assert.False(t, ValidSeasonLabel("2023"))
	assert.False(t, ValidSeasonLabel("1900-01"))
	assert.False(t, ValidSeasonLabel("20x3-24"))
}

func TestProcessAll_PreservesOrder(t *testing.T) {
	t.Parallel()

	rows := make([]boxscore.RawGameRow, 50)
	for i := range rows {
		rows[i] = sampleRow()
		rows[i].PlayerID = int64(i)
		rows[i].Points = i
	}

	for _, workers := range []int{-1, 0, 1, 8} {
		got := ProcessAll(rows, workers)
		require.Len(t, got, len(rows))
		for i, p := range got {
			assert.Equal(t, int64(i), p.PlayerID)
			assert.Equal(t, ComputeProcessedRow(rows[i]), p)
		}
	}
	assert.Nil(t, ProcessAll(nil, 4))
}
