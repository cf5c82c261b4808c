package store

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/albapepper/scoracle-trends/internal/boxscore"
	"github.com/albapepper/scoracle-trends/internal/db"
	"github.com/albapepper/scoracle-trends/internal/trends"
)

func columnCount(list string) int {
	return len(strings.Split(list, ","))
}

func TestColumnListsMatchArguments(t *testing.T) {
	t.Parallel()

	raw := boxscore.RawGameRow{}
	assert.Len(t, rawArgs(raw), columnCount(db.RawColumns))
	assert.Len(t, rawDest(&raw), columnCount(db.RawColumns))

	p := boxscore.ProcessedGameRow{}
	var eg, dg *string
	assert.Len(t, processedDest(&p, &eg, &dg), columnCount(db.ProcessedColumns))
	assert.Equal(t, strings.Count(upsertProcessedSQL, "$"), len(processedArgs(p)))
	assert.Equal(t, strings.Count(upsertRawSQL, "$"), len(rawArgs(raw)))

	rec := trends.MonthlyTrendRecord{}
	var dir string
	assert.Len(t, trendArgs(rec), columnCount(db.TrendColumns))
	assert.Len(t, trendDest(&rec, &dir), columnCount(db.TrendColumns))
	assert.Equal(t, strings.Count(insertTrendSQL, "$"), len(trendArgs(rec)))
}

func TestProcessedArgs(t *testing.T) {
	t.Parallel()

	grade := boxscore.GradeBPlus
	p := boxscore.ProcessedGameRow{
		RawGameRow: boxscore.RawGameRow{
			PlayerID: 2544,
			GameID:   "0022300567",
			Season:   "2023-24",
			GameDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		EfficiencyGrade: &grade,
	}

	args := processedArgs(p)
	assert.Equal(t, int64(2544), args[0])
	assert.Equal(t, "B+", args[17])
	assert.Nil(t, args[18], "missing grade is NULL")
	assert.Equal(t, []string{}, args[20], "warnings are never NULL")
}

func TestGradeRoundTrip(t *testing.T) {
	t.Parallel()

	assert.Nil(t, toGrade(nil))
	assert.Nil(t, gradeArg(nil))

	s := "A+"
	g := toGrade(&s)
	if assert.NotNil(t, g) {
		assert.Equal(t, boxscore.GradeAPlus, *g)
		assert.Equal(t, "A+", gradeArg(g))
	}
}
