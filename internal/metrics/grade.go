package metrics

import "github.com/albapepper/scoracle-trends/internal/boxscore"

// gradeStep maps a lower bound (inclusive) to a grade.
type gradeStep struct {
	min   float64
	grade boxscore.Grade
}

// Tables are ordered high to low; the first matching step wins.
var (
	efficiencyGrades = []gradeStep{
		{0.65, boxscore.GradeAPlus},
		{0.60, boxscore.GradeA},
		{0.575, boxscore.GradeBPlus},
		{0.53, boxscore.GradeB},
		{0.50, boxscore.GradeCPlus},
		{0.45, boxscore.GradeC},
	}
	defensiveGrades = []gradeStep{
		{80, boxscore.GradeAPlus},
		{70, boxscore.GradeA},
		{60, boxscore.GradeBPlus},
		{50, boxscore.GradeB},
	}
)

// EfficiencyGrade grades a true-shooting percentage. A nil input has no grade.
func EfficiencyGrade(ts *float64) *boxscore.Grade {
	return grade(ts, efficiencyGrades, boxscore.GradeD)
}

// DefensiveGrade grades a defensive impact score. A nil input has no grade.
func DefensiveGrade(score *float64) *boxscore.Grade {
	return grade(score, defensiveGrades, boxscore.GradeC)
}

func grade(v *float64, table []gradeStep, floor boxscore.Grade) *boxscore.Grade {
	if v == nil {
		return nil
	}
	g := floor
	for _, step := range table {
		if *v >= step.min {
			g = step.grade
			break
		}
	}
	return &g
}
