package metrics

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/albapepper/scoracle-trends/internal/boxscore"
)

const (
	maxReasonablePoints  = 100
	maxReasonableMinutes = 60.0
	firstSeasonYear      = 1946
	lastSeasonYear       = 2100
)

// Validate checks the box-score invariants. It returns false when rebounds
// don't add up or any made count exceeds its attempts, including three-point
// makes or attempts exceeding the field-goal totals.
func Validate(r boxscore.RawGameRow) bool {
	switch {
	case r.ReboundsTotal != r.ReboundsOffensive+r.ReboundsDefensive:
		return false
	case r.FieldGoalsMade > r.FieldGoalsAttempted:
		return false
	case r.ThreePointersMade > r.ThreePointersAttempted:
		return false
	case r.FreeThrowsMade > r.FreeThrowsAttempted:
		return false
	case r.ThreePointersMade > r.FieldGoalsMade:
		return false
	case r.ThreePointersAttempted > r.FieldGoalsAttempted:
		return false
	}
	return true
}

// Warnings lists suspicious but permitted values. Warnings never affect the
// validation flag.
func Warnings(r boxscore.RawGameRow, minutes float64, dnp bool) []string {
	var out []string

	if r.Points > maxReasonablePoints {
		out = append(out, fmt.Sprintf("unusually high points: %d", r.Points))
	}
	if minutes > maxReasonableMinutes {
		out = append(out, fmt.Sprintf("unusually high minutes: %.1f", minutes))
	}

	expected := 2*(r.FieldGoalsMade-r.ThreePointersMade) + 3*r.ThreePointersMade + r.FreeThrowsMade
	if r.Points != expected {
		out = append(out, fmt.Sprintf("points mismatch: reported %d, calculated %d", r.Points, expected))
	}

	if dnp && (r.Points > 0 || r.Assists > 0 || r.ReboundsTotal > 0 || r.Steals > 0 || r.Blocks > 0) {
		out = append(out, "player marked DNP but has recorded stats")
	}

	if !ValidSeasonLabel(r.Season) {
		out = append(out, fmt.Sprintf("invalid season label: %q", r.Season))
	}

	return out
}

// ValidSeasonLabel reports whether s looks like "2023-24": a start year and
// the two-digit following year.
func ValidSeasonLabel(s string) bool {
	if len(s) != 7 || s[4] != '-' {
		return false
	}
	start, err := strconv.Atoi(s[:4])
	if err != nil {
		return false
	}
	end, err := strconv.Atoi(strings.TrimSpace(s[5:]))
	if err != nil {
		return false
	}
	if start < firstSeasonYear || start > lastSeasonYear {
		return false
	}
	return end == (start+1)%100
}
