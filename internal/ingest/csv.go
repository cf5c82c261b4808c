// Package ingest reads raw box-score rows from CSV exports.
//
// The expected layout is the nba_api player box-score export:
//
//	season_year,game_date,gameId,matchup,teamId,...,personId,personName,...,points,plusMinusPoints
//
// Columns are located by header name so extra columns (teamCity, jerseyNum,
// the *Percentage columns) are ignored. Data problems never abort a file:
// bad numeric cells become 0 and are reported, rows without identifiers are
// skipped and reported.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/albapepper/scoracle-trends/internal/boxscore"
)

// Header names in the CSV export.
const (
	colSeason      = "season_year"
	colGameDate    = "game_date"
	colGameID      = "gameId"
	colMatchup     = "matchup"
	colTeamID      = "teamId"
	colTeamTricode = "teamTricode"
	colPlayerID    = "personId"
	colPlayerName  = "personName"
	colPosition    = "position"
	colComment     = "comment"
	colMinutes     = "minutes"
)

var requiredColumns = []string{colSeason, colGameDate, colGameID, colPlayerID}

// statColumns maps a header name to the counting stat it fills.
var statColumns = []struct {
	name string
	dst  func(*boxscore.RawGameRow) *int
}{
	{"points", func(r *boxscore.RawGameRow) *int { return &r.Points }},
	{"fieldGoalsMade", func(r *boxscore.RawGameRow) *int { return &r.FieldGoalsMade }},
	{"fieldGoalsAttempted", func(r *boxscore.RawGameRow) *int { return &r.FieldGoalsAttempted }},
	{"threePointersMade", func(r *boxscore.RawGameRow) *int { return &r.ThreePointersMade }},
	{"threePointersAttempted", func(r *boxscore.RawGameRow) *int { return &r.ThreePointersAttempted }},
	{"freeThrowsMade", func(r *boxscore.RawGameRow) *int { return &r.FreeThrowsMade }},
	{"freeThrowsAttempted", func(r *boxscore.RawGameRow) *int { return &r.FreeThrowsAttempted }},
	{"reboundsOffensive", func(r *boxscore.RawGameRow) *int { return &r.ReboundsOffensive }},
	{"reboundsDefensive", func(r *boxscore.RawGameRow) *int { return &r.ReboundsDefensive }},
	{"reboundsTotal", func(r *boxscore.RawGameRow) *int { return &r.ReboundsTotal }},
	{"assists", func(r *boxscore.RawGameRow) *int { return &r.Assists }},
	{"steals", func(r *boxscore.RawGameRow) *int { return &r.Steals }},
	{"blocks", func(r *boxscore.RawGameRow) *int { return &r.Blocks }},
	{"turnovers", func(r *boxscore.RawGameRow) *int { return &r.Turnovers }},
	{"foulsPersonal", func(r *boxscore.RawGameRow) *int { return &r.FoulsPersonal }},
	{"plusMinusPoints", func(r *boxscore.RawGameRow) *int { return &r.PlusMinus }},
}

// ReadCSV parses a box-score CSV. The returned errors are per-line problems;
// a nil row slice with a single error means the header itself was unusable.
func ReadCSV(r io.Reader) ([]boxscore.RawGameRow, []error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, []error{fmt.Errorf("read header: %w", err)}
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimPrefix(strings.TrimSpace(h), "\uFEFF")] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, []error{fmt.Errorf("missing column %q", c)}
		}
	}

	var (
		rows []boxscore.RawGameRow
		errs []error
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				errs = append(errs, fmt.Errorf("read csv: %w", err))
				break
			}
			// ParseError already carries the line number.
			errs = append(errs, err)
			continue
		}
		line, _ := reader.FieldPos(0)

		row, rowErrs, ok := parseRecord(record, cols)
		for _, e := range rowErrs {
			errs = append(errs, fmt.Errorf("line %d: %w", line, e))
		}
		if ok {
			rows = append(rows, row)
		}
	}
	return rows, errs
}

// parseRecord converts one CSV record. ok is false when the row lacks an
// identifier needed to place it in a partition.
func parseRecord(record []string, cols map[string]int) (boxscore.RawGameRow, []error, bool) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var errs []error
	row := boxscore.RawGameRow{
		Season:      cell(colSeason),
		GameID:      cell(colGameID),
		Matchup:     cell(colMatchup),
		TeamTricode: cell(colTeamTricode),
		PlayerName:  cell(colPlayerName),
		Position:    cell(colPosition),
		Comment:     cell(colComment),
		Minutes:     cell(colMinutes),
	}

	if row.Season == "" || row.GameID == "" {
		return row, []error{errors.New("missing season or game id")}, false
	}
	playerID, err := strconv.ParseInt(cell(colPlayerID), 10, 64)
	if err != nil || playerID <= 0 {
		return row, []error{fmt.Errorf("invalid %s %q", colPlayerID, cell(colPlayerID))}, false
	}
	row.PlayerID = playerID

	date, err := ParseGameDate(cell(colGameDate))
	if err != nil {
		return row, []error{err}, false
	}
	row.GameDate = date

	if v := cell(colTeamID); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			row.TeamID = id
		} else {
			errs = append(errs, fmt.Errorf("invalid %s %q", colTeamID, v))
		}
	}

	// DNP rows often leave minutes blank and carry the reason in the comment.
	if row.Minutes == "" && strings.Contains(strings.ToUpper(row.Comment), "DNP") {
		row.Minutes = row.Comment
	}

	for _, sc := range statColumns {
		v := cell(sc.name)
		if v == "" {
			continue
		}
		n, err := parseCount(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q", sc.name, v))
			continue
		}
		*sc.dst(&row) = n
	}
	return row, errs, true
}

// parseCount accepts integers and the "12.0" floats some exports write.
// Non-finite floats and values outside the int32 range are rejected.
func parseCount(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("count %q out of range", v)
	}
	return int(f), nil
}

// ParseGameDate accepts "2024-01-15" and ISO timestamps such as
// "2024-01-15T00:00:00". The result is midnight UTC.
func ParseGameDate(s string) (time.Time, error) {
	if i := strings.IndexAny(s, "T "); i > 0 {
		s = s[:i]
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q", colGameDate, s)
	}
	return t, nil
}
