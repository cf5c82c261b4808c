package bdl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/albapepper/scoracle-trends/internal/boxscore"
	"github.com/albapepper/scoracle-trends/internal/ingest"
	"github.com/albapepper/scoracle-trends/internal/provider"
)

// StatsHandler fetches per-game player stat lines from /stats.
type StatsHandler struct {
	client *Client
	logger *slog.Logger
}

var _ provider.GameStatsSource = (*StatsHandler)(nil)

// NewStatsHandler creates a handler against the production API.
func NewStatsHandler(apiKey string, logger *slog.Logger) *StatsHandler {
	return NewStatsHandlerWithClient(NewClient(DefaultBaseURL, apiKey, 600, logger), logger)
}

// NewStatsHandlerWithClient wraps an existing client.
func NewStatsHandlerWithClient(client *Client, logger *slog.Logger) *StatsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsHandler{client: client, logger: logger}
}

// --------------------------------------------------------------------------
// Game stats (cursor-paginated)
// --------------------------------------------------------------------------

type bdlTeamRaw struct {
	ID           int64  `json:"id"`
	Abbreviation string `json:"abbreviation"`
}

type bdlPlayerRaw struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Position  string `json:"position"`
}

type bdlGameRaw struct {
	ID     int64  `json:"id"`
	Date   string `json:"date"`
	Season int    `json:"season"`
}

// bdlStatRaw is one row of /stats. Counting stats are untyped because
// the API sends null for players who did not take the floor.
type bdlStatRaw struct {
	ID        int64        `json:"id"`
	Min       interface{}  `json:"min"`
	FGM       interface{}  `json:"fgm"`
	FGA       interface{}  `json:"fga"`
	FG3M      interface{}  `json:"fg3m"`
	FG3A      interface{}  `json:"fg3a"`
	FTM       interface{}  `json:"ftm"`
	FTA       interface{}  `json:"fta"`
	OReb      interface{}  `json:"oreb"`
	DReb      interface{}  `json:"dreb"`
	Reb       interface{}  `json:"reb"`
	Ast       interface{}  `json:"ast"`
	Stl       interface{}  `json:"stl"`
	Blk       interface{}  `json:"blk"`
	Turnover  interface{}  `json:"turnover"`
	PF        interface{}  `json:"pf"`
	Pts       interface{}  `json:"pts"`
	PlusMinus interface{}  `json:"plus_minus"`
	Player    bdlPlayerRaw `json:"player"`
	Team      bdlTeamRaw   `json:"team"`
	Game      bdlGameRaw   `json:"game"`
}

// GetGameStats iterates every player stat line for a season, optionally
// restricted to playerIDs, calling fn for each. Rows whose game date cannot
// be parsed are logged and skipped.
func (h *StatsHandler) GetGameStats(ctx context.Context, seasonYear int, playerIDs []int64, fn func(boxscore.RawGameRow) error) error {
	params := url.Values{
		"seasons[]": {strconv.Itoa(seasonYear)},
		"per_page":  {"100"},
	}
	for _, id := range playerIDs {
		params.Add("player_ids[]", strconv.FormatInt(id, 10))
	}

	for page := 1; ; page++ {
		resp, err := h.client.get(ctx, "/stats", params)
		if err != nil {
			return fmt.Errorf("fetch NBA game stats: %w", err)
		}

		var raw []bdlStatRaw
		if err := json.Unmarshal(resp.Data, &raw); err != nil {
			return fmt.Errorf("decode NBA game stats: %w", err)
		}

		for _, r := range raw {
			row, err := normalizeGameStat(r)
			if err != nil {
				h.logger.Warn("Skipping BDL stat row", "stat_id", r.ID, "error", err)
				continue
			}
			if err := fn(row); err != nil {
				return err
			}
		}

		if resp.Meta.NextCursor == nil {
			h.logger.Info("BDL game stats fetched", "season_year", seasonYear, "pages", page)
			break
		}
		params.Set("cursor", strconv.Itoa(*resp.Meta.NextCursor))
	}
	return nil
}

func normalizeGameStat(raw bdlStatRaw) (boxscore.RawGameRow, error) {
	date, err := ingest.ParseGameDate(raw.Game.Date)
	if err != nil {
		return boxscore.RawGameRow{}, err
	}

	name := strings.TrimSpace(raw.Player.FirstName + " " + raw.Player.LastName)
	if name == "" {
		name = fmt.Sprintf("Player %d", raw.Player.ID)
	}

	return boxscore.RawGameRow{
		Season:      provider.SeasonLabel(raw.Game.Season),
		GameID:      strconv.FormatInt(raw.Game.ID, 10),
		GameDate:    date,
		TeamID:      raw.Team.ID,
		TeamTricode: raw.Team.Abbreviation,
		PlayerID:    raw.Player.ID,
		PlayerName:  name,
		Position:    raw.Player.Position,
		Minutes:     provider.MinutesText(raw.Min),

		Points:                 provider.ExtractInt(raw.Pts),
		FieldGoalsMade:         provider.ExtractInt(raw.FGM),
		FieldGoalsAttempted:    provider.ExtractInt(raw.FGA),
		ThreePointersMade:      provider.ExtractInt(raw.FG3M),
		ThreePointersAttempted: provider.ExtractInt(raw.FG3A),
		FreeThrowsMade:         provider.ExtractInt(raw.FTM),
		FreeThrowsAttempted:    provider.ExtractInt(raw.FTA),
		ReboundsOffensive:      provider.ExtractInt(raw.OReb),
		ReboundsDefensive:      provider.ExtractInt(raw.DReb),
		ReboundsTotal:          provider.ExtractInt(raw.Reb),
		Assists:                provider.ExtractInt(raw.Ast),
		Steals:                 provider.ExtractInt(raw.Stl),
		Blocks:                 provider.ExtractInt(raw.Blk),
		Turnovers:              provider.ExtractInt(raw.Turnover),
		FoulsPersonal:          provider.ExtractInt(raw.PF),
		PlusMinus:              provider.ExtractInt(raw.PlusMinus),
	}, nil
}
