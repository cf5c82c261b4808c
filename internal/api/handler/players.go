package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/scoracle-trends/internal/api/respond"
	"github.com/albapepper/scoracle-trends/internal/boxscore"
	"github.com/albapepper/scoracle-trends/internal/cache"
	"github.com/albapepper/scoracle-trends/internal/config"
	"github.com/albapepper/scoracle-trends/internal/metrics"
	"github.com/albapepper/scoracle-trends/internal/trends"
)

// GamesResponse is the body of the player games endpoint.
type GamesResponse struct {
	PlayerID int64                       `json:"player_id"`
	Season   string                      `json:"season"`
	Count    int                         `json:"count"`
	Games    []boxscore.ProcessedGameRow `json:"games"`
}

// TrendsResponse is the body of the player trends endpoint.
type TrendsResponse struct {
	PlayerID int64                       `json:"player_id"`
	Season   string                      `json:"season,omitempty"`
	Count    int                         `json:"count"`
	Trends   []trends.MonthlyTrendRecord `json:"trends"`
}

// GetPlayerGames returns a player's processed game rows for one season.
// @Summary Get player games
// @Description Returns per-game derived metrics (shooting efficiency, usage, per-36 rates, grades, validation flags) for one player and season.
// @Tags players
// @Produce json
// @Param playerID path int true "Player ID"
// @Param season query string false "Season label, e.g. 2023-24 (defaults to current)"
// @Success 200 {object} GamesResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /players/{playerID}/games [get]
func (h *Handler) GetPlayerGames(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerIDParam(w, r)
	if !ok {
		return
	}
	season := r.URL.Query().Get("season")
	if season == "" {
		season = config.CurrentSeason()
	}
	if !metrics.ValidSeasonLabel(season) {
		respond.WriteError(w, http.StatusBadRequest, respond.CodeInvalidSeason, "season must look like 2023-24")
		return
	}

	key := cache.PlayerPrefix(playerID) + "games:" + season
	h.serveCached(w, r, key, seasonTTL(season), func(ctx context.Context) (interface{}, error) {
		rows, err := h.store.ListProcessedRows(ctx, season, playerID)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, errNotFound(fmt.Sprintf("no games for player %d in %s", playerID, season))
		}
		return GamesResponse{PlayerID: playerID, Season: season, Count: len(rows), Games: rows}, nil
	})
}

// GetPlayerTrends returns a player's monthly trend records.
// @Summary Get player monthly trends
// @Description Returns monthly aggregates (averages, recency-weighted averages, slopes, trend direction, consistency) for one player, optionally limited to one season.
// @Tags players
// @Produce json
// @Param playerID path int true "Player ID"
// @Param season query string false "Season label, e.g. 2023-24 (defaults to all seasons)"
// @Success 200 {object} TrendsResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /players/{playerID}/trends [get]
func (h *Handler) GetPlayerTrends(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerIDParam(w, r)
	if !ok {
		return
	}
	season := r.URL.Query().Get("season")
	if season != "" && !metrics.ValidSeasonLabel(season) {
		respond.WriteError(w, http.StatusBadRequest, respond.CodeInvalidSeason, "season must look like 2023-24")
		return
	}

	ttl := cache.TTLCurrentSeason
	if season != "" {
		ttl = seasonTTL(season)
	}
	key := cache.PlayerPrefix(playerID) + "trends:" + season
	h.serveCached(w, r, key, ttl, func(ctx context.Context) (interface{}, error) {
		records, err := h.store.ListMonthlyTrends(ctx, playerID, season)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, errNotFound(fmt.Sprintf("no monthly trends for player %d", playerID))
		}
		return TrendsResponse{PlayerID: playerID, Season: season, Count: len(records), Trends: records}, nil
	})
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func playerIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "playerID"), 10, 64)
	if err != nil || id <= 0 {
		respond.WriteError(w, http.StatusBadRequest, respond.CodeInvalidID, "player ID must be a positive integer")
		return 0, false
	}
	return id, true
}

func seasonTTL(season string) time.Duration {
	if season >= config.CurrentSeason() {
		return cache.TTLCurrentSeason
	}
	return cache.TTLHistorical
}
