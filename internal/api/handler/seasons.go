package handler

import (
	"context"
	"net/http"

	"github.com/albapepper/scoracle-trends/internal/cache"
	"github.com/albapepper/scoracle-trends/internal/store"
)

// SeasonsResponse is the body of the seasons endpoint.
type SeasonsResponse struct {
	Seasons []store.SeasonSummary `json:"seasons"`
}

// GetSeasons lists the seasons with loaded box scores.
// @Summary List seasons
// @Description Returns every season with raw box scores, with player and game-row counts and the date range covered.
// @Tags seasons
// @Produce json
// @Success 200 {object} SeasonsResponse
// @Router /seasons [get]
func (h *Handler) GetSeasons(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, cache.SeasonsKey, cache.TTLSeasons, func(ctx context.Context) (interface{}, error) {
		seasons, err := h.store.ListSeasons(ctx)
		if err != nil {
			return nil, err
		}
		if seasons == nil {
			seasons = []store.SeasonSummary{}
		}
		return SeasonsResponse{Seasons: seasons}, nil
	})
}
