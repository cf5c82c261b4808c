package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-trends/internal/api/handler"
	"github.com/albapepper/scoracle-trends/internal/api/respond"
	"github.com/albapepper/scoracle-trends/internal/boxscore"
	"github.com/albapepper/scoracle-trends/internal/cache"
	"github.com/albapepper/scoracle-trends/internal/config"
	"github.com/albapepper/scoracle-trends/internal/observability"
	"github.com/albapepper/scoracle-trends/internal/store"
	"github.com/albapepper/scoracle-trends/internal/trends"
)

type fakeStore struct {
	healthErr error
	listErr   error
	queries   atomic.Int32
}

func (s *fakeStore) HealthCheck(context.Context) error { return s.healthErr }

func (s *fakeStore) ListSeasons(context.Context) ([]store.SeasonSummary, error) {
	s.queries.Add(1)
	return []store.SeasonSummary{{
		Season: "2023-24", Players: 2, GameRows: 41,
		FirstGame: time.Date(2023, 10, 24, 0, 0, 0, 0, time.UTC),
		LastGame:  time.Date(2024, 4, 14, 0, 0, 0, 0, time.UTC),
	}}, nil
}

func (s *fakeStore) ListProcessedRows(_ context.Context, season string, playerID int64) ([]boxscore.ProcessedGameRow, error) {
	s.queries.Add(1)
	if s.listErr != nil {
		return nil, s.listErr
	}
	if playerID != 203999 || season != "2023-24" {
		return nil, nil
	}
	row := boxscore.ProcessedGameRow{
		RawGameRow: boxscore.RawGameRow{
			Season: season, GameID: "0022300061", PlayerID: playerID, PlayerName: "Nikola Jokic",
			GameDate: time.Date(2023, 10, 24, 0, 0, 0, 0, time.UTC), Minutes: "36:12", Points: 29,
		},
		MinutesPlayed:   36.2,
		TrueShootingPct: boxscore.Float(0.68),
		Valid:           true,
	}
	return []boxscore.ProcessedGameRow{row}, nil
}

func (s *fakeStore) ListMonthlyTrends(_ context.Context, playerID int64, season string) ([]trends.MonthlyTrendRecord, error) {
	s.queries.Add(1)
	if playerID != 203999 {
		return nil, nil
	}
	rec := trends.MonthlyTrendRecord{
		PartitionKey:   trends.PartitionKey{PlayerID: playerID, Season: "2023-24", Month: "2023-11"},
		GamesPlayed:    14,
		AvgPoints:      26.4,
		TrendDirection: boxscore.TrendImproving,
	}
	if season != "" && season != rec.Season {
		return nil, nil
	}
	return []trends.MonthlyTrendRecord{rec}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:       "test",
		CORSAllowOrigins:  []string{"http://localhost:3000"},
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		TrendDecay:        0.95,
		TrendAsOf:         time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		TrendAsOfPinned:   true,
		PipelineWorkers:   1,
	}
}

func newTestServer(t *testing.T, s handler.Store) http.Handler {
	t.Helper()
	c := cache.New(true)
	t.Cleanup(c.Close)
	return NewRouter(s, c, testConfig(), observability.NewMetrics(), nil)
}

func get(t *testing.T, h http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_RootUnpinnedAsOf(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.TrendAsOfPinned = false
	c := cache.New(true)
	t.Cleanup(c.Close)
	srv := NewRouter(&fakeStore{}, c, cfg, nil, nil)

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"as_of":null`)
	assert.Contains(t, rec.Body.String(), `"as_of_pinned":false`)
	assert.NotContains(t, rec.Body.String(), "2024-05-01")
}

func TestRouter_Meta(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeStore{})

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"decay_factor":0.95`)
	assert.Contains(t, rec.Body.String(), `"as_of":"2024-05-01"`)
	assert.Contains(t, rec.Body.String(), `"as_of_pinned":true`)
	assert.NotEmpty(t, rec.Header().Get("X-Process-Time"))

	assert.Equal(t, http.StatusOK, get(t, srv, "/health").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/health/db").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/health/cache").Code)

	metrics := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "go_goroutines")

	down := newTestServer(t, &fakeStore{healthErr: errors.New("dial tcp: refused")})
	assert.Equal(t, http.StatusServiceUnavailable, get(t, down, "/health/db").Code)
}

func TestRouter_PlayerGames(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{}
	srv := newTestServer(t, fs)

	rec := get(t, srv, "/api/v1/players/203999/games?season=2023-24")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	var body handler.GamesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(203999), body.PlayerID)
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Games, 1)
	assert.Equal(t, 29, body.Games[0].Points)
	assert.InDelta(t, 0.68, *body.Games[0].TrueShootingPct, 1e-9)

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	hit := get(t, srv, "/api/v1/players/203999/games?season=2023-24")
	assert.Equal(t, "HIT", hit.Header().Get("X-Cache"))
	assert.Equal(t, rec.Body.String(), hit.Body.String())

	notModified := get(t, srv, "/api/v1/players/203999/games?season=2023-24", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, notModified.Code)
	assert.Equal(t, int32(1), fs.queries.Load())
}

func TestRouter_PlayerTrends(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeStore{})

	rec := get(t, srv, "/api/v1/players/203999/trends")
	require.Equal(t, http.StatusOK, rec.Code)
	var body handler.TrendsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Trends, 1)
	assert.Equal(t, "2023-11", body.Trends[0].Month)
	assert.Equal(t, boxscore.TrendImproving, body.Trends[0].TrendDirection)

	assert.Equal(t, http.StatusOK, get(t, srv, "/api/v1/players/203999/trends?season=2023-24").Code)
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/api/v1/players/203999/trends?season=2022-23").Code)
}

func TestRouter_Seasons(t *testing.T) {
	t.Parallel()

	rec := get(t, newTestServer(t, &fakeStore{}), "/api/v1/seasons")
	require.Equal(t, http.StatusOK, rec.Code)
	var body handler.SeasonsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Seasons, 1)
	assert.Equal(t, 41, body.Seasons[0].GameRows)
}

func TestRouter_Errors(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeStore{})
	failing := newTestServer(t, &fakeStore{listErr: errors.New("conn busy")})

	tests := []struct {
		name   string
		srv    http.Handler
		path   string
		status int
		code   string
	}{
		{"non-numeric id", srv, "/api/v1/players/jokic/games", http.StatusBadRequest, respond.CodeInvalidID},
		{"zero id", srv, "/api/v1/players/0/trends", http.StatusBadRequest, respond.CodeInvalidID},
		{"bad season", srv, "/api/v1/players/203999/games?season=2023", http.StatusBadRequest, respond.CodeInvalidSeason},
		{"bad trend season", srv, "/api/v1/players/203999/trends?season=23-24", http.StatusBadRequest, respond.CodeInvalidSeason},
		{"unknown player", srv, "/api/v1/players/1/games?season=2023-24", http.StatusNotFound, respond.CodeNotFound},
		{"store failure", failing, "/api/v1/players/203999/games?season=2023-24", http.StatusInternalServerError, respond.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := get(t, tt.srv, tt.path)
			require.Equal(t, tt.status, rec.Code)
			var body respond.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RateLimitMiddleware(2, time.Minute)(ok)

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	// burst is requests/2 = 1
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:5000"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:5001"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:5000"))
}

func TestIPLimiterSweep(t *testing.T) {
	t.Parallel()

	l := newIPLimiter(10, time.Second)
	now := time.Now()
	l.getLimiter("a", now)
	l.getLimiter("b", now.Add(5*time.Second))
	assert.Len(t, l.limiters, 1)
}
