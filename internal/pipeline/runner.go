package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/albapepper/scoracle-trends/internal/observability"
)

// Runner binds a repository and fixed trend parameters so long-running
// callers (the listener, maintenance catch-up) can recompute one
// (player, season) scope at a time.
type Runner struct {
	Repo    Repository
	Decay   float64
	Workers int
	Metrics *observability.Metrics
	Logger  *slog.Logger

	// AsOf pins the reference date. Zero means the UTC date at run time.
	AsOf time.Time

	// OnComplete, if set, is called after every run that returned no fatal
	// error, including runs with per-player write errors.
	OnComplete func(Result)

	now func() time.Time
}

// RunScope recomputes one player's season.
func (r *Runner) RunScope(ctx context.Context, season string, playerID int64) (Result, error) {
	res, err := Run(ctx, r.Repo, Options{
		Season:   season,
		PlayerID: playerID,
		Decay:    r.Decay,
		AsOf:     r.asOf(),
		Workers:  r.Workers,
		Metrics:  r.Metrics,
	}, r.Logger)
	if err != nil {
		return res, err
	}
	if r.OnComplete != nil {
		r.OnComplete(res)
	}
	return res, nil
}

func (r *Runner) asOf() time.Time {
	if !r.AsOf.IsZero() {
		return r.AsOf
	}
	now := time.Now
	if r.now != nil {
		now = r.now
	}
	y, m, d := now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
