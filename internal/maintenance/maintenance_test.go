package maintenance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-trends/internal/store"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeScopes struct {
	scopes []store.Scope
	err    error
	limit  int
}

func (f *fakeScopes) StaleScopes(_ context.Context, limit int) ([]store.Scope, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	if len(f.scopes) > limit {
		return f.scopes[:limit], nil
	}
	return f.scopes, nil
}

type fakeExec struct {
	sql []string
	err error
}

func (f *fakeExec) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.sql = append(f.sql, sql)
	return pgconn.NewCommandTag("REFRESH MATERIALIZED VIEW"), f.err
}

func TestCatchUp(t *testing.T) {
	t.Parallel()

	src := &fakeScopes{scopes: []store.Scope{
		{PlayerID: 201939, Season: "2023-24"},
		{PlayerID: 203507, Season: "2023-24"},
		{PlayerID: 1629029, Season: "2023-24"},
	}}
	var done []store.Scope
	recompute := func(_ context.Context, sc store.Scope) error {
		if sc.PlayerID == 203507 {
			return errors.New("lock timeout")
		}
		done = append(done, sc)
		return nil
	}

	ran, failed, err := CatchUp(context.Background(), src, recompute, 10, quiet)
	require.NoError(t, err)
	assert.Equal(t, 2, ran)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 10, src.limit)
	assert.Equal(t, []int64{201939, 1629029}, []int64{done[0].PlayerID, done[1].PlayerID})
}

func TestCatchUp_Limits(t *testing.T) {
	t.Parallel()

	src := &fakeScopes{}
	ran, failed, err := CatchUp(context.Background(), src, nil, 0, quiet)
	require.NoError(t, err)
	assert.Zero(t, ran+failed)
	assert.Equal(t, DefaultConfig().CatchUpBatch, src.limit)

	_, _, err = CatchUp(context.Background(), &fakeScopes{err: errors.New("relation trend_runs does not exist")}, nil, 5, quiet)
	require.Error(t, err)
}

func TestCatchUp_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeScopes{scopes: []store.Scope{{PlayerID: 1, Season: "2023-24"}, {PlayerID: 2, Season: "2023-24"}}}
	calls := 0
	ran, _, err := CatchUp(ctx, src, func(context.Context, store.Scope) error {
		calls++
		cancel()
		return nil
	}, 10, quiet)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, ran)
}

func TestRefreshMaterializedViews(t *testing.T) {
	t.Parallel()

	ex := &fakeExec{}
	require.NoError(t, RefreshMaterializedViews(context.Background(), ex, quiet))
	assert.Equal(t, []string{`REFRESH MATERIALIZED VIEW CONCURRENTLY "mv_trend_leaders"`}, ex.sql)

	failing := &fakeExec{err: errors.New("cannot refresh concurrently")}
	err := RefreshMaterializedViews(context.Background(), failing, quiet)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mv_trend_leaders")
}
