package seed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-trends/internal/boxscore"
	"github.com/albapepper/scoracle-trends/internal/ingest"
)

type fakeWriter struct {
	rows   []boxscore.RawGameRow
	calls  int
	failOn int // 1-based call number that fails; 0 never
}

func (w *fakeWriter) UpsertRawRows(_ context.Context, rows []boxscore.RawGameRow) (int, error) {
	w.calls++
	if w.calls == w.failOn {
		return 0, errors.New("deadlock detected")
	}
	w.rows = append(w.rows, rows...)
	return len(rows), nil
}

type fakeSource struct {
	rows []boxscore.RawGameRow
	err  error
}

func (s fakeSource) GetGameStats(_ context.Context, _ int, _ []int64, fn func(boxscore.RawGameRow) error) error {
	for _, r := range s.rows {
		if err := fn(r); err != nil {
			return err
		}
	}
	return s.err
}

func rows(n int) []boxscore.RawGameRow {
	out := make([]boxscore.RawGameRow, n)
	for i := range out {
		out[i] = boxscore.RawGameRow{
			Season:   "2024-25",
			GameID:   fmt.Sprintf("%d", 15000+i),
			GameDate: time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
			PlayerID: 237,
			Minutes:  "34",
		}
	}
	return out
}

func TestSeedBDL(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	res := SeedBDL(context.Background(), w, fakeSource{rows: rows(1203)}, 2024, nil, nil)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 1203, res.RowsRead)
	assert.Equal(t, 1203, res.RowsUpserted)
	assert.Equal(t, 3, w.calls)
	require.Len(t, w.rows, 1203)
	assert.Equal(t, "15000", w.rows[0].GameID)
	assert.Equal(t, "16202", w.rows[1202].GameID)
}

func TestSeedBDL_Failures(t *testing.T) {
	t.Parallel()

	t.Run("fetch error keeps received rows", func(t *testing.T) {
		t.Parallel()
		w := &fakeWriter{}
		res := SeedBDL(context.Background(), w, fakeSource{rows: rows(10), err: errors.New("HTTP 429")}, 2024, []int64{237}, nil)
		require.Len(t, res.Errors, 1)
		assert.Contains(t, res.Errors[0], "HTTP 429")
		assert.Equal(t, 10, res.RowsUpserted)
	})

	t.Run("write error continues", func(t *testing.T) {
		t.Parallel()
		w := &fakeWriter{failOn: 1}
		res := SeedBDL(context.Background(), w, fakeSource{rows: rows(600)}, 2024, nil, nil)
		require.Len(t, res.Errors, 1)
		assert.Contains(t, res.Errors[0], "deadlock")
		assert.Equal(t, 600, res.RowsRead)
		assert.Equal(t, 100, res.RowsUpserted)
	})
}

func TestSeedFiles(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{failOn: 2}
	files := []ingest.FileResult{
		{Path: "a.csv", Rows: rows(3), Errors: []error{errors.New("line 4: invalid points \"x\"")}},
		{Path: "b.csv", Rows: rows(2)},
		{Path: "c.csv"},
		{Path: "d.csv", Rows: rows(1)},
	}
	res := SeedFiles(context.Background(), w, files, nil)

	assert.Equal(t, 4, res.Files)
	assert.Equal(t, 6, res.RowsRead)
	assert.Equal(t, 4, res.RowsUpserted)
	assert.Equal(t, 3, w.calls)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "a.csv: line 4: invalid points \"x\"", res.Errors[0])
	assert.Contains(t, res.Errors[1], "upsert b.csv")
}

func TestSeedResult(t *testing.T) {
	t.Parallel()

	a := SeedResult{Files: 1, RowsRead: 5, RowsUpserted: 5}
	a.AddError("boom")
	b := SeedResult{Files: 2, RowsRead: 3, RowsUpserted: 2}
	b.AddErrorf("row %d", 9)
	a.Add(b)
	assert.Equal(t, "files=3 rows_read=8 rows_upserted=7 errors=2", a.Summary())
	assert.Equal(t, []string{"boom", "row 9"}, a.Errors)
}
