package trends

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-trends/internal/boxscore"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	feb := game(2, 14)
	feb.GameDate = time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	other := game(9, 8)
	other.PlayerID = 1627750
	tie := game(4, 11)
	tie.GameID = "0022300000"

	rows := []boxscore.ProcessedGameRow{game(9, 30), feb, other, game(4, 20), tie}
	parts := Split(rows)
	require.Len(t, parts, 3)

	assert.Equal(t, PartitionKey{PlayerID: 203999, Season: "2023-24", Month: "2024-01"}, parts[0].Key)
	assert.Equal(t, PartitionKey{PlayerID: 203999, Season: "2023-24", Month: "2024-02"}, parts[1].Key)
	assert.Equal(t, PartitionKey{PlayerID: 1627750, Season: "2023-24", Month: "2024-01"}, parts[2].Key)

	jan := parts[0].Rows
	require.Len(t, jan, 3)
	assert.Equal(t, "0022300000", jan[0].GameID, "same-day tie broken by game id")
	assert.Equal(t, 20, jan[1].Points)
	assert.Equal(t, 30, jan[2].Points)

	// The caller's slice keeps its order.
	assert.Equal(t, 30, rows[0].Points)
}

func TestPartitionKeyLess(t *testing.T) {
	t.Parallel()

	a := PartitionKey{PlayerID: 1, Season: "2023-24", Month: "2024-03"}
	assert.True(t, a.Less(PartitionKey{PlayerID: 2, Season: "2022-23", Month: "2023-01"}))
	assert.True(t, a.Less(PartitionKey{PlayerID: 1, Season: "2024-25", Month: "2024-01"}))
	assert.True(t, a.Less(PartitionKey{PlayerID: 1, Season: "2023-24", Month: "2024-04"}))
	assert.False(t, a.Less(a))
}

func TestAggregateAll(t *testing.T) {
	t.Parallel()

	var rows []boxscore.ProcessedGameRow
	// Player A: qualifying January, single-game February.
	rows = append(rows, games(10, 20, 30)...)
	feb := game(1, 40)
	feb.GameDate = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	rows = append(rows, feb)
	// Player B: two January games.
	for _, g := range games(5, 15) {
		g.PlayerID = 1
		g.PlayerName = "Stephen Curry"
		rows = append(rows, g)
	}

	for _, workers := range []int{0, 1, 4} {
		records, err := AggregateAll(rows, DefaultDecay, asOf, workers)
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, int64(1), records[0].PlayerID)
		assert.InDelta(t, 10.0, records[0].AvgPoints, 1e-9)
		assert.Equal(t, int64(203999), records[1].PlayerID)
		assert.Equal(t, "2024-01", records[1].Month)
		assert.Equal(t, 3, records[1].GamesPlayed)
	}
}

func TestAggregateAll_Empty(t *testing.T) {
	t.Parallel()

	records, err := AggregateAll(nil, DefaultDecay, asOf, 2)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAggregateAll_InvalidDecay(t *testing.T) {
	t.Parallel()

	_, err := AggregateAll(games(10, 20), 2, asOf, 2)
	require.ErrorIs(t, err, ErrInvalidDecay)
}
