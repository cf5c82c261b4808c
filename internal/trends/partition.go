package trends

import (
	"runtime"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/albapepper/scoracle-trends/internal/boxscore"
)

// Partition is the chronologically ordered set of rows sharing one key.
type Partition struct {
	Key  PartitionKey
	Rows []boxscore.ProcessedGameRow
}

// Split groups rows by (player, season, month). Partitions come back in key
// order and each partition's rows are sorted by game date, then game id.
func Split(rows []boxscore.ProcessedGameRow) []Partition {
	groups := make(map[PartitionKey][]boxscore.ProcessedGameRow)
	for _, r := range rows {
		k := KeyOf(r)
		groups[k] = append(groups[k], r)
	}

	parts := make([]Partition, 0, len(groups))
	for k, rs := range groups {
		sortChronologically(rs)
		parts = append(parts, Partition{Key: k, Rows: rs})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Key.Less(parts[j].Key) })
	return parts
}

func sortChronologically(rows []boxscore.ProcessedGameRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].GameDate.Equal(rows[j].GameDate) {
			return rows[i].GameDate.Before(rows[j].GameDate)
		}
		return rows[i].GameID < rows[j].GameID
	})
}

// AggregateAll splits rows into partitions and reduces them concurrently.
// Partitions with fewer than two qualifying games produce no record.
// Records are returned in key order.
func AggregateAll(rows []boxscore.ProcessedGameRow, decay float64, asOf time.Time, workers int) ([]MonthlyTrendRecord, error) {
	if err := CheckParams(decay, asOf); err != nil {
		return nil, err
	}
	parts := Split(rows)
	if len(parts) == 0 {
		return nil, nil
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := pool.NewWithResults[*MonthlyTrendRecord]().WithErrors().WithMaxGoroutines(workers)
	for _, part := range parts {
		p.Go(func() (*MonthlyTrendRecord, error) {
			return ComputeMonthlyTrend(part.Rows, decay, asOf)
		})
	}
	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	records := make([]MonthlyTrendRecord, 0, len(results))
	for _, r := range results {
		if r != nil {
			records = append(records, *r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].PartitionKey.Less(records[j].PartitionKey)
	})
	return records, nil
}
