package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/albapepper/scoracle-trends/internal/boxscore"
)

// FileResult is what one CSV file produced.
type FileResult struct {
	Path   string
	Rows   []boxscore.RawGameRow
	Errors []error
}

// LoadPath reads a single CSV file, or every *.csv file directly inside a
// directory. Files are parsed concurrently, at most workers at a time, and
// results come back in file-name order.
func LoadPath(ctx context.Context, path string, workers int) ([]FileResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		res, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		return []FileResult{res}, nil
	}
	return LoadDir(ctx, path, workers)
}

// LoadDir reads every *.csv file in dir. An unreadable file aborts the load;
// bad lines inside a file are reported on its FileResult.
func LoadDir(ctx context.Context, dir string, workers int) ([]FileResult, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list csv files in %s: %w", dir, err)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, nil
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]FileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := loadFile(p)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func loadFile(path string) (FileResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileResult{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, errs := ReadCSV(f)
	return FileResult{Path: path, Rows: rows, Errors: errs}, nil
}

// Rows flattens results into a single slice, preserving file order.
func Rows(results []FileResult) []boxscore.RawGameRow {
	var n int
	for _, r := range results {
		n += len(r.Rows)
	}
	out := make([]boxscore.RawGameRow, 0, n)
	for _, r := range results {
		out = append(out, r.Rows...)
	}
	return out
}
