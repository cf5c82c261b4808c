// Package seed loads raw box-score rows into the store from CSV exports or
// the BallDontLie API.
package seed

import "fmt"

// SeedResult tracks counts and errors from a seeding operation.
type SeedResult struct {
	Files        int
	RowsRead     int
	RowsUpserted int
	Errors       []string
}

// Add merges another SeedResult into this one.
func (r *SeedResult) Add(other SeedResult) {
	r.Files += other.Files
	r.RowsRead += other.RowsRead
	r.RowsUpserted += other.RowsUpserted
	r.Errors = append(r.Errors, other.Errors...)
}

// AddError records an error message.
func (r *SeedResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddErrorf records a formatted error message.
func (r *SeedResult) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the seed operation.
func (r *SeedResult) Summary() string {
	return fmt.Sprintf(
		"files=%d rows_read=%d rows_upserted=%d errors=%d",
		r.Files, r.RowsRead, r.RowsUpserted, len(r.Errors),
	)
}
