package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Result tracks counts and non-fatal errors from one pipeline run.
type Result struct {
	RunID    uuid.UUID
	Season   string
	PlayerID int64 // 0 when the run covered every player

	RawRows       int
	ProcessedRows int
	InvalidRows   int
	TrendRecords  int
	Players       int

	Errors   []string
	Duration time.Duration
}

// AddError records an error message.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// OK reports whether the run finished without recorded errors.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"season=%s raw=%d processed=%d invalid=%d players=%d trends=%d errors=%d dur=%s",
		r.Season, r.RawRows, r.ProcessedRows, r.InvalidRows,
		r.Players, r.TrendRecords, len(r.Errors),
		r.Duration.Round(time.Millisecond),
	)
}
