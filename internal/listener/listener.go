// Package listener provides a Postgres LISTEN/NOTIFY consumer that keeps
// processed rows and monthly trends in step with raw box-score loads. It
// holds a dedicated pgx connection (not from the pool) listening on the
// boxscores_loaded channel.
//
// The players_raw trigger publishes one event per (player, season) touched
// by a statement. Each event triggers a recomputation of that scope.
// Events for a scope that is already being recomputed are coalesced into a
// single follow-up run.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/scoracle-trends/internal/config"
)

const (
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Event is the JSON payload from pg_notify('boxscores_loaded', ...).
type Event struct {
	PlayerID int64  `json:"player_id"`
	Season   string `json:"season"`
}

// Handler recomputes the scope named by an event.
type Handler func(ctx context.Context, ev Event) error

// ParseEvent decodes and checks a notification payload.
func ParseEvent(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("decode payload: %w", err)
	}
	if ev.PlayerID <= 0 || ev.Season == "" {
		return Event{}, fmt.Errorf("payload missing player_id or season: %s", payload)
	}
	return ev, nil
}

// Start opens a dedicated connection and listens on the boxscores_loaded
// channel. It reconnects automatically on connection loss. Blocks until ctx
// is cancelled and in-flight recomputations have finished. Intended to be
// called with `go`.
func Start(ctx context.Context, dbURL string, handle Handler, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	d := newDispatcher(handle, logger)
	defer d.wait()

	var backoff backoffState
	for {
		connected, err := listenLoop(ctx, dbURL, d, logger)
		if ctx.Err() != nil {
			logger.Info("Box score listener stopped (context cancelled)")
			return
		}

		wait := backoff.next(connected)
		logger.Error("Box score listener disconnected, reconnecting...",
			"error", err, "backoff", wait)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
	}
}

// backoffState doubles the reconnect delay on consecutive failures and starts
// over once a session has reached LISTEN.
type backoffState struct {
	cur time.Duration
}

func (b *backoffState) next(connected bool) time.Duration {
	if connected || b.cur == 0 {
		b.cur = reconnectBackoff
	} else {
		b.cur = min(b.cur*2, maxReconnect)
	}
	return b.cur
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled. The bool reports whether LISTEN succeeded.
func listenLoop(ctx context.Context, dbURL string, d *dispatcher, logger *slog.Logger) (bool, error) {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return false, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	channel := pgx.Identifier{config.BoxScoresChannel}.Sanitize()
	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		return false, fmt.Errorf("LISTEN %s: %w", channel, err)
	}
	logger.Info("Box score listener connected", "channel", config.BoxScoresChannel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return true, fmt.Errorf("wait for notification: %w", err)
		}

		ev, err := ParseEvent(notification.Payload)
		if err != nil {
			logger.Warn("Failed to parse box score event",
				"payload", notification.Payload, "error", err)
			continue
		}

		logger.Debug("Box score event received", "player_id", ev.PlayerID, "season", ev.Season)
		d.dispatch(ctx, ev)
	}
}

// --------------------------------------------------------------------------
// Dispatch
// --------------------------------------------------------------------------

// dispatcher runs one goroutine per scope. A scope that receives events
// while running is run exactly once more after the current run.
type dispatcher struct {
	handle Handler
	logger *slog.Logger

	mu       sync.Mutex
	inFlight map[Event]bool
	rerun    map[Event]bool
	wg       sync.WaitGroup
}

func newDispatcher(handle Handler, logger *slog.Logger) *dispatcher {
	return &dispatcher{
		handle:   handle,
		logger:   logger,
		inFlight: make(map[Event]bool),
		rerun:    make(map[Event]bool),
	}
}

func (d *dispatcher) dispatch(ctx context.Context, ev Event) {
	d.mu.Lock()
	if d.inFlight[ev] {
		d.rerun[ev] = true
		d.mu.Unlock()
		return
	}
	d.inFlight[ev] = true
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			start := time.Now()
			if err := d.handle(ctx, ev); err != nil {
				d.logger.Warn("Recompute failed",
					"player_id", ev.PlayerID, "season", ev.Season, "error", err)
			} else {
				d.logger.Info("Recomputed scope",
					"player_id", ev.PlayerID, "season", ev.Season,
					"duration", time.Since(start).Round(time.Millisecond))
			}

			d.mu.Lock()
			if d.rerun[ev] && ctx.Err() == nil {
				delete(d.rerun, ev)
				d.mu.Unlock()
				continue
			}
			delete(d.rerun, ev)
			delete(d.inFlight, ev)
			d.mu.Unlock()
			return
		}
	}()
}

func (d *dispatcher) wait() {
	d.wg.Wait()
}
