package dedup

import (
	"github.com/rs/zerolog"

	"market-movers-alerts/internal/fetcher"
)

// Direction labels which threshold an event crossed.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Event is a fired alert: the snapshot that triggered it plus the watermark
// that was in effect before (nil on the first alert of the day).
type Event struct {
	Snapshot  fetcher.Snapshot
	Direction Direction
	Previous  *float64
}

// Config holds the engine thresholds. Thresholds are percentages (up
// positive, down negative); resend deltas are the minimum extra movement in
// percentage points before the same symbol+direction may alert again on the
// same day.
type Config struct {
	UpThreshold     float64
	DownThreshold   float64
	ResendDeltaUp   float64
	ResendDeltaDown float64
}

// Engine decides, against the day's watermarks, whether a snapshot fires an
// up or down alert. Watermarks move only when an alert fires: up peaks only
// ever rise, down troughs only ever sink, so re-polling an unchanged value
// is a no-op.
type Engine struct {
	cfg    Config
	state  State
	day    string
	logger zerolog.Logger
	debug  bool
	fired  int
}

// NewEngine binds an engine to one day bucket of the given state. The state
// map is mutated in place as alerts fire.
func NewEngine(cfg Config, state State, day string, debug bool, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		state:  state,
		day:    day,
		logger: logger.With().Str("component", "dedup_engine").Logger(),
		debug:  debug,
	}
}

// Evaluate runs both threshold branches for one admitted snapshot and
// returns the fired events: none, one, or both when the thresholds overlap.
// Branches are independent: each keeps its own watermark.
func (e *Engine) Evaluate(snap fetcher.Snapshot) []Event {
	wm := e.state.Lookup(e.day, snap.Symbol)

	if e.debug {
		e.logger.Debug().
			Str("symbol", snap.Symbol).
			Str("day", e.day).
			Any("prev_up", wm.Up).
			Any("prev_down", wm.Down).
			Float64("pct24h", snap.Pct24h).
			Msg("dedup decision")
	}

	var events []Event

	if snap.Pct24h <= e.cfg.DownThreshold {
		if wm.Down == nil || snap.Pct24h <= *wm.Down-e.cfg.ResendDeltaDown {
			events = append(events, Event{Snapshot: snap, Direction: DirectionDown, Previous: wm.Down})
			trough := snap.Pct24h
			if wm.Down != nil && *wm.Down < trough {
				trough = *wm.Down
			}
			wm.Down = &trough
			e.state.put(e.day, snap.Symbol, wm)
			e.fired++
		}
	}

	if snap.Pct24h >= e.cfg.UpThreshold {
		if wm.Up == nil || snap.Pct24h >= *wm.Up+e.cfg.ResendDeltaUp {
			events = append(events, Event{Snapshot: snap, Direction: DirectionUp, Previous: wm.Up})
			peak := snap.Pct24h
			if wm.Up != nil && *wm.Up > peak {
				peak = *wm.Up
			}
			wm.Up = &peak
			e.state.put(e.day, snap.Symbol, wm)
			e.fired++
		}
	}

	return events
}

// Fired reports how many alerts the engine emitted this run.
func (e *Engine) Fired() int {
	return e.fired
}
