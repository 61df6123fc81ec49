package alerting

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"market-movers-alerts/internal/dedup"
)

// Options tune batching, formatting, and delivery pacing.
type Options struct {
	PerAsset      bool
	MaxDownItems  int
	MaxUpItems    int
	UpIcon        string
	DownIcon      string
	ShowVolume    bool
	ShowMarketCap bool
	SendSpacing   time.Duration
	UpThreshold   float64
	DownThreshold float64
}

// Dispatcher orders fired events, caps them per section, and delivers them
// either one message per asset or as a single digest. Delivery failures are
// logged and remaining sends continue; the returned slice holds only the
// events whose message actually went out.
type Dispatcher struct {
	notifier Notifier
	opts     Options
	logger   zerolog.Logger
	sleep    func(time.Duration)
}

// NewDispatcher wires a notifier into a dispatcher.
func NewDispatcher(notifier Notifier, opts Options, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		opts:     opts,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
		sleep:    time.Sleep,
	}
}

// Dispatch sends the run's events. Downs go first, most severe drop leading;
// ups follow, most extreme gain leading.
func (d *Dispatcher) Dispatch(ctx context.Context, downs, ups []dedup.Event, now time.Time) []dedup.Event {
	sort.Slice(downs, func(i, j int) bool { return downs[i].Snapshot.Pct24h < downs[j].Snapshot.Pct24h })
	sort.Slice(ups, func(i, j int) bool { return ups[i].Snapshot.Pct24h > ups[j].Snapshot.Pct24h })

	downs = capEvents(downs, d.opts.MaxDownItems)
	ups = capEvents(ups, d.opts.MaxUpItems)

	if d.opts.PerAsset {
		return d.dispatchPerAsset(ctx, downs, ups, now)
	}
	return d.dispatchDigest(ctx, downs, ups, now)
}

func (d *Dispatcher) dispatchPerAsset(ctx context.Context, downs, ups []dedup.Event, now time.Time) []dedup.Event {
	var delivered []dedup.Event
	batch := append(append([]dedup.Event{}, downs...), ups...)

	for i, ev := range batch {
		if err := ctx.Err(); err != nil {
			d.logger.Warn().Err(err).Msg("dispatch cancelled")
			return delivered
		}

		msg := renderAssetMessage(ev, d.opts, now)
		if err := d.notifier.Send(ctx, msg); err != nil {
			d.logger.Error().Err(err).
				Str("symbol", ev.Snapshot.Symbol).
				Str("direction", string(ev.Direction)).
				Msg("delivery failed; continuing")
		} else {
			delivered = append(delivered, ev)
		}

		if i < len(batch)-1 && d.opts.SendSpacing > 0 {
			d.sleep(d.opts.SendSpacing)
		}
	}
	return delivered
}

func (d *Dispatcher) dispatchDigest(ctx context.Context, downs, ups []dedup.Event, now time.Time) []dedup.Event {
	if len(downs)+len(ups) == 0 {
		return nil
	}

	msg := renderDigest(downs, ups, d.opts, now)
	if err := d.notifier.Send(ctx, msg); err != nil {
		d.logger.Error().Err(err).Int("events", len(downs)+len(ups)).Msg("digest delivery failed")
		return nil
	}
	return append(append([]dedup.Event{}, downs...), ups...)
}

func capEvents(events []dedup.Event, max int) []dedup.Event {
	if max > 0 && len(events) > max {
		return events[:max]
	}
	return events
}
