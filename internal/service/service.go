package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"market-movers-alerts/internal/alerting"
	"market-movers-alerts/internal/config"
	"market-movers-alerts/internal/dedup"
	"market-movers-alerts/internal/fetcher"
	"market-movers-alerts/internal/screener"
	"market-movers-alerts/internal/state"
	"market-movers-alerts/internal/storage"
)

// Service runs the movers pipeline: fetch snapshots, filter, evaluate the
// dedup engine against the day's watermarks, deliver, and persist state when
// something went out.
type Service struct {
	cfg        *config.Config
	provider   fetcher.SnapshotFetcher
	states     *state.Store
	dispatcher *alerting.Dispatcher
	audit      storage.AlertStore
	locker     storage.AdvisoryLocker
	logger     zerolog.Logger
	loc        *time.Location
}

// New constructs the pipeline service. audit and locker may be nil when no
// database is configured.
func New(cfg *config.Config, provider fetcher.SnapshotFetcher, states *state.Store, dispatcher *alerting.Dispatcher, audit storage.AlertStore, locker storage.AdvisoryLocker, loc *time.Location, logger zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		cfg:        cfg,
		provider:   provider,
		states:     states,
		dispatcher: dispatcher,
		audit:      audit,
		locker:     locker,
		logger:     logger.With().Str("component", "service").Logger(),
		loc:        loc,
	}
}

// RunOnce executes one complete polling run. A total data-fetch failure is
// logged and swallowed so an external scheduler sees a clean exit; a
// state-file write failure is the one error that propagates.
func (s *Service) RunOnce(ctx context.Context, now time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Msg("skip run because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	snaps, err := s.provider.FetchSnapshots(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("data fetch failed; aborting run")
		return nil
	}
	if len(snaps) == 0 {
		s.logger.Info().Msg("provider returned no assets")
		return nil
	}

	local := now.In(s.loc)
	day := local.Format(state.DayLayout)

	st := s.states.Load()
	if s.cfg.Dedup.RetentionDays > 0 {
		s.states.Prune(st, local, s.cfg.Dedup.RetentionDays)
	}

	engine := dedup.NewEngine(dedup.Config{
		UpThreshold:     s.cfg.Thresholds.UpPct,
		DownThreshold:   s.cfg.Thresholds.DownPct,
		ResendDeltaUp:   s.cfg.Dedup.ResendDeltaUp,
		ResendDeltaDown: s.cfg.Dedup.ResendDeltaDown,
	}, st, day, s.cfg.Dedup.Debug, s.logger)

	limits := screener.Limits{
		MinVolume24h: s.cfg.Filters.MinVolume24h,
		MinMarketCap: s.cfg.Filters.MinMarketCap,
		MaxMarketCap: s.cfg.Filters.MaxMarketCap,
	}

	var downs, ups []dedup.Event
	admitted := 0
	for _, snap := range snaps {
		ok, reason := screener.Admit(snap, limits)
		if !ok {
			if s.cfg.Dedup.Debug && reason != screener.ReasonMalformed {
				s.logger.Debug().Str("symbol", snap.Symbol).Str("reason", string(reason)).Msg("snapshot rejected")
			}
			continue
		}
		admitted++
		for _, ev := range engine.Evaluate(snap) {
			if ev.Direction == dedup.DirectionDown {
				downs = append(downs, ev)
			} else {
				ups = append(ups, ev)
			}
		}
	}

	s.logger.Info().
		Int("assets", len(snaps)).
		Int("admitted", admitted).
		Int("down_events", len(downs)).
		Int("up_events", len(ups)).
		Str("day", day).
		Msg("run evaluated")

	if len(downs)+len(ups) == 0 {
		return nil
	}

	delivered := s.dispatcher.Dispatch(ctx, downs, ups, local)
	if len(delivered) == 0 {
		s.logger.Warn().Msg("no alert delivered; state left untouched")
		return nil
	}

	s.recordAudit(ctx, day, delivered, st)

	if err := s.states.Save(st); err != nil {
		return fmt.Errorf("persist dedup state: %w", err)
	}

	s.logger.Info().Int("delivered", len(delivered)).Msg("run complete")
	return nil
}

func (s *Service) recordAudit(ctx context.Context, day string, delivered []dedup.Event, st dedup.State) {
	if s.audit == nil {
		return
	}
	for _, ev := range delivered {
		wm := st.Lookup(day, ev.Snapshot.Symbol)
		mark := wm.Up
		if ev.Direction == dedup.DirectionDown {
			mark = wm.Down
		}
		rec := storage.AlertRecord{
			DayKey:        day,
			Symbol:        ev.Snapshot.Symbol,
			Direction:     string(ev.Direction),
			Pct24h:        ev.Snapshot.Pct24h,
			Price:         ev.Snapshot.Price,
			PrevWatermark: ev.Previous,
		}
		if mark != nil {
			rec.NewWatermark = *mark
		}
		if _, err := s.audit.InsertAlert(ctx, rec); err != nil {
			s.logger.Error().Err(err).Str("symbol", ev.Snapshot.Symbol).Msg("failed to record alert audit row")
		}
	}
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	key := s.cfg.Database.AdvisoryLockKey
	if key == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
