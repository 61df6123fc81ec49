package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"market-movers-alerts/internal/alerting"
	"market-movers-alerts/internal/config"
	"market-movers-alerts/internal/dedup"
	"market-movers-alerts/internal/fetcher"
	"market-movers-alerts/internal/state"
)

type stubProvider struct {
	snaps []fetcher.Snapshot
	err   error
}

func (s *stubProvider) FetchSnapshots(ctx context.Context) ([]fetcher.Snapshot, error) {
	return s.snaps, s.err
}

type stubNotifier struct {
	sent []string
	err  error
}

func (s *stubNotifier) Send(ctx context.Context, text string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, text)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Thresholds: config.ThresholdConfig{UpPct: 100, DownPct: -40},
		Filters:    config.FilterConfig{MinVolume24h: 0},
		Dedup: config.DedupConfig{
			StatePath:       filepath.Join(t.TempDir(), "state.json"),
			ResendDeltaUp:   5,
			ResendDeltaDown: 5,
		},
		Delivery: config.DeliveryConfig{Mode: "digest", MaxItemsPerRun: 60},
	}
}

func newTestService(t *testing.T, cfg *config.Config, provider fetcher.SnapshotFetcher, notifier alerting.Notifier) *Service {
	t.Helper()
	dispatcher := alerting.NewDispatcher(notifier, alerting.Options{
		MaxDownItems:  cfg.Delivery.ResolveMaxDownItems(),
		MaxUpItems:    cfg.Delivery.ResolveMaxUpItems(),
		UpThreshold:   cfg.Thresholds.UpPct,
		DownThreshold: cfg.Thresholds.DownPct,
	}, zerolog.Nop())
	states := state.NewStore(cfg.Dedup.StatePath, zerolog.Nop())
	return New(cfg, provider, states, dispatcher, nil, nil, time.UTC, zerolog.Nop())
}

func marketSnap(symbol string, pct float64) fetcher.Snapshot {
	return fetcher.Snapshot{Symbol: symbol, Price: 2.5, Pct24h: pct, Volume24h: 5e6, MarketCap: 1e8}
}

func TestRunOnceFiresAndPersists(t *testing.T) {
	cfg := testConfig(t)
	notifier := &stubNotifier{}
	provider := &stubProvider{snaps: []fetcher.Snapshot{marketSnap("XYZ", 110), marketSnap("OK", 3)}}

	svc := newTestService(t, cfg, provider, notifier)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	if err := svc.RunOnce(context.Background(), now); err != nil {
		t.Fatalf("run should succeed: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("one digest expected, sent %d", len(notifier.sent))
	}

	st := state.NewStore(cfg.Dedup.StatePath, zerolog.Nop()).Load()
	wm := st.Lookup("2024-05-01", "XYZ")
	if wm.Up == nil || *wm.Up != 110 {
		t.Fatalf("watermark should be persisted after delivery, got %#v", wm.Up)
	}
}

func TestRunOnceSecondPollIsNoOp(t *testing.T) {
	cfg := testConfig(t)
	notifier := &stubNotifier{}
	provider := &stubProvider{snaps: []fetcher.Snapshot{marketSnap("XYZ", 110)}}

	svc := newTestService(t, cfg, provider, notifier)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	if err := svc.RunOnce(context.Background(), now); err != nil {
		t.Fatal(err)
	}
	if err := svc.RunOnce(context.Background(), now.Add(15*time.Minute)); err != nil {
		t.Fatal(err)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("re-polling an unchanged value must not re-alert, sent %d messages", len(notifier.sent))
	}
}

func TestRunOnceFetchFailureIsClean(t *testing.T) {
	cfg := testConfig(t)
	notifier := &stubNotifier{}
	provider := &stubProvider{err: errors.New("all providers down")}

	svc := newTestService(t, cfg, provider, notifier)
	if err := svc.RunOnce(context.Background(), time.Now()); err != nil {
		t.Fatalf("fetch failure must not propagate to the scheduler: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatal("nothing should be sent on fetch failure")
	}

	if st := state.NewStore(cfg.Dedup.StatePath, zerolog.Nop()).Load(); len(st) != 0 {
		t.Fatal("state must stay untouched on fetch failure")
	}
}

func TestRunOnceDeliveryFailureLeavesStateUntouched(t *testing.T) {
	cfg := testConfig(t)
	notifier := &stubNotifier{err: errors.New("telegram down")}
	provider := &stubProvider{snaps: []fetcher.Snapshot{marketSnap("XYZ", 110)}}

	svc := newTestService(t, cfg, provider, notifier)
	if err := svc.RunOnce(context.Background(), time.Now()); err != nil {
		t.Fatalf("delivery failure is logged, not fatal: %v", err)
	}

	if st := state.NewStore(cfg.Dedup.StatePath, zerolog.Nop()).Load(); len(st) != 0 {
		t.Fatal("state must not be saved when nothing was delivered")
	}
}

func TestRunOnceAcrossRestart(t *testing.T) {
	cfg := testConfig(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	first := newTestService(t, cfg, &stubProvider{snaps: []fetcher.Snapshot{marketSnap("XYZ", 110)}}, &stubNotifier{})
	if err := first.RunOnce(context.Background(), now); err != nil {
		t.Fatal(err)
	}

	// Fresh service over the same state file, same day: 112 is inside the
	// resend delta, 116 clears it.
	notifier := &stubNotifier{}
	second := newTestService(t, cfg, &stubProvider{snaps: []fetcher.Snapshot{marketSnap("XYZ", 112)}}, notifier)
	if err := second.RunOnce(context.Background(), now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if len(notifier.sent) != 0 {
		t.Fatal("watermark must survive a restart and suppress the repeat")
	}

	third := newTestService(t, cfg, &stubProvider{snaps: []fetcher.Snapshot{marketSnap("XYZ", 116)}}, notifier)
	if err := third.RunOnce(context.Background(), now.Add(2*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if len(notifier.sent) != 1 {
		t.Fatal("movement beyond the resend delta should re-alert")
	}
}

func TestRunOncePrunesStaleBuckets(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dedup.RetentionDays = 3
	now := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)

	states := state.NewStore(cfg.Dedup.StatePath, zerolog.Nop())
	peak := 150.0
	seed := dedup.State{
		"2024-05-01": {"OLD": dedup.Watermark{Up: &peak}},
		"2024-05-09": {"NEW": dedup.Watermark{Up: &peak}},
	}
	if err := states.Save(seed); err != nil {
		t.Fatal(err)
	}

	svc := newTestService(t, cfg, &stubProvider{snaps: []fetcher.Snapshot{marketSnap("XYZ", 110)}}, &stubNotifier{})
	if err := svc.RunOnce(context.Background(), now); err != nil {
		t.Fatal(err)
	}

	st := states.Load()
	if _, ok := st["2024-05-01"]; ok {
		t.Fatal("bucket beyond the retention horizon should be pruned on save")
	}
	if _, ok := st["2024-05-09"]; !ok {
		t.Fatal("bucket inside the horizon must survive")
	}
	if _, ok := st["2024-05-10"]; !ok {
		t.Fatal("today's bucket should hold the new watermark")
	}
}
