package app

import (
	"context"
	"math"
	"strings"
	"time"

	"market-movers-alerts/internal/fetcher"
)

// SimulateAlert drives one synthetic snapshot through the real pipeline:
// engine, state file, and delivery all behave as in a live run. Liquidity
// and market-cap filters are bypassed since the synthetic asset has no
// volume or cap data.
func (a *App) SimulateAlert(ctx context.Context, symbol string, pct, price float64) error {
	cfg := *a.Config
	cfg.Filters.MinVolume24h = 0
	cfg.Filters.MinMarketCap = 0
	cfg.Filters.MaxMarketCap = 0
	sim := &App{Config: &cfg, Logger: a.Logger}

	svc, closer, err := sim.newServiceWith(ctx, newStaticFetcher(symbol, pct, price))
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	return svc.RunOnce(ctx, time.Now())
}

type staticFetcher struct {
	snap fetcher.Snapshot
}

func (s *staticFetcher) FetchSnapshots(ctx context.Context) ([]fetcher.Snapshot, error) {
	return []fetcher.Snapshot{s.snap}, nil
}

func newStaticFetcher(symbol string, pct, price float64) *staticFetcher {
	return &staticFetcher{snap: fetcher.Snapshot{
		Symbol:    strings.ToUpper(symbol),
		Price:     price,
		Pct24h:    pct,
		Volume24h: math.NaN(),
		MarketCap: math.NaN(),
	}}
}

var _ fetcher.SnapshotFetcher = (*staticFetcher)(nil)
