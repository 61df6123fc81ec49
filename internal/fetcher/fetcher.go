package fetcher

import (
	"context"
	"math"
)

// Snapshot is one asset's market state at poll time. Numeric fields that the
// provider did not report are NaN, so downstream filters can reject them
// explicitly instead of treating them as zero.
type Snapshot struct {
	Symbol    string
	Price     float64
	Pct24h    float64
	Volume24h float64
	MarketCap float64
}

// SnapshotFetcher retrieves the current market snapshot list from a provider.
type SnapshotFetcher interface {
	FetchSnapshots(ctx context.Context) ([]Snapshot, error)
}

func floatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
