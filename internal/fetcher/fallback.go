package fetcher

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Fallback tries a primary provider and falls back to a secondary on any
// failure. Used for the "auto" data source.
type Fallback struct {
	primary   SnapshotFetcher
	secondary SnapshotFetcher
	logger    zerolog.Logger
}

// NewFallback wires two providers into a fallback chain.
func NewFallback(primary, secondary SnapshotFetcher, logger zerolog.Logger) *Fallback {
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With().Str("component", "fallback_fetcher").Logger(),
	}
}

// FetchSnapshots returns the primary result, or the secondary's when the
// primary fails. Both failing yields a combined error.
func (f *Fallback) FetchSnapshots(ctx context.Context) ([]Snapshot, error) {
	snaps, err := f.primary.FetchSnapshots(ctx)
	if err == nil {
		return snaps, nil
	}

	f.logger.Warn().Err(err).Msg("primary provider failed; trying fallback")

	snaps, secErr := f.secondary.FetchSnapshots(ctx)
	if secErr != nil {
		return nil, fmt.Errorf("all providers failed: primary: %v; fallback: %w", err, secErr)
	}
	return snaps, nil
}

var _ SnapshotFetcher = (*Fallback)(nil)
