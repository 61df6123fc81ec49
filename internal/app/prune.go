package app

import (
	"context"
	"errors"
	"time"

	"market-movers-alerts/internal/state"
)

// Prune applies the retention horizon to the state file without fetching or
// alerting, and optionally trims the audit trail to match.
func (a *App) Prune(ctx context.Context, retentionDays int) error {
	if retentionDays <= 0 {
		retentionDays = a.Config.Dedup.RetentionDays
	}
	if retentionDays <= 0 {
		return errors.New("retention horizon not configured; pass --days or set dedup.retention_days")
	}

	loc, err := a.Config.Location()
	if err != nil {
		return err
	}
	today := time.Now().In(loc)

	states := state.NewStore(a.Config.Dedup.StatePath, a.Logger)
	st := states.Load()
	removed := states.Prune(st, today, retentionDays)
	if removed == 0 {
		a.Logger.Info().Msg("nothing to prune")
	} else if err := states.Save(st); err != nil {
		return err
	}

	if a.Config.Database.DSN != "" {
		store, closeStore, err := a.openAudit(ctx)
		if err != nil {
			return err
		}
		if closeStore != nil {
			defer closeStore()
		}
		cutoff := today.AddDate(0, 0, -retentionDays)
		if err := store.DeleteAlertsBefore(ctx, cutoff); err != nil {
			return err
		}
	}

	return nil
}
