package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// Show prints recent delivered alerts from the audit trail.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openAudit(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show alerts")
	}
	if closeStore != nil {
		defer closeStore()
	}

	alerts, err := store.ListRecentAlerts(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Delivered (UTC)\tDay\tSymbol\tDir\tPct24h\tPrice\tPrev\tNew")

	for _, alert := range alerts {
		prev := "-"
		if alert.PrevWatermark != nil {
			prev = fmt.Sprintf("%.2f", *alert.PrevWatermark)
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%.2f\t%.6g\t%s\t%.2f\n",
			alert.CreatedAt.UTC().Format(time.RFC3339),
			alert.DayKey,
			alert.Symbol,
			alert.Direction,
			alert.Pct24h,
			alert.Price,
			prev,
			alert.NewWatermark,
		)
	}

	writer.Flush()
	return nil
}
