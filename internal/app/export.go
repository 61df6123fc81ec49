package app

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"market-movers-alerts/internal/state"
	"market-movers-alerts/internal/storage"
)

// Export renders the delivered-alert history as CSV and/or a PNG chart of
// per-day up/down counts.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	store, closeStore, err := a.openAudit(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	toDay := opts.ToDay
	if toDay == "" {
		toDay = time.Now().UTC().Format(state.DayLayout)
	}
	fromDay := opts.FromDay
	if fromDay == "" {
		to, err := time.Parse(state.DayLayout, toDay)
		if err != nil {
			return err
		}
		fromDay = to.AddDate(0, 0, -a.Config.Export.MaxDays).Format(state.DayLayout)
	}
	if fromDay > toDay {
		return errors.New("--from must not be after --to")
	}

	counts, err := store.CountAlertsByDay(ctx, fromDay, toDay)
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		a.Logger.Info().Msg("no alerts found for export window")
		return nil
	}

	a.Logger.Info().Int("days", len(counts)).Str("from", fromDay).Str("to", toDay).Msg("exporting alert history")

	if opts.CSVPath != "" {
		if err := writeCountsCSV(opts.CSVPath, counts); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeCountsPNG(opts.PNGPath, counts); err != nil {
			return err
		}
	}

	return nil
}

func writeCountsCSV(path string, counts []storage.DayCount) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"day", "up_alerts", "down_alerts"}); err != nil {
		return err
	}
	for _, dc := range counts {
		record := []string{
			dc.DayKey,
			strconv.FormatInt(dc.Ups, 10),
			strconv.FormatInt(dc.Downs, 10),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeCountsPNG(path string, counts []storage.DayCount) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(counts))
	ups := make([]float64, len(counts))
	downs := make([]float64, len(counts))

	for i, dc := range counts {
		day, err := time.Parse(state.DayLayout, dc.DayKey)
		if err != nil {
			return err
		}
		x[i] = day
		ups[i] = float64(dc.Ups)
		downs[i] = float64(dc.Downs)
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Alerts per day",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Up alerts",
				XValues: x,
				YValues: ups,
			},
			chart.TimeSeries{
				Name:    "Down alerts",
				XValues: x,
				YValues: downs,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
