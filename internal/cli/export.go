package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"market-movers-alerts/internal/app"
	"market-movers-alerts/internal/state"
)

var (
	exportFrom    string
	exportTo      string
	exportPNGPath string
	exportCSVPath string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export delivered-alert history as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, day := range []string{exportFrom, exportTo} {
			if day == "" {
				continue
			}
			if _, err := time.Parse(state.DayLayout, day); err != nil {
				return fmt.Errorf("invalid day %q (want YYYY-MM-DD): %w", day, err)
			}
		}

		opts := app.ExportOptions{
			FromDay: exportFrom,
			ToDay:   exportTo,
			PNGPath: exportPNGPath,
			CSVPath: exportCSVPath,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Start day (YYYY-MM-DD, inclusive)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "End day (YYYY-MM-DD, inclusive)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
}
