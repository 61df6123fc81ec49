package cli

import (
	"github.com/spf13/cobra"
)

var pruneDays int

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop stale day buckets from the state file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Prune(cmd.Context(), pruneDays)
	},
}

func init() {
	pruneCmd.Flags().IntVar(&pruneDays, "days", 0, "Retention horizon in days (defaults to dedup.retention_days)")
}
