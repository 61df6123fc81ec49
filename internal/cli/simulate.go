package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	simulateSymbol string
	simulatePct    float64
	simulatePrice  float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Drive one synthetic snapshot through the pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateSymbol == "" {
			return errors.New("--symbol is required")
		}
		if simulatePrice <= 0 {
			return errors.New("--price must be greater than 0")
		}
		return getApp().SimulateAlert(cmd.Context(), simulateSymbol, simulatePct, simulatePrice)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateSymbol, "symbol", "", "Asset symbol")
	simulateCmd.Flags().Float64Var(&simulatePct, "pct", 0, "24h change percentage")
	simulateCmd.Flags().Float64Var(&simulatePrice, "price", 0, "Current price in USD")
}
