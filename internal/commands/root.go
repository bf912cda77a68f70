package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stock-market",
	Short: "Market data extraction pipeline",
	Long: `Extracts time-series market data (stocks, forex, crypto) and reference
metadata from provider HTTP APIs, normalizes the responses into canonical
quote tables and persists them into MySQL under per-instrument tables.

Examples:
  stock-market extract --type stock --symbols AAPL,TSLA --period daily --from 2023-01-01 --until 2023-12-31
  stock-market extract --type crypto --symbols BTC --market CHF --period daily
  stock-market listings --groups nasdaq,other,status
  stock-market migrate`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
