package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	logLevel string
	env      string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quandl",
	Short: "Daily stock-price statistics from Quandl datasets",
	Long: `Quandl statistics CLI

Fetches daily price rows for one dataset (default FSE/AFX_X) and computes
min/max open, largest daily range, largest close-to-close rise, average and
median traded volume.

Usage:
  go run ./cmd/quandl [command]

Examples:
  go run ./cmd/quandl stats --start_date 2017-01-01 --end_date 2017-12-31
  go run ./cmd/quandl summary --ticker AFX_X
  go run ./cmd/quandl api
  go run ./cmd/quandl scheduler start
  go run ./cmd/quandl test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "", "log level override (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
}
