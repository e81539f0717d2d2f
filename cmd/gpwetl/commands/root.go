package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gpwetl",
	Short: "GPW daily price ETL pipeline",
	Long: `gpwetl - Warsaw Stock Exchange daily price pipeline

Downloads daily OHLCV history from Stooq, resolves the execution mode and
per-instrument extraction strategy, and loads the normalized schema with a
full job audit trail.

Usage:
  go run ./cmd/gpwetl [command]

Examples:
  go run ./cmd/gpwetl run
  go run ./cmd/gpwetl run --date 2024-04-02 --mode backfill
  go run ./cmd/gpwetl backfill --from 2024-01-01 --to 2024-03-31
  go run ./cmd/gpwetl scheduler start
  go run ./cmd/gpwetl status`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
