package cmd

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "equitysim",
	Short: "A multi-asset long/short equity backtesting engine",
	Long: `Equitysim simulates long/short equity portfolios over daily bar data.

It provides tools for:
  - Backtesting per-symbol strategies against historical CSV bars
  - Margin-aware short selling with interest and forced liquidation
  - Portfolio constraints: position count, sector exposure, correlation
  - Risk-based position sizing
  - Trade journaling to CSV or SQLite
  - Performance reporting to console, JSON and Excel`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional; real env always wins.
		_ = godotenv.Load()

		zerolog.TimeFieldFormat = time.RFC3339
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
