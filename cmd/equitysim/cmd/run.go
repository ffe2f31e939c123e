package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ksfraser/equitysim/backtest"
	"github.com/ksfraser/equitysim/config"
	"github.com/ksfraser/equitysim/journal"
	"github.com/ksfraser/equitysim/market"
	"github.com/ksfraser/equitysim/report"
	"github.com/ksfraser/equitysim/strategy"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest from a configuration file",
	Long: `Run a backtest described by a YAML or JSON configuration file.

The config binds strategies to symbols, sets the cost model and portfolio
limits, and points at a directory of per-symbol daily bar CSVs.

Supported strategies:
  - sma-cross:      long/flat SMA crossover (params: fast, slow)
  - momentum-short: short on negative momentum (params: lookback, threshold)
  - buy-hold:       buy on first bar and hold (params: confidence)

Example:
  equitysim run -c simulation.yaml --xlsx results.xlsx`,
	RunE: runBacktest,
}

var (
	runConfigPath string
	runDataDir    string
	runStart      string
	runEnd        string
	runJSONPath   string
	runXLSXPath   string
	runShowTrades bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to config file (or EQUITYSIM_CONFIG)")
	runCmd.Flags().StringVar(&runDataDir, "data", "", "bar CSV directory (overrides config)")
	runCmd.Flags().StringVar(&runStart, "start", "", "simulation start date YYYY-MM-DD (overrides config)")
	runCmd.Flags().StringVar(&runEnd, "end", "", "simulation end date YYYY-MM-DD (overrides config)")
	runCmd.Flags().StringVar(&runJSONPath, "json", "", "write full result JSON to this path")
	runCmd.Flags().StringVar(&runXLSXPath, "xlsx", "", "write Excel workbook to this path")
	runCmd.Flags().BoolVar(&runShowTrades, "trades", false, "print the full trade log")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	if runConfigPath == "" {
		runConfigPath = os.Getenv("EQUITYSIM_CONFIG")
	}
	if runConfigPath == "" {
		return fmt.Errorf("no config: pass --config or set EQUITYSIM_CONFIG")
	}

	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(cfg)

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	coord, err := backtest.New(cfg.Backtest(), j, log.Logger)
	if err != nil {
		return fmt.Errorf("coordinator: %w", err)
	}

	for _, s := range cfg.Strategies {
		fn, err := strategyByName(s.Name, s.Params)
		if err != nil {
			return fmt.Errorf("strategy for %s: %w", s.Symbol, err)
		}
		profile := backtest.Profile{Sector: s.Sector, Industry: s.Industry}
		if err := coord.RegisterStrategy(s.Symbol, fn, profile); err != nil {
			return fmt.Errorf("register %s: %w", s.Symbol, err)
		}
	}

	data, err := market.LoadDir(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}
	log.Info().Str("dir", cfg.Data.Dir).Int("symbols", len(data)).Msg("loaded market data")

	start, end, err := window(cfg.Data)
	if err != nil {
		return err
	}

	res, err := coord.Run(data, start, end)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	report.Render(os.Stdout, res)
	if runShowTrades {
		report.RenderTrades(os.Stdout, res)
	}
	if runJSONPath != "" {
		if err := report.WriteJSON(runJSONPath, res); err != nil {
			return err
		}
		log.Info().Str("path", runJSONPath).Msg("wrote result JSON")
	}
	if runXLSXPath != "" {
		if err := report.WriteWorkbook(runXLSXPath, res); err != nil {
			return err
		}
		log.Info().Str("path", runXLSXPath).Msg("wrote Excel workbook")
	}
	return nil
}

// applyOverrides layers CLI flags and environment on top of the file config.
// Precedence: flag, then environment, then file.
func applyOverrides(cfg *config.Config) {
	if runDataDir == "" {
		runDataDir = os.Getenv("EQUITYSIM_DATA_DIR")
	}
	if runDataDir != "" {
		cfg.Data.Dir = runDataDir
	}
	if runStart != "" {
		cfg.Data.Start = runStart
	}
	if runEnd != "" {
		cfg.Data.End = runEnd
	}
	if cfg.Journal.Type == "sqlite" {
		if db := os.Getenv("EQUITYSIM_DB"); db != "" {
			cfg.Journal.DBPath = db
		}
	}
}

func window(d config.DataConfig) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if d.Start != "" {
		start, err = market.ParseDate(d.Start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("start date: %w", err)
		}
	}
	if d.End != "" {
		end, err = market.ParseDate(d.End)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("end date: %w", err)
		}
	}
	return start, end, nil
}

func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "", "none":
		return journal.Nop{}, nil
	case "csv":
		return journal.NewCSV(jc.TradesFile, jc.SnapshotsFile)
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	default:
		return nil, fmt.Errorf("unknown journal type %q", jc.Type)
	}
}

func strategyByName(name string, params map[string]float64) (strategy.Func, error) {
	p := func(key string, def float64) float64 {
		if v, ok := params[key]; ok {
			return v
		}
		return def
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sma-cross", "smacross":
		return strategy.SMACross(int(p("fast", 10)), int(p("slow", 30))), nil

	case "momentum-short":
		return strategy.MomentumShort(int(p("lookback", 20)), p("threshold", 0.05)), nil

	case "buy-hold", "buyhold":
		return strategy.BuyHold(p("confidence", 0.5)), nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: sma-cross, momentum-short, buy-hold)", name)
	}
}
