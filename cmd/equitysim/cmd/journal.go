package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ksfraser/equitysim/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query trade journal data",
	Long: `Query and display trade journal records from a SQLite database.

Subcommands:
  trade  - Get details of a specific trade by ID
  day    - List trades executed on a specific day
  equity - List portfolio snapshots over a date range

Examples:
  equitysim journal trade <trade-id>
  equitysim journal day 2024-01-15
  equitysim journal equity 2024-01-01 2024-03-31`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades executed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalEquityCmd = &cobra.Command{
	Use:   "equity <from YYYY-MM-DD> <to YYYY-MM-DD>",
	Short: "List portfolio snapshots over a date range",
	Args:  cobra.ExactArgs(2),
	RunE:  runJournalEquity,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalEquityCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./equitysim.sqlite", "path to SQLite journal DB")
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	printTrades([]journal.TradeRecord{rec})
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, end, err := dayBounds(args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListTradesBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	printTrades(recs)
	return nil
}

func runJournalEquity(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, _, err := dayBounds(args[0])
	if err != nil {
		return fmt.Errorf("from date: %w", err)
	}
	_, end, err := dayBounds(args[1])
	if err != nil {
		return fmt.Errorf("to date: %w", err)
	}

	snaps, err := j.ListSnapshotsBetween(start, end)
	if err != nil {
		return fmt.Errorf("query snapshots: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Date", "Cash", "Long Value", "Short Liability", "Margin", "Net Worth"})
	for _, s := range snaps {
		t.AppendRow(table.Row{
			s.Time.Format("2006-01-02"),
			fmt.Sprintf("%.2f", s.Cash),
			fmt.Sprintf("%.2f", s.LongValue),
			fmt.Sprintf("%.2f", s.ShortLiability),
			fmt.Sprintf("%.2f", s.MarginBalance),
			fmt.Sprintf("%.2f", s.NetWorth),
		})
	}
	t.Render()
	return nil
}

func printTrades(recs []journal.TradeRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Date", "Symbol", "Action", "Shares", "Price", "Commission", "Interest", "Realized P&L", "Forced"})
	for _, r := range recs {
		forced := ""
		if r.Forced {
			forced = "yes"
		}
		t.AppendRow(table.Row{
			r.TradeID,
			r.Time.Format("2006-01-02"),
			r.Symbol,
			r.Action,
			fmt.Sprintf("%.0f", r.Shares),
			fmt.Sprintf("%.2f", r.Price),
			fmt.Sprintf("%.4f", r.Commission),
			fmt.Sprintf("%.4f", r.Interest),
			fmt.Sprintf("%.2f", r.RealizedPL),
			forced,
		})
	}
	t.Render()
}

func dayBounds(day string) (time.Time, time.Time, error) {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour), nil
}
