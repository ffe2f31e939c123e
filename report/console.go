// Package report renders backtest results: console tables, JSON dumps, and
// Excel workbooks.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ksfraser/equitysim/backtest"
)

// Render writes the run summary to w: period, capital, performance metrics
// and signal statistics.
func Render(w io.Writer, res *backtest.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Backtest %s — %s (%d trading days)",
		res.Period.Start.Format("2006-01-02"),
		res.Period.End.Format("2006-01-02"),
		res.Period.Days)

	t.AppendRows([]table.Row{
		{"Initial capital", money(res.InitialCapital)},
		{"Final value", money(res.FinalValue)},
		{"Total return", pct(res.Metrics.TotalReturn)},
		{"Annualized return", pct(res.Metrics.AnnualizedReturn)},
		{"Volatility", pct(res.Metrics.Volatility)},
		{"Sharpe ratio", num(res.Metrics.SharpeRatio)},
		{"Sortino ratio", num(res.Metrics.SortinoRatio)},
		{"Max drawdown", pct(res.Metrics.MaxDrawdown)},
		{"Win rate", pct(res.Metrics.WinRate)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Signals generated", res.Signals.Generated},
		{"Signals executed", res.Signals.Executed},
		{"Signals rejected", res.Signals.Rejected},
		{"Trades", len(res.Trades)},
		{"Margin calls", len(res.MarginCalls)},
		{"Rebalance drift events", len(res.Rebalances)},
	})
	t.Render()

	if len(res.Signals.RejectionReasons) > 0 {
		rt := table.NewWriter()
		rt.SetOutputMirror(w)
		rt.SetStyle(table.StyleRounded)
		rt.SetTitle("Rejections")
		rt.AppendHeader(table.Row{"Reason", "Count"})
		for _, reason := range sortedKeys(res.Signals.RejectionReasons) {
			rt.AppendRow(table.Row{reason, res.Signals.RejectionReasons[reason]})
		}
		rt.Render()
	}
}

// RenderTrades writes the full trade log to w.
func RenderTrades(w io.Writer, res *backtest.Result) {
	if len(res.Trades) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Trades")
	t.AppendHeader(table.Row{"Date", "Symbol", "Action", "Shares", "Price", "Commission", "Realized P&L", "Forced"})
	for _, tr := range res.Trades {
		forced := ""
		if tr.Forced {
			forced = "yes"
		}
		t.AppendRow(table.Row{
			tr.Time.Format("2006-01-02"),
			tr.Symbol,
			tr.Action,
			fmt.Sprintf("%.0f", tr.Shares),
			money(tr.Price),
			money(tr.Commission),
			money(tr.RealizedPL),
			forced,
		})
	}
	t.Render()
}

func money(v float64) string { return fmt.Sprintf("$%.2f", v) }
func pct(v float64) string   { return fmt.Sprintf("%.2f%%", v*100) }
func num(v float64) string   { return fmt.Sprintf("%.2f", v) }

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
