package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ksfraser/equitysim/backtest"
)

// WriteWorkbook exports the result as an Excel workbook with Summary, Trades
// and Equity sheets.
func WriteWorkbook(path string, res *backtest.Result) error {
	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName(fx.GetSheetName(0), "Summary")

	bold, err := fx.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("workbook style: %w", err)
	}

	if err := writeSummary(fx, res, bold); err != nil {
		return err
	}
	if err := writeTrades(fx, res, bold); err != nil {
		return err
	}
	if err := writeEquity(fx, res, bold); err != nil {
		return err
	}

	if err := fx.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeSummary(fx *excelize.File, res *backtest.Result, bold int) error {
	rows := [][]any{
		{"Start", res.Period.Start.Format("2006-01-02")},
		{"End", res.Period.End.Format("2006-01-02")},
		{"Trading days", res.Period.Days},
		{"Initial capital", res.InitialCapital},
		{"Final value", res.FinalValue},
		{"Total return", res.Metrics.TotalReturn},
		{"Annualized return", res.Metrics.AnnualizedReturn},
		{"Volatility", res.Metrics.Volatility},
		{"Sharpe ratio", res.Metrics.SharpeRatio},
		{"Sortino ratio", res.Metrics.SortinoRatio},
		{"Max drawdown", res.Metrics.MaxDrawdown},
		{"Win rate", res.Metrics.WinRate},
		{"Signals generated", res.Signals.Generated},
		{"Signals executed", res.Signals.Executed},
		{"Signals rejected", res.Signals.Rejected},
		{"Margin calls", len(res.MarginCalls)},
	}
	for i, row := range rows {
		label, _ := excelize.CoordinatesToCellName(1, i+1)
		value, _ := excelize.CoordinatesToCellName(2, i+1)
		if err := fx.SetCellValue("Summary", label, row[0]); err != nil {
			return err
		}
		if err := fx.SetCellValue("Summary", value, row[1]); err != nil {
			return err
		}
		fx.SetCellStyle("Summary", label, label, bold)
	}
	return nil
}

func writeTrades(fx *excelize.File, res *backtest.Result, bold int) error {
	if _, err := fx.NewSheet("Trades"); err != nil {
		return err
	}

	headers := []string{"Date", "Symbol", "Action", "Shares", "Price", "Commission", "Interest", "Realized P&L", "Forced"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := fx.SetCellValue("Trades", cell, h); err != nil {
			return err
		}
		fx.SetCellStyle("Trades", cell, cell, bold)
	}

	for r, tr := range res.Trades {
		row := r + 2
		values := []any{
			tr.Time.Format("2006-01-02"),
			tr.Symbol,
			tr.Action,
			tr.Shares,
			tr.Price,
			tr.Commission,
			tr.Interest,
			tr.RealizedPL,
			tr.Forced,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			if err := fx.SetCellValue("Trades", cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeEquity(fx *excelize.File, res *backtest.Result, bold int) error {
	if _, err := fx.NewSheet("Equity"); err != nil {
		return err
	}

	headers := []string{"Date", "Cash", "Long Value", "Short Liability", "Margin", "Total Assets", "Net Worth"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := fx.SetCellValue("Equity", cell, h); err != nil {
			return err
		}
		fx.SetCellStyle("Equity", cell, cell, bold)
	}

	for r, pt := range res.PortfolioValues {
		row := r + 2
		values := []any{
			pt.Date.Format("2006-01-02"),
			pt.Cash,
			pt.LongValue,
			pt.ShortLiability,
			pt.MarginBalance,
			pt.TotalAssets,
			pt.NetWorth,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			if err := fx.SetCellValue("Equity", cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}
