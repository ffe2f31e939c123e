package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSV struct {
	trades *csv.Writer
	snaps  *csv.Writer
	tf, sf *os.File
}

func NewCSV(tradesPath, snapshotsPath string) (*CSV, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	sf, err := os.Create(snapshotsPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	sw := csv.NewWriter(sf)

	if err := tw.Write([]string{"trade_id", "time", "symbol", "action", "shares", "price", "commission", "interest", "realized_pl", "forced"}); err != nil {
		return nil, err
	}
	if err := sw.Write([]string{"time", "cash", "long_value", "short_liability", "margin_balance", "total_assets", "net_worth"}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	sw.Flush()
	if err := sw.Error(); err != nil {
		return nil, err
	}

	return &CSV{trades: tw, snaps: sw, tf: tf, sf: sf}, nil
}

func (j *CSV) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.TradeID,
		t.Time.Format(time.RFC3339),
		t.Symbol,
		t.Action,
		f(t.Shares),
		f(t.Price),
		f(t.Commission),
		f(t.Interest),
		f(t.RealizedPL),
		strconv.FormatBool(t.Forced),
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSV) RecordSnapshot(s Snapshot) error {
	err := j.snaps.Write([]string{
		s.Time.Format(time.RFC3339),
		f(s.Cash),
		f(s.LongValue),
		f(s.ShortLiability),
		f(s.MarginBalance),
		f(s.TotalAssets),
		f(s.NetWorth),
	})
	if err != nil {
		return err
	}
	j.snaps.Flush()
	return j.snaps.Error()
}

func (j *CSV) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.snaps.Flush()
	if err := j.snaps.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.sf.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
