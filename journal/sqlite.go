package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, time, symbol, action, shares, price, commission, interest, realized_pl, forced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Time, t.Symbol, t.Action, t.Shares,
		t.Price, t.Commission, t.Interest, t.RealizedPL, t.Forced,
	)
	return err
}

func (j *SQLite) RecordSnapshot(s Snapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO snapshots
		(time, cash, long_value, short_liability, margin_balance, total_assets, net_worth)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.Time, s.Cash, s.LongValue, s.ShortLiability, s.MarginBalance, s.TotalAssets, s.NetWorth,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
