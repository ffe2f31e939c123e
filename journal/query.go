package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`
		SELECT trade_id, time, symbol, action, shares, price, commission, interest, realized_pl, forced
		FROM trades
		WHERE trade_id = ?`, tradeID)

	var rec TradeRecord
	err := row.Scan(
		&rec.TradeID,
		&rec.Time,
		&rec.Symbol,
		&rec.Action,
		&rec.Shares,
		&rec.Price,
		&rec.Commission,
		&rec.Interest,
		&rec.RealizedPL,
		&rec.Forced,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesBetween returns trades executed within [start, end), oldest first.
func (j *SQLite) ListTradesBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, time, symbol, action, shares, price, commission, interest, realized_pl, forced
		FROM trades
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.TradeID,
			&rec.Time,
			&rec.Symbol,
			&rec.Action,
			&rec.Shares,
			&rec.Price,
			&rec.Commission,
			&rec.Interest,
			&rec.RealizedPL,
			&rec.Forced,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSnapshotsBetween returns portfolio snapshots within [start, end), oldest first.
func (j *SQLite) ListSnapshotsBetween(start, end time.Time) ([]Snapshot, error) {
	rows, err := j.db.Query(`
		SELECT time, cash, long_value, short_liability, margin_balance, total_assets, net_worth
		FROM snapshots
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(
			&s.Time,
			&s.Cash,
			&s.LongValue,
			&s.ShortLiability,
			&s.MarginBalance,
			&s.TotalAssets,
			&s.NetWorth,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
