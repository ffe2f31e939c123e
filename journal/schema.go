package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	action TEXT NOT NULL,
	shares REAL NOT NULL,
	price REAL NOT NULL,
	commission REAL NOT NULL,
	interest REAL NOT NULL,
	realized_pl REAL NOT NULL,
	forced INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_time ON trades(time);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);

CREATE TABLE IF NOT EXISTS snapshots (
	time DATETIME NOT NULL,
	cash REAL NOT NULL,
	long_value REAL NOT NULL,
	short_liability REAL NOT NULL,
	margin_balance REAL NOT NULL,
	total_assets REAL NOT NULL,
	net_worth REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_time ON snapshots(time);
`
