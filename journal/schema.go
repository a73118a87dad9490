package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	script TEXT NOT NULL,
	currency TEXT NOT NULL,
	created DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	trade_num INTEGER NOT NULL,
	bar_index INTEGER NOT NULL,
	type TEXT NOT NULL,
	signal TEXT NOT NULL,
	time DATETIME NOT NULL,
	price REAL NOT NULL,
	contracts REAL NOT NULL,
	profit REAL NOT NULL,
	profit_pct REAL NOT NULL,
	cum_profit REAL NOT NULL,
	cum_profit_pct REAL NOT NULL,
	runup REAL NOT NULL,
	runup_pct REAL NOT NULL,
	drawdown REAL NOT NULL,
	drawdown_pct REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_run ON equity(run_id, trade_num);
`
