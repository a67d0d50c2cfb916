// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trade_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	order_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	action TEXT NOT NULL,
	side TEXT NOT NULL,
	price REAL NOT NULL,
	size INTEGER NOT NULL,
	reason TEXT NOT NULL,
	time DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	trade_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	size INTEGER NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	realized_pl REAL NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (run_id, trade_id)
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	time DATETIME NOT NULL,
	balance REAL NOT NULL,
	cash REAL NOT NULL,
	drawdown REAL NOT NULL,
	open_positions INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	strategy TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	bars INTEGER NOT NULL,
	initial_balance REAL NOT NULL,
	final_balance REAL NOT NULL,
	return_pct REAL NOT NULL,
	drawdown REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	sharpe REAL,
	orders INTEGER NOT NULL,
	fills INTEGER NOT NULL,
	rejections INTEGER NOT NULL,
	cancels INTEGER NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	mc_runs INTEGER NOT NULL,
	mc_mean_delta REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trade_log_run ON trade_log(run_id);
CREATE INDEX IF NOT EXISTS idx_equity_run_time ON equity(run_id, time);
`
