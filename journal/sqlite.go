package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite persists the journal in a SQLite database.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordOrder(o OrderRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trade_log
		(run_id, order_id, symbol, action, side, price, size, reason, time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.RunID, o.OrderID, o.Symbol, o.Action, o.Side,
		o.Price, o.Size, o.Reason, o.Time,
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, trade_id, symbol, side, size, entry_price, exit_price, open_time, close_time, realized_pl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.TradeID, t.Symbol, t.Side, t.Size, t.EntryPrice,
		t.ExitPrice, t.OpenTime, t.CloseTime, t.RealizedPL, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, symbol, time, balance, cash, drawdown, open_positions)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Symbol, e.Time, e.Balance, e.Cash, e.Drawdown, e.OpenPositions,
	)
	return err
}

func (j *SQLite) RecordSummary(s Summary) error {
	var sharpe sql.NullFloat64
	if s.SharpeOK {
		sharpe = sql.NullFloat64{Float64: s.Sharpe, Valid: true}
	}

	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO runs
		(run_id, symbol, strategy, start_time, end_time, bars,
		 initial_balance, final_balance, return_pct, drawdown, max_drawdown, sharpe,
		 orders, fills, rejections, cancels, trades, wins, losses, mc_runs, mc_mean_delta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.RunID, s.Symbol, s.Strategy, s.Start, s.End, s.Bars,
		s.InitialBalance, s.FinalBalance, s.ReturnPct, s.Drawdown, s.MaxDrawdown, sharpe,
		s.Orders, s.Fills, s.Rejections, s.Cancels, s.Trades, s.Wins, s.Losses,
		s.MonteCarloRuns, s.MonteCarloMeanDelta,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
