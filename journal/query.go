package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetSummary returns the stored summary for a run.
func (j *SQLite) GetSummary(runID string) (Summary, error) {
	var (
		s      Summary
		sharpe sql.NullFloat64
	)

	row := j.db.QueryRow(`
		SELECT run_id, symbol, strategy, start_time, end_time, bars,
		       initial_balance, final_balance, return_pct, drawdown, max_drawdown, sharpe,
		       orders, fills, rejections, cancels, trades, wins, losses, mc_runs, mc_mean_delta
		FROM runs
		WHERE run_id = ?`, runID)

	err := row.Scan(
		&s.RunID, &s.Symbol, &s.Strategy, &s.Start, &s.End, &s.Bars,
		&s.InitialBalance, &s.FinalBalance, &s.ReturnPct, &s.Drawdown, &s.MaxDrawdown, &sharpe,
		&s.Orders, &s.Fills, &s.Rejections, &s.Cancels, &s.Trades, &s.Wins, &s.Losses,
		&s.MonteCarloRuns, &s.MonteCarloMeanDelta,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Summary{}, fmt.Errorf("run %q not found", runID)
		}
		return Summary{}, err
	}
	s.Sharpe, s.SharpeOK = sharpe.Float64, sharpe.Valid
	return s, nil
}

// ListOrders returns the trade log of a run in insertion order.
func (j *SQLite) ListOrders(runID string) ([]OrderRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, order_id, symbol, action, side, price, size, reason, time
		FROM trade_log
		WHERE run_id = ?
		ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		var o OrderRecord
		if err := rows.Scan(
			&o.RunID, &o.OrderID, &o.Symbol, &o.Action, &o.Side,
			&o.Price, &o.Size, &o.Reason, &o.Time,
		); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTrades returns the closed positions of a run ordered by close time.
func (j *SQLite) ListTrades(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, trade_id, symbol, side, size, entry_price, exit_price, open_time, close_time, realized_pl, reason
		FROM trades
		WHERE run_id = ?
		ORDER BY close_time ASC, trade_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrades(rows)
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, trade_id, symbol, side, size, entry_price, exit_price, open_time, close_time, realized_pl, reason
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrades(rows)
}

// ListEquity returns the equity snapshots of a run in time order.
func (j *SQLite) ListEquity(runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT run_id, symbol, time, balance, cash, drawdown, open_positions
		FROM equity
		WHERE run_id = ?
		ORDER BY time ASC, rowid ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(
			&e.RunID, &e.Symbol, &e.Time, &e.Balance, &e.Cash, &e.Drawdown, &e.OpenPositions,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanTrades(rows *sql.Rows) ([]TradeRecord, error) {
	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.RunID,
			&rec.TradeID,
			&rec.Symbol,
			&rec.Side,
			&rec.Size,
			&rec.EntryPrice,
			&rec.ExitPrice,
			&rec.OpenTime,
			&rec.CloseTime,
			&rec.RealizedPL,
			&rec.Reason,
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
