package journal

import (
	"log/slog"

	"github.com/rustyeddy/barreplay/internal/logging"
)

// Logger writes every record as a structured log line.
type Logger struct {
	log *slog.Logger
}

func NewLogger(l *slog.Logger) *Logger {
	return &Logger{log: logging.OrDiscard(l).With("component", "journal")}
}

func (l *Logger) RecordOrder(o OrderRecord) error {
	l.log.Debug("order",
		"run_id", o.RunID, "order_id", o.OrderID, "symbol", o.Symbol,
		"action", o.Action, "side", o.Side, "price", o.Price, "size", o.Size, "reason", o.Reason,
	)
	return nil
}

func (l *Logger) RecordTrade(t TradeRecord) error {
	l.log.Info("trade closed",
		"run_id", t.RunID, "trade_id", t.TradeID, "symbol", t.Symbol, "side", t.Side, "size", t.Size,
		"entry", t.EntryPrice, "exit", t.ExitPrice, "pl", t.RealizedPL, "reason", t.Reason,
	)
	return nil
}

func (l *Logger) RecordEquity(e EquitySnapshot) error {
	l.log.Debug("equity", "symbol", e.Symbol, "time", e.Time, "balance", e.Balance, "drawdown", e.Drawdown)
	return nil
}

func (l *Logger) RecordSummary(s Summary) error {
	attrs := []any{
		"run_id", s.RunID, "symbol", s.Symbol, "strategy", s.Strategy, "bars", s.Bars,
		"final_balance", s.FinalBalance, "return_pct", s.ReturnPct, "max_drawdown", s.MaxDrawdown,
		"trades", s.Trades,
	}
	if s.SharpeOK {
		attrs = append(attrs, "sharpe", s.Sharpe)
	} else {
		attrs = append(attrs, "sharpe", "N/A")
	}
	l.log.Info("run complete", attrs...)
	return nil
}

func (l *Logger) Close() error { return nil }
