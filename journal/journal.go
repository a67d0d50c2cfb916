// Package journal records what happens during a replay: order activity
// (the append-only trade log), closed positions, equity snapshots and the
// final run summary. Every sink implements Journal.
package journal

import (
	"errors"
	"time"
)

// Order actions written to the trade log.
const (
	ActionPlaced   = "PLACED"
	ActionRejected = "REJECTED"
	ActionFilled   = "FILLED"
	ActionCanceled = "CANCELED"
)

// OrderRecord is one row of the append-only trade log.
type OrderRecord struct {
	RunID   string
	OrderID string
	Symbol  string
	Action  string
	Side    string
	Price   float64
	Size    int64
	Reason  string
	Time    time.Time
}

// TradeRecord describes a closed position.
type TradeRecord struct {
	RunID      string
	TradeID    string
	Symbol     string
	Side       string
	Size       int64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL float64
	Reason     string
}

// EquitySnapshot is the portfolio state after one replayed bar.
type EquitySnapshot struct {
	RunID         string
	Symbol        string
	Time          time.Time
	Balance       float64
	Cash          float64
	Drawdown      float64
	OpenPositions int
}

// Summary is the final metrics of one replay.
type Summary struct {
	RunID    string
	Symbol   string
	Strategy string
	Start    time.Time
	End      time.Time
	Bars     int

	InitialBalance float64
	FinalBalance   float64
	ReturnPct      float64
	Drawdown       float64
	MaxDrawdown    float64
	Sharpe         float64
	SharpeOK       bool // false when the ratio is undefined (N/A)

	Orders     int
	Fills      int
	Rejections int
	Cancels    int
	Trades     int
	Wins       int
	Losses     int

	MonteCarloRuns      int
	MonteCarloMeanDelta float64
}

// Journal is the sink for replay events. A failing journal must never stop
// a replay, so callers log errors and carry on.
type Journal interface {
	RecordOrder(OrderRecord) error
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	RecordSummary(Summary) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordOrder(OrderRecord) error     { return nil }
func (Nop) RecordTrade(TradeRecord) error     { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) RecordSummary(Summary) error       { return nil }
func (Nop) Close() error                      { return nil }

// Multi fans out to several journals. Every sink is called even when an
// earlier one fails; the errors are joined.
type Multi []Journal

func (m Multi) RecordOrder(r OrderRecord) error {
	return m.each(func(j Journal) error { return j.RecordOrder(r) })
}

func (m Multi) RecordTrade(r TradeRecord) error {
	return m.each(func(j Journal) error { return j.RecordTrade(r) })
}

func (m Multi) RecordEquity(e EquitySnapshot) error {
	return m.each(func(j Journal) error { return j.RecordEquity(e) })
}

func (m Multi) RecordSummary(s Summary) error {
	return m.each(func(j Journal) error { return j.RecordSummary(s) })
}

func (m Multi) Close() error {
	return m.each(func(j Journal) error { return j.Close() })
}

func (m Multi) each(fn func(Journal) error) error {
	var errs []error
	for _, j := range m {
		if j == nil {
			continue
		}
		if err := fn(j); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
