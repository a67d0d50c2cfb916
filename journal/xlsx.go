package journal

import (
	"fmt"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
)

// Sheet names used by the XLSX journal.
const (
	SheetSummary = "Summary"
	SheetOrders  = "Orders"
	SheetTrades  = "Trades"
	SheetEquity  = "Equity"
)

// XLSX buffers records in memory and writes a workbook on Close.
type XLSX struct {
	path string

	mu        sync.Mutex
	orders    []OrderRecord
	trades    []TradeRecord
	equity    []EquitySnapshot
	summaries []Summary
}

func NewXLSX(path string) *XLSX {
	return &XLSX{path: path}
}

func (x *XLSX) RecordOrder(o OrderRecord) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.orders = append(x.orders, o)
	return nil
}

func (x *XLSX) RecordTrade(t TradeRecord) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.trades = append(x.trades, t)
	return nil
}

func (x *XLSX) RecordEquity(e EquitySnapshot) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.equity = append(x.equity, e)
	return nil
}

func (x *XLSX) RecordSummary(s Summary) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.summaries = append(x.summaries, s)
	return nil
}

// Close writes the workbook.
func (x *XLSX) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	for _, name := range []string{SheetOrders, SheetTrades, SheetEquity} {
		if _, err := wb.NewSheet(name); err != nil {
			return err
		}
	}

	summary := [][]any{{
		"Run ID", "Symbol", "Strategy", "Start", "End", "Bars",
		"Initial Balance", "Final Balance", "Return %", "Drawdown", "Max Drawdown", "Sharpe",
		"Orders", "Fills", "Rejections", "Cancels", "Trades", "Wins", "Losses",
		"MC Runs", "MC Mean Delta",
	}}
	for _, s := range x.summaries {
		var sharpe any = "N/A"
		if s.SharpeOK {
			sharpe = s.Sharpe
		}
		summary = append(summary, []any{
			s.RunID, s.Symbol, s.Strategy, ts(s.Start), ts(s.End), s.Bars,
			s.InitialBalance, s.FinalBalance, s.ReturnPct, s.Drawdown, s.MaxDrawdown, sharpe,
			s.Orders, s.Fills, s.Rejections, s.Cancels, s.Trades, s.Wins, s.Losses,
			s.MonteCarloRuns, s.MonteCarloMeanDelta,
		})
	}

	orders := [][]any{{"Run ID", "Order ID", "Symbol", "Action", "Side", "Price", "Size", "Reason", "Time"}}
	for _, o := range x.orders {
		orders = append(orders, []any{o.RunID, o.OrderID, o.Symbol, o.Action, o.Side, o.Price, o.Size, o.Reason, ts(o.Time)})
	}

	trades := [][]any{{"Run ID", "Trade ID", "Symbol", "Side", "Size", "Entry", "Exit", "Open", "Close", "P/L", "Reason"}}
	for _, t := range x.trades {
		trades = append(trades, []any{
			t.RunID, t.TradeID, t.Symbol, t.Side, t.Size, t.EntryPrice, t.ExitPrice,
			ts(t.OpenTime), ts(t.CloseTime), t.RealizedPL, t.Reason,
		})
	}

	equity := [][]any{{"Run ID", "Symbol", "Time", "Balance", "Cash", "Drawdown", "Open Positions"}}
	for _, e := range x.equity {
		equity = append(equity, []any{e.RunID, e.Symbol, ts(e.Time), e.Balance, e.Cash, e.Drawdown, e.OpenPositions})
	}

	for sheet, rows := range map[string][][]any{
		SheetSummary: summary,
		SheetOrders:  orders,
		SheetTrades:  trades,
		SheetEquity:  equity,
	} {
		if err := writeRows(wb, sheet, rows); err != nil {
			return err
		}
	}

	if err := wb.SaveAs(x.path); err != nil {
		return fmt.Errorf("save %s: %w", x.path, err)
	}
	return nil
}

func writeRows(wb *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func ts(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
