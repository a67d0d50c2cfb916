package journal

import (
	"encoding/csv"
	"errors"
	"os"
	"strconv"
	"time"
)

// CSV writes the trade log, closed trades and equity snapshots to three
// CSV files. Summaries are not written; use the SQLite or XLSX journal for
// those.
type CSV struct {
	orders, trades, equity *csv.Writer
	files                  []*os.File
}

func NewCSV(ordersPath, tradesPath, equityPath string) (*CSV, error) {
	j := &CSV{}

	open := func(path string, header []string) (*csv.Writer, error) {
		fh, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		j.files = append(j.files, fh)

		w := csv.NewWriter(fh)
		if err := w.Write(header); err != nil {
			return nil, err
		}
		w.Flush()
		return w, w.Error()
	}

	var err error
	if j.orders, err = open(ordersPath, []string{"run_id", "order_id", "symbol", "action", "side", "price", "size", "reason", "time"}); err != nil {
		return nil, errors.Join(err, j.closeFiles())
	}
	if j.trades, err = open(tradesPath, []string{"run_id", "trade_id", "symbol", "side", "size", "entry_price", "exit_price", "open_time", "close_time", "realized_pl", "reason"}); err != nil {
		return nil, errors.Join(err, j.closeFiles())
	}
	if j.equity, err = open(equityPath, []string{"run_id", "symbol", "time", "balance", "cash", "drawdown", "open_positions"}); err != nil {
		return nil, errors.Join(err, j.closeFiles())
	}
	return j, nil
}

func (j *CSV) RecordOrder(o OrderRecord) error {
	return write(j.orders, []string{
		o.RunID,
		o.OrderID,
		o.Symbol,
		o.Action,
		o.Side,
		f(o.Price),
		strconv.FormatInt(o.Size, 10),
		o.Reason,
		o.Time.Format(time.RFC3339),
	})
}

func (j *CSV) RecordTrade(t TradeRecord) error {
	return write(j.trades, []string{
		t.RunID,
		t.TradeID,
		t.Symbol,
		t.Side,
		strconv.FormatInt(t.Size, 10),
		f(t.EntryPrice),
		f(t.ExitPrice),
		t.OpenTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		f(t.RealizedPL),
		t.Reason,
	})
}

func (j *CSV) RecordEquity(e EquitySnapshot) error {
	return write(j.equity, []string{
		e.RunID,
		e.Symbol,
		e.Time.Format(time.RFC3339),
		f(e.Balance),
		f(e.Cash),
		f(e.Drawdown),
		strconv.Itoa(e.OpenPositions),
	})
}

func (j *CSV) RecordSummary(Summary) error { return nil }

func (j *CSV) Close() error {
	var errs []error
	for _, w := range []*csv.Writer{j.orders, j.trades, j.equity} {
		w.Flush()
		errs = append(errs, w.Error())
	}
	errs = append(errs, j.closeFiles())
	return errors.Join(errs...)
}

func (j *CSV) closeFiles() error {
	var errs []error
	for _, fh := range j.files {
		errs = append(errs, fh.Close())
	}
	j.files = nil
	return errors.Join(errs...)
}

func write(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
