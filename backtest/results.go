package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/rustyeddy/barreplay/journal"
	"github.com/rustyeddy/barreplay/risk"
	"github.com/rustyeddy/barreplay/sim"
	"github.com/rustyeddy/barreplay/strategy"
)

// Result summarizes one replay.
type Result struct {
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
	SharpeOK       bool

	Orders     int
	Fills      int
	Rejections int
	Cancels    int
	Trades     int
	Wins       int
	Losses     int

	DataErrors int
	Suppressed int

	EquityCurve []float64
	Closed      []sim.Position

	MonteCarlo *MonteCarloResult
}

func (r *Result) collect(p *sim.Portfolio, rm *risk.Manager, om *sim.OrderManager, s *strategy.Strategy) {
	r.FinalBalance = p.Balance().InexactFloat64()
	if r.InitialBalance != 0 {
		r.ReturnPct = (r.FinalBalance - r.InitialBalance) / r.InitialBalance * 100
	}
	r.Drawdown = rm.Drawdown()
	r.MaxDrawdown = rm.MaxDrawdown()
	r.Sharpe, r.SharpeOK = rm.SharpeRatio()
	r.EquityCurve = rm.EquityCurve()

	counts := om.Counts()
	r.Orders = len(om.Orders())
	r.Fills = counts[sim.StatusFilled]
	r.Rejections = counts[sim.StatusRejected]
	r.Cancels = counts[sim.StatusCanceled]

	r.Closed = p.ClosedPositions()
	r.Trades = len(r.Closed)
	for _, pos := range r.Closed {
		switch pl := pos.RealizedPL(); {
		case pl > 0:
			r.Wins++
		case pl < 0:
			r.Losses++
		}
	}
	r.Suppressed = s.Suppressed()
}

// Summary converts the result into the journal's summary record.
func (r Result) Summary() journal.Summary {
	s := journal.Summary{
		RunID:          r.RunID,
		Symbol:         r.Symbol,
		Strategy:       r.Strategy,
		Start:          r.Start,
		End:            r.End,
		Bars:           r.Bars,
		InitialBalance: r.InitialBalance,
		FinalBalance:   r.FinalBalance,
		ReturnPct:      r.ReturnPct,
		Drawdown:       r.Drawdown,
		MaxDrawdown:    r.MaxDrawdown,
		Sharpe:         r.Sharpe,
		SharpeOK:       r.SharpeOK,
		Orders:         r.Orders,
		Fills:          r.Fills,
		Rejections:     r.Rejections,
		Cancels:        r.Cancels,
		Trades:         r.Trades,
		Wins:           r.Wins,
		Losses:         r.Losses,
	}
	if r.MonteCarlo != nil {
		s.MonteCarloRuns = r.MonteCarlo.Runs
		s.MonteCarloMeanDelta = r.MonteCarlo.MeanDelta
	}
	return s
}

// TradeRecords returns the closed positions as journal trade records.
func (r Result) TradeRecords() []journal.TradeRecord {
	out := make([]journal.TradeRecord, 0, len(r.Closed))
	for _, p := range r.Closed {
		out = append(out, journal.TradeRecord{
			RunID:      r.RunID,
			TradeID:    p.Order.ID,
			Symbol:     p.Order.Symbol,
			Side:       string(p.Order.Side),
			Size:       p.Order.Size,
			EntryPrice: p.FillPrice,
			ExitPrice:  p.ClosePrice,
			OpenTime:   p.OpenTime,
			CloseTime:  p.CloseTime,
			RealizedPL: p.RealizedPL(),
			Reason:     p.CloseReason,
		})
	}
	return out
}

func sharpeString(r Result) string {
	if !r.SharpeOK {
		return "N/A"
	}
	return fmt.Sprintf("%.4f", r.Sharpe)
}

// PrintResult renders a result as a table.
func PrintResult(w io.Writer, r Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("BACKTEST %s (%s)", r.Symbol, r.Strategy))
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Run ID", r.RunID},
		{"Start", r.Start.Format(time.RFC3339)},
		{"End", r.End.Format(time.RFC3339)},
		{"Bars", r.Bars},
	})
	t.AppendSeparator()

	t.AppendRows([]table.Row{
		{"Initial Balance", fmt.Sprintf("%.2f", r.InitialBalance)},
		{"Final Balance", fmt.Sprintf("%.2f", r.FinalBalance)},
		{"Return", fmt.Sprintf("%.2f%%", r.ReturnPct)},
		{"Drawdown", fmt.Sprintf("%.2f%%", r.Drawdown*100)},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", r.MaxDrawdown*100)},
		{"Sharpe", sharpeString(r)},
	})
	t.AppendSeparator()

	t.AppendRows([]table.Row{
		{"Orders", r.Orders},
		{"Fills", r.Fills},
		{"Rejections", r.Rejections},
		{"Cancels", r.Cancels},
		{"Trades", fmt.Sprintf("%d (%d won, %d lost)", r.Trades, r.Wins, r.Losses)},
		{"Data Errors", r.DataErrors},
		{"Suppressed Entries", r.Suppressed},
	})

	if mc := r.MonteCarlo; mc != nil {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"MC Runs", mc.Runs},
			{"MC Mean Delta", fmt.Sprintf("%.2f", mc.MeanDelta)},
			{"MC Min / Max", fmt.Sprintf("%.2f / %.2f", mc.MinDelta, mc.MaxDelta)},
			{"MC Std Dev", fmt.Sprintf("%.2f", mc.StdDelta)},
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, Align: text.AlignRight},
	})
	t.Render()
}

// PrintBatch renders one row per symbol.
func PrintBatch(w io.Writer, results []SymbolResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("BATCH")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Symbol", "Final Balance", "Return", "Max DD", "Sharpe", "Trades", "Error"})

	for _, sr := range results {
		if sr.Err != nil {
			t.AppendRow(table.Row{sr.Symbol, "-", "-", "-", "-", "-", sr.Err.Error()})
			continue
		}
		r := sr.Result
		t.AppendRow(table.Row{
			sr.Symbol,
			fmt.Sprintf("%.2f", r.FinalBalance),
			fmt.Sprintf("%.2f%%", r.ReturnPct),
			fmt.Sprintf("%.2f%%", r.MaxDrawdown*100),
			sharpeString(r),
			r.Trades,
			"",
		})
	}
	t.Render()
}
