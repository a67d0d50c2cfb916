package backtest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/barreplay/indicators"
	"github.com/rustyeddy/barreplay/journal"
	"github.com/rustyeddy/barreplay/market"
	"github.com/rustyeddy/barreplay/strategy"
)

var t0 = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

// series builds a deterministic oscillating trend.
func series(symbol string, n int) []market.Bar {
	out := make([]market.Bar, n)
	for i := range out {
		c := 100 + 10*math.Sin(float64(i)/6) + float64(i)*0.1
		out[i] = market.Bar{
			Symbol: symbol,
			Time:   t0.Add(time.Duration(i) * 24 * time.Hour),
			Open:   c - 0.3,
			High:   c + 1.5,
			Low:    c - 1.5,
			Close:  c,
			Volume: 1000,
		}
	}
	return out
}

// sign predicts from the sign of its single feature.
type sign struct{ col string }

func (s sign) Name() string { return "sign" }

func (s sign) Features() []string { return []string{s.col} }

func (s sign) Predict(x []float64) (strategy.Class, error) {
	switch {
	case x[0] > 0:
		return strategy.Long, nil
	case x[0] < 0:
		return strategy.Short, nil
	}
	return strategy.Hold, nil
}

// constFeatures sets fixed feature values on every bar.
type constFeatures market.Features

func (c constFeatures) Augment(bars []market.Bar) ([]market.Bar, error) {
	out := make([]market.Bar, len(bars))
	for i, b := range bars {
		f := market.Features{}
		for k, v := range c {
			f[k] = v
		}
		out[i] = b.WithFeatures(f)
	}
	return out, nil
}

type dropLast struct{}

func (dropLast) Augment(bars []market.Bar) ([]market.Bar, error) {
	return bars[:len(bars)-1], nil
}

type failing struct{}

func (failing) Augment([]market.Bar) ([]market.Bar, error) {
	return nil, errors.New("boom")
}

// reversed returns a copy of bars in the opposite order.
func reversed(bars []market.Bar) []market.Bar {
	out := make([]market.Bar, len(bars))
	for i, b := range bars {
		out[len(bars)-1-i] = b
	}
	return out
}

// brokenJournal fails every write.
type brokenJournal struct{}

var errDiskFull = errors.New("disk full")

func (brokenJournal) RecordOrder(journal.OrderRecord) error     { return errDiskFull }
func (brokenJournal) RecordTrade(journal.TradeRecord) error     { return errDiskFull }
func (brokenJournal) RecordEquity(journal.EquitySnapshot) error { return errDiskFull }
func (brokenJournal) RecordSummary(journal.Summary) error       { return errDiskFull }
func (brokenJournal) Close() error                              { return errDiskFull }

type equityLog struct {
	journal.Nop
	equity  []journal.EquitySnapshot
	summary []journal.Summary
}

func (l *equityLog) RecordEquity(e journal.EquitySnapshot) error {
	l.equity = append(l.equity, e)
	return nil
}

func (l *equityLog) RecordSummary(s journal.Summary) error {
	l.summary = append(l.summary, s)
	return nil
}

func newRunner(t *testing.T) *Runner {
	t.Helper()

	p, err := indicators.NewProvider(indicators.DefaultConfig())
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.InitialCash = decimal.NewFromInt(100000)
	return &Runner{
		Predictor: strategy.EMACross{Band: 0.001},
		Features:  p,
		Options:   opts,
	}
}

func TestRunDeterministic(t *testing.T) {
	t.Parallel()

	bars := series("AAA", 250)

	a, err := newRunner(t).Run(context.Background(), "AAA", bars)
	require.NoError(t, err)
	b, err := newRunner(t).Run(context.Background(), "AAA", bars)
	require.NoError(t, err)

	assert.Greater(t, a.Orders, 0, "the series should trigger orders")
	assert.Equal(t, a.FinalBalance, b.FinalBalance)
	assert.Equal(t, a.EquityCurve, b.EquityCurve)
	assert.Equal(t, a.Trades, b.Trades)
}

func TestRunResultShape(t *testing.T) {
	t.Parallel()

	bars := series("AAA", 120)
	log := &equityLog{}
	r := newRunner(t)
	r.Journal = log

	res, err := r.Run(context.Background(), "AAA", bars)
	require.NoError(t, err)

	assert.Equal(t, 120, res.Bars)
	assert.Len(t, res.EquityCurve, 121, "initial balance plus one point per bar")
	assert.Equal(t, 100000.0, res.EquityCurve[0])
	assert.Len(t, log.equity, 120)
	require.Len(t, log.summary, 1)
	assert.Equal(t, res.RunID, log.summary[0].RunID)
	assert.Equal(t, "ema-cross", res.Strategy)
	assert.Equal(t, bars[0].Time, res.Start)
	assert.Equal(t, bars[119].Time, res.End)

	// everything is flat after the end-of-run sweep
	assert.Equal(t, res.Orders, res.Fills+res.Rejections+res.Cancels)
	assert.Equal(t, res.Fills, res.Trades)
	assert.Equal(t, res.Trades, res.Wins+res.Losses+countFlat(res))
	assert.InDelta(t, (res.FinalBalance-res.InitialBalance)/res.InitialBalance*100, res.ReturnPct, 1e-9)
}

func countFlat(r Result) int {
	n := 0
	for _, p := range r.Closed {
		if p.RealizedPL() == 0 {
			n++
		}
	}
	return n
}

func TestRunMissingFeaturesHold(t *testing.T) {
	t.Parallel()

	r := newRunner(t)
	r.Predictor = sign{col: "score"}
	r.Features = constFeatures{indicators.ColATR: 2}

	res, err := r.Run(context.Background(), "AAA", series("AAA", 40))
	require.NoError(t, err)

	// bars 30..40 reach the predictor and all lack "score"
	assert.Equal(t, 11, res.DataErrors)
	assert.Equal(t, 0, res.Orders)
	assert.Equal(t, 100000.0, res.FinalBalance)
	assert.False(t, res.SharpeOK)
}

func TestRunMinWindowGatesPrediction(t *testing.T) {
	t.Parallel()

	r := newRunner(t)
	r.Predictor = sign{col: "score"}
	r.Features = constFeatures{indicators.ColATR: 2, "score": 1}
	r.Options.WindowSize = 5
	r.Options.MinWindow = 3

	bars := series("AAA", 3)
	res, err := r.Run(context.Background(), "AAA", bars)
	require.NoError(t, err)

	// only the third bar predicts; its order is canceled at the end
	assert.Equal(t, 1, res.Orders)
	assert.Equal(t, 1, res.Cancels)
	assert.Equal(t, 0, res.Trades)
}

func TestRunFatalErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		features FeatureProvider
		bars     []market.Bar
	}{
		{"no bars", constFeatures{}, nil},
		{"provider error", failing{}, series("AAA", 5)},
		{"row count changed", dropLast{}, series("AAA", 5)},
		{"out of order", constFeatures{}, reversed(series("AAA", 60))},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newRunner(t)
			r.Features = tt.features

			_, err := r.Run(context.Background(), "AAA", tt.bars)
			var fe *FatalError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, "AAA", fe.Symbol)
		})
	}
}

func TestRunRejectsUnsortedBars(t *testing.T) {
	t.Parallel()

	bars := series("AAA", 60)
	bars[10], bars[11] = bars[11], bars[10]

	res, err := newRunner(t).Run(context.Background(), "AAA", bars)
	require.ErrorIs(t, err, market.ErrUnsorted)
	assert.Zero(t, res.Bars)

	_, err = newRunner(t).Run(context.Background(), "AAA", series("AAA", 60))
	assert.NoError(t, err)
}

func TestRunJournalFailureDoesNotAbort(t *testing.T) {
	t.Parallel()

	bars := series("AAA", 80)

	want, err := newRunner(t).Run(context.Background(), "AAA", bars)
	require.NoError(t, err)
	require.Greater(t, want.Orders, 0)

	r := newRunner(t)
	r.Journal = brokenJournal{}
	got, err := r.Run(context.Background(), "AAA", bars)
	require.NoError(t, err)
	assert.Equal(t, 80, got.Bars)
	assert.Equal(t, want.Orders, got.Orders)
	assert.Equal(t, want.FinalBalance, got.FinalBalance)
	assert.Equal(t, want.Trades, got.Trades)
}

func TestRunRequiresCollaborators(t *testing.T) {
	t.Parallel()

	_, err := (&Runner{Options: DefaultOptions()}).Run(context.Background(), "AAA", series("AAA", 3))
	assert.Error(t, err)
}

func TestRunCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newRunner(t).Run(ctx, "AAA", series("AAA", 50))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWithBadBar(t *testing.T) {
	t.Parallel()

	r := newRunner(t)
	r.Predictor = sign{col: "score"}
	r.Features = constFeatures{indicators.ColATR: 2, "score": 1}
	r.Options.WindowSize = 1

	bars := series("AAA", 4)
	bars[2].Open = math.NaN()

	res, err := r.Run(context.Background(), "AAA", bars)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DataErrors)
	assert.False(t, math.IsNaN(res.FinalBalance))
	for _, v := range res.EquityCurve {
		assert.False(t, math.IsNaN(v))
	}
}
