// Package backtest replays bar series through a strategy and collects the
// results.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/barreplay/internal/id"
	"github.com/rustyeddy/barreplay/internal/logging"
	"github.com/rustyeddy/barreplay/journal"
	"github.com/rustyeddy/barreplay/market"
	"github.com/rustyeddy/barreplay/risk"
	"github.com/rustyeddy/barreplay/sim"
	"github.com/rustyeddy/barreplay/strategy"
)

// FeatureProvider augments bars with derived columns. It must return the
// same number of rows with the same timestamps.
type FeatureProvider interface {
	Augment(bars []market.Bar) ([]market.Bar, error)
}

// Options controls a replay.
type Options struct {
	InitialCash decimal.Decimal
	Risk        risk.Params
	Strategy    strategy.Config

	// WindowSize is the rolling window capacity; MinWindow bars must be
	// present before predicting (0 means a full window).
	WindowSize int
	MinWindow  int

	// PendingExpiryBars cancels unfilled orders after this many bars, 0 never.
	PendingExpiryBars int

	MonteCarloRuns    int
	MonteCarloWorkers int
	Seed              int64
}

func DefaultOptions() Options {
	return Options{
		InitialCash:       decimal.NewFromInt(1_000_000),
		Risk:              risk.DefaultParams(),
		Strategy:          strategy.DefaultConfig(),
		WindowSize:        DefaultWindow,
		MonteCarloWorkers: 4,
		Seed:              1,
	}
}

// Runner drives one symbol's bars through the feature provider, predictor,
// strategy and order manager.
type Runner struct {
	Predictor strategy.Predictor
	Features  FeatureProvider
	Journal   journal.Journal
	Logger    *slog.Logger
	Options   Options

	// RunIDs labels runs in the journal; a fresh source is used when nil.
	RunIDs *id.RunIDs
}

func (r *Runner) validate() error {
	if r.Predictor == nil {
		return errors.New("backtest: Predictor is required")
	}
	if r.Features == nil {
		return errors.New("backtest: Features is required")
	}
	if r.Options.InitialCash.IsNegative() {
		return fmt.Errorf("backtest: negative initial cash %s", r.Options.InitialCash)
	}
	return r.Options.Risk.Validate()
}

// Prepare checks bars are in time order, computes features once and checks
// the provider kept the shape.
func (r *Runner) Prepare(symbol string, bars []market.Bar) ([]market.Bar, error) {
	if len(bars) == 0 {
		return nil, fatal(symbol, market.ErrNoBars)
	}
	if err := market.CheckSorted(bars); err != nil {
		return nil, fatal(symbol, err)
	}
	augmented, err := r.Features.Augment(bars)
	if err != nil {
		return nil, fatal(symbol, fmt.Errorf("features: %w", err))
	}
	if err := market.CheckSameShape(bars, augmented); err != nil {
		return nil, fatal(symbol, fmt.Errorf("features: %w", err))
	}
	return augmented, nil
}

// Run replays bars for symbol, then runs Monte Carlo resamples when
// configured. The summary goes to the journal.
func (r *Runner) Run(ctx context.Context, symbol string, bars []market.Bar) (Result, error) {
	if err := r.validate(); err != nil {
		return Result{}, err
	}
	augmented, err := r.Prepare(symbol, bars)
	if err != nil {
		return Result{}, err
	}

	ids := r.RunIDs
	if ids == nil {
		ids = id.NewRunIDs()
	}
	runID, err := ids.New()
	if err != nil {
		return Result{}, fmt.Errorf("run id: %w", err)
	}

	j := r.Journal
	if j == nil {
		j = journal.Nop{}
	}
	log := logging.OrDiscard(r.Logger).With("symbol", symbol, "run_id", runID)

	res, err := r.replay(ctx, runID, symbol, augmented, j, log)
	if err != nil {
		return Result{}, err
	}
	log.Info("replay finished",
		"bars", res.Bars, "final_balance", res.FinalBalance, "trades", res.Trades, "data_errors", res.DataErrors)

	if r.Options.MonteCarloRuns > 0 {
		mc, err := r.MonteCarlo(ctx, symbol, augmented)
		if err != nil {
			return Result{}, err
		}
		res.MonteCarlo = &mc
		log.Info("monte carlo finished", "runs", mc.Runs, "mean_delta", mc.MeanDelta)
	}

	if err := j.RecordSummary(res.Summary()); err != nil {
		log.Warn("journal summary", "err", err)
	}
	return res, nil
}

// replay is one pass over bars with fresh portfolio, risk manager, order
// manager and strategy.
func (r *Runner) replay(ctx context.Context, runID, symbol string, bars []market.Bar, j journal.Journal, log *slog.Logger) (Result, error) {
	opts := r.Options

	portfolio := sim.NewPortfolio(opts.InitialCash)
	rm, err := risk.New(portfolio, opts.Risk)
	if err != nil {
		return Result{}, err
	}
	om := sim.NewOrderManager(portfolio, rm, sim.Options{
		RunID:             runID,
		PendingExpiryBars: opts.PendingExpiryBars,
		Journal:           j,
		Logger:            log,
	})
	strat := strategy.New(om, rm, opts.Strategy, log)

	win := NewWindow(opts.WindowSize)
	minWindow := opts.MinWindow
	if minWindow <= 0 || minWindow > win.Cap() {
		minWindow = win.Cap()
	}

	res := Result{
		RunID:          runID,
		Symbol:         symbol,
		Strategy:       r.Predictor.Name(),
		Start:          bars[0].Time,
		End:            bars[len(bars)-1].Time,
		InitialBalance: portfolio.Balance().InexactFloat64(),
	}

	for _, b := range bars {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		win.Push(b)
		class := strategy.Hold
		if win.Len() >= minWindow {
			class, err = r.predict(b)
			if err != nil {
				res.DataErrors++
				log.Debug("holding on bad bar", "time", b.Time, "err", err)
				class = strategy.Hold
			}
		}

		strat.OnBar(b, class)
		rm.UpdateEquityCurve()
		res.Bars++

		if err := j.RecordEquity(journal.EquitySnapshot{
			RunID:         runID,
			Symbol:        symbol,
			Time:          b.Time,
			Balance:       portfolio.Balance().InexactFloat64(),
			Cash:          portfolio.Cash().InexactFloat64(),
			Drawdown:      rm.Drawdown(),
			OpenPositions: len(portfolio.OpenPositions(symbol)),
		}); err != nil {
			log.Warn("journal equity", "err", err)
		}
	}

	last := bars[len(bars)-1]
	om.CloseAll(last, sim.CloseEndOfRun)
	om.CancelPending(sim.CancelEndOfRun, last.Time)

	res.collect(portfolio, rm, om, strat)
	return res, nil
}

func (r *Runner) predict(b market.Bar) (strategy.Class, error) {
	if !b.Valid() {
		return strategy.Hold, fmt.Errorf("%w: bad prices at %s", ErrData, b.Time.Format(time.RFC3339))
	}
	x, err := b.Vector(r.Predictor.Features())
	if err != nil {
		return strategy.Hold, fmt.Errorf("%w: %w", ErrData, err)
	}
	c, err := r.Predictor.Predict(x)
	if err != nil {
		return strategy.Hold, fmt.Errorf("%w: %w", ErrData, err)
	}
	return c, nil
}
