package backtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestMonteCarloIndependentOfWorkers(t *testing.T) {
	t.Parallel()

	bars := series("AAA", 150)

	run := func(workers int) MonteCarloResult {
		r := newRunner(t)
		r.Options.MonteCarloRuns = 8
		r.Options.MonteCarloWorkers = workers
		r.Options.Seed = 42

		augmented, err := r.Prepare("AAA", bars)
		require.NoError(t, err)
		mc, err := r.MonteCarlo(context.Background(), "AAA", augmented)
		require.NoError(t, err)
		return mc
	}

	one := run(1)
	four := run(4)

	require.Len(t, one.Deltas, 8)
	assert.Equal(t, 8, one.Runs)
	assert.Equal(t, one.Deltas, four.Deltas)
	assert.Equal(t, one.MeanDelta, four.MeanDelta)
	assert.Equal(t, floats.Min(one.Deltas), one.MinDelta)
	assert.Equal(t, floats.Max(one.Deltas), one.MaxDelta)
	assert.LessOrEqual(t, one.MinDelta, one.MeanDelta)
	assert.GreaterOrEqual(t, one.MaxDelta, one.MeanDelta)
	assert.GreaterOrEqual(t, one.StdDelta, 0.0)
}

func TestMonteCarloDisabled(t *testing.T) {
	t.Parallel()

	r := newRunner(t)
	mc, err := r.MonteCarlo(context.Background(), "AAA", series("AAA", 10))
	require.NoError(t, err)
	assert.Zero(t, mc.Runs)
	assert.Nil(t, mc.Deltas)
}

func TestRunWithMonteCarloKeepsPrimaryResult(t *testing.T) {
	t.Parallel()

	bars := series("AAA", 150)

	plain, err := newRunner(t).Run(context.Background(), "AAA", bars)
	require.NoError(t, err)
	assert.Nil(t, plain.MonteCarlo)

	log := &equityLog{}
	r := newRunner(t)
	r.Journal = log
	r.Options.MonteCarloRuns = 3
	withMC, err := r.Run(context.Background(), "AAA", bars)
	require.NoError(t, err)

	require.NotNil(t, withMC.MonteCarlo)
	assert.Equal(t, 3, withMC.MonteCarlo.Runs)
	assert.Equal(t, plain.FinalBalance, withMC.FinalBalance)
	assert.Equal(t, plain.EquityCurve, withMC.EquityCurve)

	// resamples are not journaled
	assert.Len(t, log.equity, 150)
	require.Len(t, log.summary, 1)
	assert.Equal(t, 3, log.summary[0].MonteCarloRuns)
	assert.Equal(t, withMC.MonteCarlo.MeanDelta, log.summary[0].MonteCarloMeanDelta)
}

func TestMonteCarloCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRunner(t)
	r.Options.MonteCarloRuns = 4
	_, err := r.MonteCarlo(ctx, "AAA", series("AAA", 40))
	assert.ErrorIs(t, err, context.Canceled)
}
