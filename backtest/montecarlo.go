package backtest

import (
	"context"
	"math/rand"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rustyeddy/barreplay/internal/logging"
	"github.com/rustyeddy/barreplay/journal"
	"github.com/rustyeddy/barreplay/market"
)

// MonteCarloResult is the distribution of final-balance deltas over
// bootstrap resamples of the bar series.
type MonteCarloResult struct {
	Runs      int
	Deltas    []float64
	MeanDelta float64
	MinDelta  float64
	MaxDelta  float64
	StdDelta  float64
}

// MonteCarlo replays Options.MonteCarloRuns resamples of the augmented bars
// on a bounded worker pool. Run i draws from a source seeded with Seed+i,
// so results do not depend on scheduling. Each run gets its own portfolio,
// risk manager, order manager and strategy; nothing is journaled.
func (r *Runner) MonteCarlo(ctx context.Context, symbol string, augmented []market.Bar) (MonteCarloResult, error) {
	runs := r.Options.MonteCarloRuns
	if runs <= 0 || len(augmented) == 0 {
		return MonteCarloResult{}, nil
	}
	workers := r.Options.MonteCarloWorkers
	if workers <= 0 {
		workers = 1
	}

	deltas := make([]float64, runs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < runs; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			rng := rand.New(rand.NewSource(r.Options.Seed + int64(i)))
			sample := market.Resample(augmented, rng)

			res, err := r.replay(gctx, "", symbol, sample, journal.Nop{}, logging.Discard())
			if err != nil {
				return err
			}
			deltas[i] = res.FinalBalance - res.InitialBalance
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MonteCarloResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return MonteCarloResult{}, err
	}

	mean, std := stat.PopMeanStdDev(deltas, nil)
	return MonteCarloResult{
		Runs:      runs,
		Deltas:    deltas,
		MeanDelta: mean,
		MinDelta:  floats.Min(deltas),
		MaxDelta:  floats.Max(deltas),
		StdDelta:  std,
	}, nil
}
