package backtest

import (
	"context"
	"errors"

	"github.com/rustyeddy/barreplay/internal/logging"
	"github.com/rustyeddy/barreplay/market"
)

// Loader returns the bars for a symbol.
type Loader func(symbol string) ([]market.Bar, error)

// SymbolResult is one entry of a batch. Err is set when the symbol failed.
type SymbolResult struct {
	Symbol string
	Result Result
	Err    error
}

// Batch runs symbols one after another. A failure loading or preparing one
// symbol is recorded in its SymbolResult and the batch moves on; only
// cancellation or a configuration error stops it.
func (r *Runner) Batch(ctx context.Context, symbols []string, load Loader) ([]SymbolResult, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	log := logging.OrDiscard(r.Logger)

	out := make([]SymbolResult, 0, len(symbols))
	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		bars, err := load(sym)
		if err != nil {
			err = fatal(sym, err)
		} else {
			var res Result
			res, err = r.Run(ctx, sym, bars)
			if err == nil {
				out = append(out, SymbolResult{Symbol: sym, Result: res})
				continue
			}
		}

		var fe *FatalError
		if !errors.As(err, &fe) {
			return out, err
		}
		log.Error("symbol failed", "symbol", sym, "err", fe.Err)
		out = append(out, SymbolResult{Symbol: sym, Err: err})
	}
	return out, nil
}
