package backtest

import (
	"errors"
	"fmt"
)

// ErrData marks a bar the predictor could not use. The bar is treated as
// Hold and the replay continues.
var ErrData = errors.New("data error")

// FatalError aborts the replay of one symbol.
type FatalError struct {
	Symbol string
	Err    error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("backtest %s: %v", e.Symbol, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

func fatal(symbol string, err error) error {
	return &FatalError{Symbol: symbol, Err: err}
}
