package market

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMissingFeature is returned when a bar lacks a requested feature column
// or the value is NaN (typically indicator warm-up rows).
var ErrMissingFeature = errors.New("missing feature")

// Features holds derived numeric columns keyed by name.
type Features map[string]float64

// Bar is one time-step of OHLCV data for a symbol, optionally augmented with
// feature columns by a feature provider.
type Bar struct {
	Symbol string
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	Features Features
}

// Feature returns the named column. ok is false when the column is absent or
// not a finite number.
func (b Bar) Feature(name string) (v float64, ok bool) {
	v, ok = b.Features[name]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Vector extracts the given columns, in order.
func (b Bar) Vector(cols []string) ([]float64, error) {
	out := make([]float64, len(cols))
	for i, c := range cols {
		v, ok := b.Feature(c)
		if !ok {
			return nil, fmt.Errorf("%w %q at %s", ErrMissingFeature, c, b.Time.Format(time.RFC3339))
		}
		out[i] = v
	}
	return out, nil
}

// WithFeatures returns a copy of b carrying f.
func (b Bar) WithFeatures(f Features) Bar {
	b.Features = f
	return b
}

// Valid reports whether the OHLC prices are finite, positive and ordered.
func (b Bar) Valid() bool {
	for _, p := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return false
		}
	}
	return b.High >= b.Low
}
