// Package indicators provides streaming technical indicators and the
// feature provider that attaches them to bar series.
package indicators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/rustyeddy/barreplay/market"
)

// Indicator computes a single streaming value from bars.
// It is deterministic; the same input yields the same output.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed bar.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful.
	Ready() bool

	// Value returns the current value, 0 before Ready.
	Value() float64
}

// rolling is a fixed-size ring of float64. mean sums the ring on each call.
type rolling struct {
	buf  []float64
	next int
	full bool
}

func newRolling(n int) *rolling {
	return &rolling{buf: make([]float64, n)}
}

func (r *rolling) push(v float64) {
	r.buf[r.next] = v
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

func (r *rolling) reset() {
	clear(r.buf)
	r.next, r.full = 0, false
}

func (r *rolling) mean() float64 {
	return floats.Sum(r.buf) / float64(len(r.buf))
}

// values returns the window contents, oldest first.
func (r *rolling) values() []float64 {
	if !r.full {
		return append([]float64(nil), r.buf[:r.next]...)
	}
	out := make([]float64, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}
