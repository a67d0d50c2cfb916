package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/barreplay/market"
)

// ATR is the simple average of the last period true ranges. The first bar
// only seeds the previous close.
type ATR struct {
	period  int
	win     *rolling
	prev    market.Bar
	hasPrev bool
}

func NewATR(period int) *ATR {
	return &ATR{period: period, win: newRolling(period)}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR(%d)", a.period)
}

// Warmup is period+1 because a true range needs the previous close.
func (a *ATR) Warmup() int {
	return a.period + 1
}

func (a *ATR) Reset() {
	a.win.reset()
	a.hasPrev = false
}

func (a *ATR) Update(b market.Bar) {
	if a.hasPrev {
		a.win.push(trueRange(b, a.prev))
	}
	a.prev = b
	a.hasPrev = true
}

func (a *ATR) Ready() bool {
	return a.win.full
}

func (a *ATR) Value() float64 {
	if !a.Ready() {
		return 0
	}
	return a.win.mean()
}

func trueRange(current, previous market.Bar) float64 {
	highLow := current.High - current.Low
	highClose := math.Abs(current.High - previous.Close)
	lowClose := math.Abs(current.Low - previous.Close)

	return math.Max(highLow, math.Max(highClose, lowClose))
}
