package indicators

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/rustyeddy/barreplay/market"
)

// Volatility is the population standard deviation of the last period
// close-to-close returns.
type Volatility struct {
	period    int
	win       *rolling
	prevClose float64
	hasPrev   bool
}

func NewVolatility(period int) *Volatility {
	return &Volatility{period: period, win: newRolling(period)}
}

func (v *Volatility) Name() string {
	return fmt.Sprintf("VOL(%d)", v.period)
}

func (v *Volatility) Warmup() int {
	return v.period + 1
}

func (v *Volatility) Reset() {
	v.win.reset()
	v.hasPrev = false
}

func (v *Volatility) Update(b market.Bar) {
	if v.hasPrev && v.prevClose != 0 {
		v.win.push((b.Close - v.prevClose) / v.prevClose)
	}
	v.prevClose = b.Close
	v.hasPrev = true
}

func (v *Volatility) Ready() bool {
	return v.win.full
}

func (v *Volatility) Value() float64 {
	if !v.Ready() {
		return 0
	}
	_, std := stat.PopMeanStdDev(v.win.values(), nil)
	return std
}
