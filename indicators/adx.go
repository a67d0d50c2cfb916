package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/barreplay/market"
)

// ADX is Wilder's Average Directional Index.
//
// The first bar only seeds the previous bar. The next n periods build the
// smoothed TR, +DM and -DM; ADX is then seeded with the mean of the first n
// DX values and Wilder-smoothed afterwards. That makes Warmup 2n bars.
type ADX struct {
	n int

	prev    market.Bar
	hasPrev bool
	periods int
	ready   bool

	adx     float64
	plusDI  float64
	minusDI float64
	lastDX  float64

	// raw sums for the first n periods, then Wilder smoothed
	smTR      float64
	smPlusDM  float64
	smMinusDM float64

	dxSum   float64
	dxCount int
}

func NewADX(period int) *ADX {
	return &ADX{n: period}
}

func (a *ADX) Name() string { return fmt.Sprintf("ADX(%d)", a.n) }
func (a *ADX) Warmup() int  { return 2 * a.n }
func (a *ADX) Ready() bool  { return a.ready }

func (a *ADX) Value() float64 {
	if !a.ready {
		return 0
	}
	return a.adx
}

func (a *ADX) Reset() {
	*a = ADX{n: a.n}
}

// PlusDI and MinusDI are the directional indicators of the last period.
func (a *ADX) PlusDI() float64  { return a.plusDI }
func (a *ADX) MinusDI() float64 { return a.minusDI }

func (a *ADX) Update(b market.Bar) {
	if !a.hasPrev {
		a.prev, a.hasPrev = b, true
		return
	}
	prev := a.prev
	a.prev = b

	tr := trueRange(b, prev)

	upMove := b.High - prev.High
	downMove := prev.Low - b.Low
	var plusDM, minusDM float64
	if upMove > downMove && upMove > 0 {
		plusDM = upMove
	}
	if downMove > upMove && downMove > 0 {
		minusDM = downMove
	}

	a.periods++
	nf := float64(a.n)

	if a.periods <= a.n {
		a.smTR += tr
		a.smPlusDM += plusDM
		a.smMinusDM += minusDM
		if a.periods < a.n {
			return
		}
	} else {
		a.smTR = a.smTR - a.smTR/nf + tr
		a.smPlusDM = a.smPlusDM - a.smPlusDM/nf + plusDM
		a.smMinusDM = a.smMinusDM - a.smMinusDM/nf + minusDM
	}

	a.plusDI, a.minusDI = directional(a.smPlusDM, a.smMinusDM, a.smTR)
	a.lastDX = dx(a.plusDI, a.minusDI)

	if a.ready {
		a.adx = (a.adx*(nf-1) + a.lastDX) / nf
		return
	}
	a.dxSum += a.lastDX
	a.dxCount++
	if a.dxCount >= a.n {
		a.adx = a.dxSum / nf
		a.ready = true
	}
}

func directional(smPlusDM, smMinusDM, smTR float64) (plusDI, minusDI float64) {
	if smTR <= 0 {
		return 0, 0
	}
	return 100 * smPlusDM / smTR, 100 * smMinusDM / smTR
}

func dx(plusDI, minusDI float64) float64 {
	den := plusDI + minusDI
	if den <= 0 {
		return 0
	}
	return 100 * math.Abs(plusDI-minusDI) / den
}
