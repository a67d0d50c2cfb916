package sim

import (
	"time"

	"github.com/shopspring/decimal"
)

type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// Close reasons.
const (
	CloseStop     = "STOP"
	CloseTarget   = "TARGET"
	CloseEndOfRun = "END_OF_RUN"
)

// Position is a filled order. Values handed out by Portfolio are copies.
type Position struct {
	Order     *Order
	FillPrice float64
	OpenTime  time.Time
	Status    PositionStatus

	current float64
	marked  bool

	ClosePrice  float64
	CloseTime   time.Time
	CloseReason string
}

// CurrentPrice returns the last mark. ok is false before the first update.
func (p Position) CurrentPrice() (price float64, ok bool) {
	return p.current, p.marked
}

// CurrentValue is mark times size, zero until marked.
func (p Position) CurrentValue() decimal.Decimal {
	if !p.marked {
		return decimal.Zero
	}
	return notional(p.current, p.Order.Size)
}

// RealizedPL is the cash effect of the round trip: close proceeds minus
// fill cost. Zero while open.
func (p Position) RealizedPL() float64 {
	if p.Status != PositionClosed {
		return 0
	}
	return notional(p.ClosePrice, p.Order.Size).Sub(notional(p.FillPrice, p.Order.Size)).InexactFloat64()
}

func (p Position) hitStop(price float64) bool {
	return p.Order.Stop != nil && price <= *p.Order.Stop
}

func (p Position) hitTarget(price float64) bool {
	return p.Order.Target != nil && price >= *p.Order.Target
}

func notional(price float64, size int64) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(size))
}
