package sim

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio is the cash ledger plus the positions bought with it.
//
// balance = cash + Σ CurrentValue(p) over OPEN positions. Fills and closes
// apply their cash and position changes under one lock acquisition, so a
// concurrent reader never observes half a fill.
type Portfolio struct {
	mu        sync.RWMutex
	cash      decimal.Decimal
	positions map[string]*Position
	closed    []string
}

func NewPortfolio(initialCash decimal.Decimal) *Portfolio {
	p := &Portfolio{}
	p.Reset(initialCash)
	return p
}

// Reset drops all positions and sets cash.
func (p *Portfolio) Reset(initialCash decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cash = initialCash
	p.positions = make(map[string]*Position)
	p.closed = nil
}

func (p *Portfolio) Cash() decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cash
}

// Balance is cash plus the marked value of open positions.
func (p *Portfolio) Balance() decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.balanceLocked()
}

func (p *Portfolio) balanceLocked() decimal.Decimal {
	b := p.cash
	for _, pos := range p.positions {
		if pos.Status == PositionOpen {
			b = b.Add(pos.CurrentValue())
		}
	}
	return b
}

// UpdateCash adds a signed amount.
func (p *Portfolio) UpdateCash(amount decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cash = p.cash.Add(amount)
}

// AddPosition opens a position for order at fillPrice without touching cash.
func (p *Portfolio) AddPosition(order *Order, fillPrice float64, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addLocked(order, fillPrice, at)
}

func (p *Portfolio) addLocked(order *Order, fillPrice float64, at time.Time) error {
	if _, dup := p.positions[order.ID]; dup {
		return fmt.Errorf("position %s already exists", order.ID)
	}
	p.positions[order.ID] = &Position{
		Order:     order,
		FillPrice: fillPrice,
		OpenTime:  at,
		Status:    PositionOpen,
	}
	return nil
}

// settleFill debits price*size and opens the position when the balance
// covers the cost. It reports whether the fill happened.
func (p *Portfolio) settleFill(order *Order, price float64, at time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	cost := notional(price, order.Size)
	if p.balanceLocked().LessThan(cost) {
		return false
	}
	if err := p.addLocked(order, price, at); err != nil {
		return false
	}
	p.cash = p.cash.Sub(cost)
	return true
}

// settleClose credits price*size and closes the position.
func (p *Portfolio) settleClose(orderID string, price float64, at time.Time, reason string) (Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.positions[orderID]
	if !ok {
		return Position{}, fmt.Errorf("close %s: no such position", orderID)
	}
	if pos.Status != PositionOpen {
		return Position{}, fmt.Errorf("close %s: position already closed", orderID)
	}

	p.cash = p.cash.Add(notional(price, pos.Order.Size))
	pos.current, pos.marked = price, true
	pos.Status = PositionClosed
	pos.ClosePrice = price
	pos.CloseTime = at
	pos.CloseReason = reason
	p.closed = append(p.closed, orderID)
	return *pos, nil
}

// ClosePosition closes an open position at price.
func (p *Portfolio) ClosePosition(orderID string, price float64, at time.Time, reason string) (Position, error) {
	return p.settleClose(orderID, price, at, reason)
}

// mark sets the current price of every open position in symbol.
func (p *Portfolio) mark(symbol string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pos := range p.positions {
		if pos.Status == PositionOpen && pos.Order.Symbol == symbol {
			pos.current, pos.marked = price, true
		}
	}
}

// Position returns a copy of the position for an order id.
func (p *Portfolio) Position(orderID string) (Position, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pos, ok := p.positions[orderID]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// OpenPositions returns the open positions for symbol ("" for all) ordered
// by order sequence.
func (p *Portfolio) OpenPositions(symbol string) []Position {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []Position
	for _, pos := range p.positions {
		if pos.Status != PositionOpen {
			continue
		}
		if symbol != "" && pos.Order.Symbol != symbol {
			continue
		}
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order.Seq < out[j].Order.Seq })
	return out
}

// ClosedPositions returns closed positions in the order they were closed.
func (p *Portfolio) ClosedPositions() []Position {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Position, 0, len(p.closed))
	for _, id := range p.closed {
		out = append(out, *p.positions[id])
	}
	return out
}
