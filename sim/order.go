// Package sim is the simulated broker: orders, positions, the portfolio
// cash ledger and the order manager that fills and closes them bar by bar.
package sim

import (
	"errors"
	"fmt"
	"math"
	"time"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type Status string

const (
	StatusSubmitted Status = "SUBMITTED"
	StatusRejected  Status = "REJECTED"
	StatusFilled    Status = "FILLED"
	StatusCanceled  Status = "CANCELED"
)

var (
	ErrInvalidOrder     = errors.New("invalid order")
	ErrStatusTransition = errors.New("illegal order status transition")
)

// OrderRequest is what a strategy asks for. The manager turns it into an
// Order with an id.
type OrderRequest struct {
	Symbol     string
	Side       Side
	Size       int64
	EntryPrice float64
	Stop       *float64
	Target     *float64
	Volatility float64
	Time       time.Time
}

type Order struct {
	ID         string
	Seq        uint64
	Symbol     string
	Side       Side
	Size       int64
	EntryPrice float64
	Stop       *float64
	Target     *float64
	Volatility float64

	Status       Status
	SubmittedBar int
	SubmittedAt  time.Time
	Reason       string

	FillPrice float64
	FilledAt  time.Time
}

// OrderID formats a sequence number as an order id.
func OrderID(seq uint64) string {
	return fmt.Sprintf("O_%d", seq)
}

// NewOrder validates req and returns a SUBMITTED order.
func NewOrder(seq uint64, req OrderRequest) (*Order, error) {
	if req.Size <= 0 {
		return nil, fmt.Errorf("%w: size %d must be positive", ErrInvalidOrder, req.Size)
	}
	if !(req.EntryPrice > 0) || math.IsInf(req.EntryPrice, 0) {
		return nil, fmt.Errorf("%w: entry price %v must be positive", ErrInvalidOrder, req.EntryPrice)
	}
	if req.Side != Buy && req.Side != Sell {
		return nil, fmt.Errorf("%w: side %q", ErrInvalidOrder, req.Side)
	}

	return &Order{
		ID:          OrderID(seq),
		Seq:         seq,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Size:        req.Size,
		EntryPrice:  req.EntryPrice,
		Stop:        req.Stop,
		Target:      req.Target,
		Volatility:  req.Volatility,
		Status:      StatusSubmitted,
		SubmittedAt: req.Time,
	}, nil
}

// Notional is size times entry price.
func (o *Order) Notional() float64 {
	return float64(o.Size) * o.EntryPrice
}

func (o *Order) transition(to Status) error {
	if o.Status != StatusSubmitted {
		return fmt.Errorf("%w: %s %s -> %s", ErrStatusTransition, o.ID, o.Status, to)
	}
	o.Status = to
	return nil
}

func (o *Order) reject(reason string) error {
	if err := o.transition(StatusRejected); err != nil {
		return err
	}
	o.Reason = reason
	return nil
}

func (o *Order) cancel(reason string) error {
	if err := o.transition(StatusCanceled); err != nil {
		return err
	}
	o.Reason = reason
	return nil
}

func (o *Order) fill(price float64, at time.Time) error {
	if err := o.transition(StatusFilled); err != nil {
		return err
	}
	o.FillPrice = price
	o.FilledAt = at
	return nil
}
