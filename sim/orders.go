package sim

import (
	"log/slog"
	"math"
	"time"

	"github.com/rustyeddy/barreplay/internal/id"
	"github.com/rustyeddy/barreplay/internal/logging"
	"github.com/rustyeddy/barreplay/journal"
	"github.com/rustyeddy/barreplay/market"
	"github.com/rustyeddy/barreplay/risk"
)

// Cancel reasons.
const (
	CancelExpired  = "EXPIRED"
	CancelEndOfRun = "END_OF_RUN"
)

// Validator approves or rejects an order before it is queued.
type Validator interface {
	ValidateOrder(o risk.Notional, historicalVolatility float64) risk.Decision
}

type Options struct {
	RunID string

	// PendingExpiryBars cancels an unfilled order after it has been offered
	// this many bars. 0 keeps it until the run ends.
	PendingExpiryBars int

	Journal journal.Journal
	Logger  *slog.Logger
}

// OrderManager owns the order lifecycle for one replay: validation, the
// per-symbol pending queues, fills at the bar open, and stop/target exits.
type OrderManager struct {
	portfolio *Portfolio
	validator Validator
	journal   journal.Journal
	log       *slog.Logger
	runID     string
	expiry    int

	ids     id.Sequence
	bar     int
	orders  []*Order
	pending map[string][]*Order
}

func NewOrderManager(p *Portfolio, v Validator, opts Options) *OrderManager {
	j := opts.Journal
	if j == nil {
		j = journal.Nop{}
	}
	return &OrderManager{
		portfolio: p,
		validator: v,
		journal:   j,
		log:       logging.OrDiscard(opts.Logger).With("component", "orders"),
		runID:     opts.RunID,
		expiry:    opts.PendingExpiryBars,
		pending:   make(map[string][]*Order),
	}
}

func (om *OrderManager) Portfolio() *Portfolio { return om.portfolio }

// Bar is the number of bars processed so far.
func (om *OrderManager) Bar() int { return om.bar }

// PlaceOrder builds and validates an order. A rejected order is kept in
// the audit list only; an approved one joins its symbol's pending queue.
// The error is non-nil only when req cannot form an order at all.
func (om *OrderManager) PlaceOrder(req OrderRequest) (*Order, risk.Decision, error) {
	o, err := NewOrder(om.ids.Next(), req)
	if err != nil {
		return nil, risk.Decision{}, err
	}
	o.SubmittedBar = om.bar
	om.orders = append(om.orders, o)

	d := om.validator.ValidateOrder(o, req.Volatility)
	if !d.Approved {
		_ = o.reject(string(d.Reason))
		om.log.Info("order rejected", "order_id", o.ID, "symbol", o.Symbol, "reason", d.Reason, "msg", d.Msg)
		om.record(o, journal.ActionRejected, o.EntryPrice, req.Time)
		return o, d, nil
	}

	om.pending[o.Symbol] = append(om.pending[o.Symbol], o)
	om.log.Debug("order placed", "order_id", o.ID, "symbol", o.Symbol, "side", o.Side, "size", o.Size, "price", o.EntryPrice)
	om.record(o, journal.ActionPlaced, o.EntryPrice, req.Time)
	return o, d, nil
}

// ProcessOrders advances one bar for b.Symbol: expires stale pending
// orders, tries to fill the rest at b.Open, marks open positions at b.Open
// and closes those whose stop or target was crossed.
func (om *OrderManager) ProcessOrders(b market.Bar) {
	om.bar++

	queue := om.pending[b.Symbol]
	kept := queue[:0]
	for _, o := range queue {
		if o.Status != StatusSubmitted {
			continue
		}
		if om.expiry > 0 && om.bar-o.SubmittedBar > om.expiry {
			om.cancel(o, CancelExpired, b.Time)
			continue
		}
		kept = append(kept, o)
	}
	clear(queue[len(kept):])
	om.pending[b.Symbol] = kept

	price := b.Open
	if !(price > 0) || math.IsInf(price, 0) {
		om.log.Warn("bad open price, skipping fills", "symbol", b.Symbol, "time", b.Time, "open", price)
		return
	}

	kept = kept[:0]
	for _, o := range om.pending[b.Symbol] {
		if !om.fill(o, price, b.Time) {
			kept = append(kept, o)
		}
	}
	om.pending[b.Symbol] = kept

	om.portfolio.mark(b.Symbol, price)

	for _, pos := range om.portfolio.OpenPositions(b.Symbol) {
		reason := ""
		switch {
		case pos.hitStop(price):
			reason = CloseStop
		case pos.hitTarget(price):
			reason = CloseTarget
		}
		if reason != "" {
			om.close(pos.Order.ID, price, b.Time, reason)
		}
	}
}

// FillOrder fills a submitted order at price when the balance covers
// price*size. Otherwise nothing changes and it returns false.
func (om *OrderManager) FillOrder(o *Order, price float64, at time.Time) bool {
	filled := om.fill(o, price, at)
	if filled {
		om.removePending(o)
	}
	return filled
}

func (om *OrderManager) fill(o *Order, price float64, at time.Time) bool {
	if o.Status != StatusSubmitted {
		return false
	}
	if !om.portfolio.settleFill(o, price, at) {
		om.log.Debug("insufficient balance for fill", "order_id", o.ID, "price", price, "size", o.Size)
		return false
	}
	_ = o.fill(price, at)
	om.record(o, journal.ActionFilled, price, at)
	return true
}

func (om *OrderManager) removePending(o *Order) {
	q := om.pending[o.Symbol]
	for i, p := range q {
		if p == o {
			om.pending[o.Symbol] = append(q[:i], q[i+1:]...)
			return
		}
	}
}

func (om *OrderManager) close(orderID string, price float64, at time.Time, reason string) {
	pos, err := om.portfolio.settleClose(orderID, price, at, reason)
	if err != nil {
		om.log.Error("close position", "order_id", orderID, "err", err)
		return
	}
	om.log.Debug("position closed", "order_id", orderID, "price", price, "reason", reason)
	if err := om.journal.RecordTrade(journal.TradeRecord{
		RunID:      om.runID,
		TradeID:    pos.Order.ID,
		Symbol:     pos.Order.Symbol,
		Side:       string(pos.Order.Side),
		Size:       pos.Order.Size,
		EntryPrice: pos.FillPrice,
		ExitPrice:  price,
		OpenTime:   pos.OpenTime,
		CloseTime:  at,
		RealizedPL: pos.RealizedPL(),
		Reason:     reason,
	}); err != nil {
		om.log.Warn("journal trade", "order_id", orderID, "err", err)
	}
}

// CloseAll closes every open position in b.Symbol at b.Close.
func (om *OrderManager) CloseAll(b market.Bar, reason string) int {
	if reason == "" {
		reason = CloseEndOfRun
	}
	open := om.portfolio.OpenPositions(b.Symbol)
	for _, pos := range open {
		om.close(pos.Order.ID, b.Close, b.Time, reason)
	}
	return len(open)
}

// CancelPending cancels every pending order of every symbol.
func (om *OrderManager) CancelPending(reason string, at time.Time) int {
	if reason == "" {
		reason = CancelEndOfRun
	}
	n := 0
	for sym, q := range om.pending {
		for _, o := range q {
			if o.Status == StatusSubmitted {
				om.cancel(o, reason, at)
				n++
			}
		}
		delete(om.pending, sym)
	}
	return n
}

func (om *OrderManager) cancel(o *Order, reason string, at time.Time) {
	if err := o.cancel(reason); err != nil {
		om.log.Error("cancel order", "order_id", o.ID, "err", err)
		return
	}
	om.log.Debug("order canceled", "order_id", o.ID, "reason", reason)
	om.record(o, journal.ActionCanceled, o.EntryPrice, at)
}

// Orders is the audit list of every order ever placed, in placement order.
func (om *OrderManager) Orders() []*Order {
	return append([]*Order(nil), om.orders...)
}

// Pending returns the queued orders for symbol, oldest first.
func (om *OrderManager) Pending(symbol string) []*Order {
	return append([]*Order(nil), om.pending[symbol]...)
}

// Counts tallies the audit list by status.
func (om *OrderManager) Counts() map[Status]int {
	out := make(map[Status]int, 4)
	for _, o := range om.orders {
		out[o.Status]++
	}
	return out
}

func (om *OrderManager) record(o *Order, action string, price float64, at time.Time) {
	err := om.journal.RecordOrder(journal.OrderRecord{
		RunID:   om.runID,
		OrderID: o.ID,
		Symbol:  o.Symbol,
		Action:  action,
		Side:    string(o.Side),
		Price:   price,
		Size:    o.Size,
		Reason:  o.Reason,
		Time:    at,
	})
	if err != nil {
		om.log.Warn("journal order", "order_id", o.ID, "action", action, "err", err)
	}
}
