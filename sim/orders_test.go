package sim

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/barreplay/journal"
	"github.com/rustyeddy/barreplay/market"
	"github.com/rustyeddy/barreplay/risk"
)

var t0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

type orderLog struct {
	journal.Nop
	orders []journal.OrderRecord
	trades []journal.TradeRecord
}

func (l *orderLog) RecordOrder(o journal.OrderRecord) error {
	l.orders = append(l.orders, o)
	return nil
}

func (l *orderLog) RecordTrade(t journal.TradeRecord) error {
	l.trades = append(l.trades, t)
	return nil
}

func (l *orderLog) actions() []string {
	var out []string
	for _, o := range l.orders {
		out = append(out, o.Action)
	}
	return out
}

func newManager(t *testing.T, cash int64, expiry int) (*OrderManager, *orderLog) {
	t.Helper()

	p := NewPortfolio(decimal.NewFromInt(cash))
	rm, err := risk.New(p, risk.DefaultParams())
	require.NoError(t, err)

	log := &orderLog{}
	return NewOrderManager(p, rm, Options{RunID: "run", PendingExpiryBars: expiry, Journal: log}), log
}

func bar(i int, open float64) market.Bar {
	return market.Bar{
		Symbol: "AAA",
		Time:   t0.Add(time.Duration(i) * 24 * time.Hour),
		Open:   open,
		High:   open + 1,
		Low:    open - 1,
		Close:  open,
	}
}

func ptr(v float64) *float64 { return &v }

func TestPlaceAndFill(t *testing.T) {
	t.Parallel()

	om, log := newManager(t, 100000, 0)

	o, d, err := om.PlaceOrder(OrderRequest{Symbol: "AAA", Side: Buy, Size: 10, EntryPrice: 100, Volatility: 0.09, Time: t0})
	require.NoError(t, err)
	require.True(t, d.Approved)
	assert.Equal(t, "O_1", o.ID)
	assert.Len(t, om.Pending("AAA"), 1)

	om.ProcessOrders(bar(1, 100))

	assert.Equal(t, StatusFilled, o.Status)
	assert.True(t, om.Portfolio().Cash().Equal(decimal.NewFromInt(99000)))
	assert.True(t, om.Portfolio().Balance().Equal(decimal.NewFromInt(100000)))
	assert.Len(t, om.Portfolio().OpenPositions("AAA"), 1)
	assert.Empty(t, om.Pending("AAA"))
	assert.Equal(t, []string{journal.ActionPlaced, journal.ActionFilled}, log.actions())
}

func TestStopClosesPosition(t *testing.T) {
	t.Parallel()

	om, log := newManager(t, 100000, 0)

	o, _, err := om.PlaceOrder(OrderRequest{Symbol: "AAA", Side: Buy, Size: 10, EntryPrice: 100, Stop: ptr(95), Target: ptr(120), Time: t0})
	require.NoError(t, err)
	om.ProcessOrders(bar(1, 100))
	require.Equal(t, StatusFilled, o.Status)

	before := om.Portfolio().Cash()
	om.ProcessOrders(bar(2, 94))

	pos, ok := om.Portfolio().Position(o.ID)
	require.True(t, ok)
	assert.Equal(t, PositionClosed, pos.Status)
	assert.Equal(t, CloseStop, pos.CloseReason)
	assert.True(t, om.Portfolio().Cash().Equal(before.Add(decimal.NewFromInt(940))))
	assert.Empty(t, om.Portfolio().OpenPositions(""))

	// nothing fires again for a closed position
	om.ProcessOrders(bar(3, 200))
	assert.Len(t, log.trades, 1)
	assert.Equal(t, -60.0, log.trades[0].RealizedPL)
	assert.Equal(t, CloseStop, log.trades[0].Reason)
}

func TestTargetClosesPosition(t *testing.T) {
	t.Parallel()

	om, log := newManager(t, 100000, 0)

	o, _, err := om.PlaceOrder(OrderRequest{Symbol: "AAA", Side: Sell, Size: 5, EntryPrice: 100, Stop: ptr(90), Target: ptr(110), Time: t0})
	require.NoError(t, err)
	om.ProcessOrders(bar(1, 100))
	om.ProcessOrders(bar(2, 111))

	pos, _ := om.Portfolio().Position(o.ID)
	assert.Equal(t, CloseTarget, pos.CloseReason)
	assert.True(t, om.Portfolio().Cash().Equal(decimal.NewFromInt(100000-500+555)))
	require.Len(t, log.trades, 1)
}

func TestRejectedOrderKeptInAuditOnly(t *testing.T) {
	t.Parallel()

	om, log := newManager(t, 1000, 0)

	o, d, err := om.PlaceOrder(OrderRequest{Symbol: "AAA", Side: Buy, Size: 100, EntryPrice: 100, Volatility: 0.09, Time: t0})
	require.NoError(t, err)
	assert.False(t, d.Approved)
	assert.Equal(t, risk.ReasonInsufficientMargin, d.Reason)
	assert.Equal(t, StatusRejected, o.Status)
	assert.Equal(t, "INSUFFICIENT_MARGIN", o.Reason)
	assert.Empty(t, om.Pending("AAA"))
	assert.Len(t, om.Orders(), 1)

	om.ProcessOrders(bar(1, 100))
	assert.Equal(t, StatusRejected, o.Status)
	assert.Equal(t, []string{journal.ActionRejected}, log.actions())
	assert.Equal(t, "INSUFFICIENT_MARGIN", log.orders[0].Reason)
}

func TestInvalidRequestIsAnError(t *testing.T) {
	t.Parallel()

	om, _ := newManager(t, 1000, 0)
	_, _, err := om.PlaceOrder(OrderRequest{Symbol: "AAA", Side: Buy, Size: 0, EntryPrice: 100})
	assert.ErrorIs(t, err, ErrInvalidOrder)
	assert.Empty(t, om.Orders())
}

func TestUnaffordableOrderStaysPending(t *testing.T) {
	t.Parallel()

	// margin allows 2x balance, the fill needs 1x
	om, _ := newManager(t, 1000, 0)

	o, d, err := om.PlaceOrder(OrderRequest{Symbol: "AAA", Side: Buy, Size: 15, EntryPrice: 100, Time: t0})
	require.NoError(t, err)
	require.True(t, d.Approved)

	om.ProcessOrders(bar(1, 100))
	assert.Equal(t, StatusSubmitted, o.Status)
	assert.True(t, om.Portfolio().Cash().Equal(decimal.NewFromInt(1000)))
	assert.Empty(t, om.Portfolio().OpenPositions(""))
	assert.False(t, om.FillOrder(o, 100, t0))

	// cheaper open later fills it
	om.ProcessOrders(bar(2, 60))
	assert.Equal(t, StatusFilled, o.Status)
	assert.Equal(t, 60.0, o.FillPrice)
	assert.Empty(t, om.Pending("AAA"))
}

func TestPendingExpiry(t *testing.T) {
	t.Parallel()

	om, log := newManager(t, 1000, 2)

	o, _, err := om.PlaceOrder(OrderRequest{Symbol: "AAA", Side: Buy, Size: 15, EntryPrice: 100, Time: t0})
	require.NoError(t, err)

	om.ProcessOrders(bar(1, 100))
	om.ProcessOrders(bar(2, 100))
	assert.Equal(t, StatusSubmitted, o.Status)

	om.ProcessOrders(bar(3, 10))
	assert.Equal(t, StatusCanceled, o.Status)
	assert.Equal(t, CancelExpired, o.Reason)
	assert.Empty(t, om.Portfolio().OpenPositions(""))
	assert.Equal(t, []string{journal.ActionPlaced, journal.ActionCanceled}, log.actions())
}

func TestCloseAllAndCancelPending(t *testing.T) {
	t.Parallel()

	om, _ := newManager(t, 10000, 0)

	filled, _, err := om.PlaceOrder(OrderRequest{Symbol: "AAA", Side: Buy, Size: 10, EntryPrice: 100, Time: t0})
	require.NoError(t, err)
	om.ProcessOrders(bar(1, 100))
	require.Equal(t, StatusFilled, filled.Status)

	waiting, _, err := om.PlaceOrder(OrderRequest{Symbol: "AAA", Side: Buy, Size: 190, EntryPrice: 100, Time: t0})
	require.NoError(t, err)

	last := bar(2, 100)
	last.Close = 105
	om.ProcessOrders(last)
	require.Equal(t, StatusSubmitted, waiting.Status)

	assert.Equal(t, 1, om.CloseAll(last, ""))
	assert.Equal(t, 1, om.CancelPending("", last.Time))

	pos, _ := om.Portfolio().Position(filled.ID)
	assert.Equal(t, CloseEndOfRun, pos.CloseReason)
	assert.Equal(t, 105.0, pos.ClosePrice)
	assert.Equal(t, StatusCanceled, waiting.Status)
	assert.True(t, om.Portfolio().Balance().Equal(decimal.NewFromInt(10050)))

	counts := om.Counts()
	assert.Equal(t, 1, counts[StatusFilled])
	assert.Equal(t, 1, counts[StatusCanceled])
}

func TestOrderIDsArePerManager(t *testing.T) {
	t.Parallel()

	a, _ := newManager(t, 10000, 0)
	b, _ := newManager(t, 10000, 0)

	oa, _, err := a.PlaceOrder(OrderRequest{Symbol: "AAA", Side: Buy, Size: 1, EntryPrice: 10})
	require.NoError(t, err)
	ob, _, err := b.PlaceOrder(OrderRequest{Symbol: "AAA", Side: Buy, Size: 1, EntryPrice: 10})
	require.NoError(t, err)
	oa2, _, err := a.PlaceOrder(OrderRequest{Symbol: "AAA", Side: Buy, Size: 1, EntryPrice: 10})
	require.NoError(t, err)

	assert.Equal(t, "O_1", oa.ID)
	assert.Equal(t, "O_1", ob.ID)
	assert.Equal(t, "O_2", oa2.ID)
}
