package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/barreplay/indicators"
	"github.com/rustyeddy/barreplay/market"
	"github.com/rustyeddy/barreplay/risk"
	"github.com/rustyeddy/barreplay/sim"
)

var t0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func newStrategy(t *testing.T, cash int64) (*Strategy, *sim.OrderManager, *risk.Manager) {
	t.Helper()

	p := sim.NewPortfolio(decimal.NewFromInt(cash))
	rm, err := risk.New(p, risk.DefaultParams())
	require.NoError(t, err)
	om := sim.NewOrderManager(p, rm, sim.Options{})
	return New(om, rm, DefaultConfig(), nil), om, rm
}

func featureBar(i int, price float64, f market.Features) market.Bar {
	return market.Bar{
		Symbol:   "AAA",
		Time:     t0.Add(time.Duration(i) * 24 * time.Hour),
		Open:     price,
		High:     price + 2,
		Low:      price - 2,
		Close:    price,
		Features: f,
	}
}

func TestHoldPlacesNothing(t *testing.T) {
	t.Parallel()

	s, om, _ := newStrategy(t, 100000)
	o, _ := s.OnBar(featureBar(1, 100, market.Features{indicators.ColATR: 2}), Hold)
	assert.Nil(t, o)
	assert.Empty(t, om.Orders())
	assert.Equal(t, 1, om.Bar(), "orders are still processed")
}

func TestLongPlacesSizedOrder(t *testing.T) {
	t.Parallel()

	s, om, rm := newStrategy(t, 100000)
	b := featureBar(1, 100, market.Features{indicators.ColATR: 2, indicators.ColVolatility: 0.02})

	o, d := s.OnBar(b, Long)
	require.NotNil(t, o)
	assert.True(t, d.Approved)

	// floor(100000*0.09/2/100) = 45, /5 = 9
	assert.Equal(t, int64(9), o.Size)
	assert.Equal(t, sim.Buy, o.Side)
	assert.Equal(t, 100.0, o.EntryPrice)
	assert.Equal(t, 0.02, o.Volatility)
	assert.InDelta(t, rm.Stop(b), *o.Stop, 1e-12)
	assert.InDelta(t, rm.Target(b), *o.Target, 1e-12)
	assert.Len(t, om.Pending("AAA"), 1)
}

func TestShortAndDefaultVolatility(t *testing.T) {
	t.Parallel()

	s, _, _ := newStrategy(t, 100000)
	o, _ := s.OnBar(featureBar(1, 100, market.Features{indicators.ColATR: 2}), Short)
	require.NotNil(t, o)
	assert.Equal(t, sim.Sell, o.Side)
	assert.Equal(t, DefaultVolatility, o.Volatility)
}

func TestNoATRNoOrder(t *testing.T) {
	t.Parallel()

	s, om, _ := newStrategy(t, 100000)
	o, _ := s.OnBar(featureBar(1, 100, nil), Long)
	assert.Nil(t, o)
	assert.Empty(t, om.Orders())
}

func TestTinySizeNoOrder(t *testing.T) {
	t.Parallel()

	// floor(100*0.09/2/100) = 0
	s, om, _ := newStrategy(t, 100)
	o, _ := s.OnBar(featureBar(1, 100, market.Features{indicators.ColATR: 2}), Long)
	assert.Nil(t, o)
	assert.Empty(t, om.Orders())
}

func TestRejectedOrderReturned(t *testing.T) {
	t.Parallel()

	s, _, _ := newStrategy(t, 100000)
	o, d := s.OnBar(featureBar(1, 100, market.Features{indicators.ColATR: 2, indicators.ColVolatility: 0.7}), Long)
	require.NotNil(t, o)
	assert.False(t, d.Approved)
	assert.Equal(t, risk.ReasonTooVolatile, d.Reason)
	assert.Equal(t, sim.StatusRejected, o.Status)
}

func TestDrawdownSuppressesEntries(t *testing.T) {
	t.Parallel()

	_, om, rm := newStrategy(t, 100000)
	cfg := DefaultConfig()
	cfg.HaltOnDrawdown = true
	s := New(om, rm, cfg, nil)

	om.Portfolio().UpdateCash(decimal.NewFromInt(-20000))
	rm.UpdateEquityCurve()
	require.False(t, rm.CheckDrawdown())

	o, _ := s.OnBar(featureBar(1, 100, market.Features{indicators.ColATR: 2}), Long)
	assert.Nil(t, o)
	assert.Equal(t, 1, s.Suppressed())
	assert.Empty(t, om.Orders())
}

func TestDrawdownIgnoredByDefault(t *testing.T) {
	t.Parallel()

	s, om, rm := newStrategy(t, 100000)
	require.False(t, DefaultConfig().HaltOnDrawdown)

	om.Portfolio().UpdateCash(decimal.NewFromInt(-10000))
	rm.UpdateEquityCurve()
	require.False(t, rm.CheckDrawdown())

	o, _ := s.OnBar(featureBar(1, 100, market.Features{indicators.ColATR: 1}), Long)
	require.NotNil(t, o)
	assert.Equal(t, sim.Buy, o.Side)
	assert.Positive(t, o.Size)
	assert.Zero(t, s.Suppressed())
	assert.Len(t, om.Orders(), 1)
}

func TestProcessOrdersRunsFirst(t *testing.T) {
	t.Parallel()

	s, om, _ := newStrategy(t, 100000)
	f := market.Features{indicators.ColATR: 2}

	first, _ := s.OnBar(featureBar(1, 100, f), Long)
	require.NotNil(t, first)
	assert.Equal(t, sim.StatusSubmitted, first.Status)

	// the next bar fills the previous order before placing a new one
	second, _ := s.OnBar(featureBar(2, 101, f), Long)
	require.NotNil(t, second)
	assert.Equal(t, sim.StatusFilled, first.Status)
	assert.Equal(t, 101.0, first.FillPrice)
	assert.Equal(t, sim.StatusSubmitted, second.Status)
	assert.Len(t, om.Portfolio().OpenPositions("AAA"), 1)
}
