package journal

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes replay activity as prometheus series. It owns its
// registry so several replays in one process do not collide.
type Metrics struct {
	reg *prometheus.Registry

	orders       *prometheus.CounterVec
	tradesClosed *prometheus.CounterVec
	tradePL      *prometheus.HistogramVec
	balance      *prometheus.GaugeVec
	drawdown     *prometheus.GaugeVec
	finalBalance *prometheus.GaugeVec
	sharpe       *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		orders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barreplay_orders_total",
				Help: "Order log entries by action",
			},
			[]string{"symbol", "action"},
		),
		tradesClosed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barreplay_trades_closed_total",
				Help: "Closed positions by exit reason",
			},
			[]string{"symbol", "reason"},
		),
		tradePL: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "barreplay_trade_pl",
				Help:    "Realized profit/loss per closed position",
				Buckets: []float64{-10000, -1000, -100, -10, 0, 10, 100, 1000, 10000},
			},
			[]string{"symbol"},
		),
		balance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "barreplay_equity_balance",
				Help: "Portfolio balance after the latest bar",
			},
			[]string{"symbol"},
		),
		drawdown: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "barreplay_drawdown",
				Help: "Drawdown from the running peak after the latest bar",
			},
			[]string{"symbol"},
		),
		finalBalance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "barreplay_final_balance",
				Help: "Balance at the end of the replay",
			},
			[]string{"symbol", "strategy"},
		),
		sharpe: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "barreplay_sharpe_ratio",
				Help: "Annualized Sharpe ratio, absent when undefined",
			},
			[]string{"symbol", "strategy"},
		),
	}
	m.reg.MustRegister(m.orders, m.tradesClosed, m.tradePL, m.balance, m.drawdown, m.finalBalance, m.sharpe)
	return m
}

// Registry returns the registry the series are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) RecordOrder(o OrderRecord) error {
	m.orders.WithLabelValues(o.Symbol, o.Action).Inc()
	return nil
}

func (m *Metrics) RecordTrade(t TradeRecord) error {
	m.tradesClosed.WithLabelValues(t.Symbol, t.Reason).Inc()
	m.tradePL.WithLabelValues(t.Symbol).Observe(t.RealizedPL)
	return nil
}

func (m *Metrics) RecordEquity(e EquitySnapshot) error {
	m.balance.WithLabelValues(e.Symbol).Set(e.Balance)
	m.drawdown.WithLabelValues(e.Symbol).Set(e.Drawdown)
	return nil
}

func (m *Metrics) RecordSummary(s Summary) error {
	m.finalBalance.WithLabelValues(s.Symbol, s.Strategy).Set(s.FinalBalance)
	if s.SharpeOK {
		m.sharpe.WithLabelValues(s.Symbol, s.Strategy).Set(s.Sharpe)
	}
	return nil
}

func (m *Metrics) Close() error { return nil }

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
