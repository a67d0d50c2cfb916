package strategy

import (
	"log/slog"
	"math"

	"github.com/rustyeddy/barreplay/indicators"
	"github.com/rustyeddy/barreplay/internal/logging"
	"github.com/rustyeddy/barreplay/market"
	"github.com/rustyeddy/barreplay/risk"
	"github.com/rustyeddy/barreplay/sim"
)

const (
	DefaultSizeDivisor = 5
	DefaultVolatility  = 0.09
)

type Config struct {
	// SizeDivisor scales down the risk-based position size.
	SizeDivisor int `yaml:"size_divisor" json:"size_divisor"`

	// DefaultVolatility is used when a bar has no volatility feature.
	DefaultVolatility float64 `yaml:"default_volatility" json:"default_volatility"`

	// HaltOnDrawdown skips new entries while the risk manager reports the
	// drawdown limit as breached. Off by default.
	HaltOnDrawdown bool `yaml:"halt_on_drawdown" json:"halt_on_drawdown"`
}

func DefaultConfig() Config {
	return Config{SizeDivisor: DefaultSizeDivisor, DefaultVolatility: DefaultVolatility}
}

// Strategy converts a prediction for a bar into at most one order.
type Strategy struct {
	orders *sim.OrderManager
	risk   *risk.Manager
	cfg    Config
	log    *slog.Logger

	suppressed int
}

func New(om *sim.OrderManager, rm *risk.Manager, cfg Config, log *slog.Logger) *Strategy {
	if cfg.SizeDivisor <= 0 {
		cfg.SizeDivisor = DefaultSizeDivisor
	}
	if !(cfg.DefaultVolatility > 0) {
		cfg.DefaultVolatility = DefaultVolatility
	}
	return &Strategy{
		orders: om,
		risk:   rm,
		cfg:    cfg,
		log:    logging.OrDiscard(log).With("component", "strategy"),
	}
}

// Suppressed counts entries skipped by the drawdown circuit breaker.
func (s *Strategy) Suppressed() int { return s.suppressed }

// OnBar settles pending orders and exits against b, then places one order
// for class c when it is not Hold and the size works out positive. The
// returned order is nil when nothing was placed.
func (s *Strategy) OnBar(b market.Bar, c Class) (*sim.Order, risk.Decision) {
	s.orders.ProcessOrders(b)

	if c == Hold {
		return nil, risk.Decision{}
	}

	if s.cfg.HaltOnDrawdown && !s.risk.CheckDrawdown() {
		s.suppressed++
		s.log.Info("drawdown limit reached, skipping entry",
			"symbol", b.Symbol, "time", b.Time, "drawdown", s.risk.Drawdown())
		return nil, risk.Decision{}
	}

	atr, ok := b.Feature(indicators.ColATR)
	if !ok {
		s.log.Debug("no atr, skipping entry", "symbol", b.Symbol, "time", b.Time)
		return nil, risk.Decision{}
	}

	size := int64(math.Floor(float64(s.risk.PositionSize(atr, b.Close)) / float64(s.cfg.SizeDivisor)))
	if size <= 0 {
		return nil, risk.Decision{}
	}

	vol, ok := b.Feature(indicators.ColVolatility)
	if !ok {
		vol = s.cfg.DefaultVolatility
	}

	side := sim.Buy
	if c == Short {
		side = sim.Sell
	}
	stop, target := s.risk.Stop(b), s.risk.Target(b)

	o, d, err := s.orders.PlaceOrder(sim.OrderRequest{
		Symbol:     b.Symbol,
		Side:       side,
		Size:       size,
		EntryPrice: b.Close,
		Stop:       &stop,
		Target:     &target,
		Volatility: vol,
		Time:       b.Time,
	})
	if err != nil {
		s.log.Warn("order not built", "symbol", b.Symbol, "time", b.Time, "err", err)
		return nil, risk.Decision{}
	}
	return o, d
}
