// Package risk validates orders, sizes positions and tracks the equity
// curve of a portfolio.
package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/rustyeddy/barreplay/market"
)

// Account is anything with a balance, normally a *sim.Portfolio.
type Account interface {
	Balance() decimal.Decimal
}

// Manager is not safe for concurrent use; each replay owns one.
type Manager struct {
	params  Params
	account Account

	equity  []float64
	returns []float64
	peak    float64
	maxDD   float64
}

func New(account Account, params Params) (*Manager, error) {
	if account == nil {
		return nil, errors.New("risk: nil account")
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("risk: %w", err)
	}
	m := &Manager{params: params, account: account}
	m.Reset()
	return m, nil
}

func (m *Manager) Params() Params { return m.params }

// Reset clears the equity history and seeds it with the current balance.
func (m *Manager) Reset() {
	m.equity = m.equity[:0]
	m.returns = m.returns[:0]
	m.peak = 0
	m.maxDD = 0
	m.append(m.balance())
}

// AdjustRisk changes the fraction risked per trade.
func (m *Manager) AdjustRisk(riskPerTrade float64) error {
	if riskPerTrade <= 0 || riskPerTrade > 1 || math.IsNaN(riskPerTrade) {
		return fmt.Errorf("risk per trade must be in (0, 1], got %v", riskPerTrade)
	}
	m.params.RiskPerTrade = riskPerTrade
	return nil
}

func (m *Manager) balance() float64 {
	return m.account.Balance().InexactFloat64()
}

// PositionSize is floor(balance*riskPerTrade/atr/price). Degenerate inputs
// size to 0.
func (m *Manager) PositionSize(atr, price float64) int64 {
	if !(atr > 0) || !(price > 0) {
		return 0
	}
	q := math.Floor(m.balance() * m.params.RiskPerTrade / atr / price)
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return 0
	}
	if q > math.MaxInt64/2 {
		return 0
	}
	return int64(q)
}

func (m *Manager) Stop(b market.Bar) float64 {
	return b.Low*m.params.StopLow + b.Close*m.params.StopClose
}

func (m *Manager) Target(b market.Bar) float64 {
	return b.High*m.params.TargetHigh + b.Close*m.params.TargetClose
}

// UpdateEquityCurve appends the current balance and its return against the
// previous point.
func (m *Manager) UpdateEquityCurve() {
	m.append(m.balance())
}

func (m *Manager) append(b float64) {
	if n := len(m.equity); n > 0 {
		prev := m.equity[n-1]
		r := 0.0
		if prev != 0 {
			r = (b - prev) / prev
		}
		m.returns = append(m.returns, r)
	}
	m.equity = append(m.equity, b)

	if len(m.equity) == 1 || b > m.peak {
		m.peak = b
	}
	if m.peak > 0 {
		if dd := (m.peak - b) / m.peak; dd > m.maxDD {
			m.maxDD = dd
		}
	}
}

// EquityCurve returns a copy of the recorded balances.
func (m *Manager) EquityCurve() []float64 {
	return append([]float64(nil), m.equity...)
}

// Returns returns a copy of the per-step returns.
func (m *Manager) Returns() []float64 {
	return append([]float64(nil), m.returns...)
}

// Peak is the highest balance on the equity curve.
func (m *Manager) Peak() float64 { return m.peak }

// Drawdown is the decline of the current balance from the curve's peak.
func (m *Manager) Drawdown() float64 {
	if len(m.equity) == 0 || m.peak <= 0 {
		return 0
	}
	return (m.peak - m.balance()) / m.peak
}

// MaxDrawdown is the largest drawdown seen on the equity curve.
func (m *Manager) MaxDrawdown() float64 { return m.maxDD }

// CheckDrawdown reports whether the drawdown is within the limit.
func (m *Manager) CheckDrawdown() bool {
	return m.Drawdown() <= m.params.MaxDrawdown
}

// SharpeRatio is the annualized mean over standard deviation of returns.
// ok is false when there are no returns or they have zero variance.
func (m *Manager) SharpeRatio() (ratio float64, ok bool) {
	if len(m.returns) == 0 {
		return 0, false
	}
	mean, std := stat.PopMeanStdDev(m.returns, nil)
	if std == 0 || math.IsNaN(std) {
		return 0, false
	}
	return mean / std * math.Sqrt(m.params.Annualization), true
}
