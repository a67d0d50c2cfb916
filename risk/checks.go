package risk

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// Reason is a validation failure code.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonInsufficientMargin Reason = "INSUFFICIENT_MARGIN"
	ReasonTooVolatile        Reason = "TOO_VOLATILE"
	ReasonVaRExceeded        Reason = "VAR_EXCEEDED"
)

// Decision is the outcome of ValidateOrder. A rejected order carries the
// first failing check.
type Decision struct {
	Approved bool
	Reason   Reason
	Msg      string
	VaR      float64
}

func reject(reason Reason, format string, args ...any) Decision {
	return Decision{Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

// Notional is the part of an order the margin check needs.
type Notional interface {
	Notional() float64
}

// ValidateOrder runs the margin, volatility and VaR checks in that order and
// stops at the first failure.
func (m *Manager) ValidateOrder(o Notional, historicalVolatility float64) Decision {
	balance := m.balance()
	notional := o.Notional()
	if !(notional <= m.params.MarginMultiple*balance) {
		return reject(ReasonInsufficientMargin,
			"notional %.2f exceeds %.1fx balance %.2f", notional, m.params.MarginMultiple, balance)
	}

	if !(historicalVolatility <= m.params.MaxVolatility) {
		return reject(ReasonTooVolatile,
			"volatility %.4f above max %.4f", historicalVolatility, m.params.MaxVolatility)
	}

	v := m.ValueAtRisk(historicalVolatility)
	if v > m.params.MaxPortfolioRisk {
		d := reject(ReasonVaRExceeded, "VaR %.4f above ceiling %.4f", v, m.params.MaxPortfolioRisk)
		d.VaR = v
		return d
	}

	return Decision{Approved: true, VaR: v}
}

// ValueAtRisk is the parametric VaR of a zero-mean normal with the given
// volatility at the configured confidence.
func (m *Manager) ValueAtRisk(volatility float64) float64 {
	if volatility <= 0 {
		return 0
	}
	n := distuv.Normal{Mu: 0, Sigma: volatility}
	return n.Quantile(m.params.VaRConfidence)
}
