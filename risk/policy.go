package risk

import (
	"errors"
	"fmt"
)

// Params are the knobs of a Manager.
type Params struct {
	RiskPerTrade     float64 `yaml:"risk_per_trade" json:"risk_per_trade"`         // fraction of balance risked per ATR unit, e.g. 0.09
	MaxDrawdown      float64 `yaml:"max_drawdown" json:"max_drawdown"`             // fraction, e.g. 0.07
	MaxPortfolioRisk float64 `yaml:"max_portfolio_risk" json:"max_portfolio_risk"` // VaR ceiling
	MaxVolatility    float64 `yaml:"max_volatility" json:"max_volatility"`
	MarginMultiple   float64 `yaml:"margin_multiple" json:"margin_multiple"` // notional may be up to this times balance
	VaRConfidence    float64 `yaml:"var_confidence" json:"var_confidence"`

	StopLow     float64 `yaml:"stop_low" json:"stop_low"`
	StopClose   float64 `yaml:"stop_close" json:"stop_close"`
	TargetHigh  float64 `yaml:"target_high" json:"target_high"`
	TargetClose float64 `yaml:"target_close" json:"target_close"`

	Annualization float64 `yaml:"annualization" json:"annualization"` // 252 trading days
}

func DefaultParams() Params {
	return Params{
		RiskPerTrade:     0.09,
		MaxDrawdown:      0.07,
		MaxPortfolioRisk: 100000,
		MaxVolatility:    0.5,
		MarginMultiple:   2,
		VaRConfidence:    0.95,

		StopLow:     0.5,
		StopClose:   0.47,
		TargetHigh:  0.5,
		TargetClose: 0.53,

		Annualization: 252,
	}
}

func (p Params) Validate() error {
	var errs []error
	if p.RiskPerTrade <= 0 || p.RiskPerTrade > 1 {
		errs = append(errs, fmt.Errorf("risk_per_trade must be in (0, 1], got %v", p.RiskPerTrade))
	}
	if p.MaxDrawdown <= 0 || p.MaxDrawdown > 1 {
		errs = append(errs, fmt.Errorf("max_drawdown must be in (0, 1], got %v", p.MaxDrawdown))
	}
	if p.MaxPortfolioRisk <= 0 {
		errs = append(errs, fmt.Errorf("max_portfolio_risk must be positive, got %v", p.MaxPortfolioRisk))
	}
	if p.MaxVolatility <= 0 {
		errs = append(errs, fmt.Errorf("max_volatility must be positive, got %v", p.MaxVolatility))
	}
	if p.MarginMultiple <= 0 {
		errs = append(errs, fmt.Errorf("margin_multiple must be positive, got %v", p.MarginMultiple))
	}
	if p.VaRConfidence <= 0 || p.VaRConfidence >= 1 {
		errs = append(errs, fmt.Errorf("var_confidence must be in (0, 1), got %v", p.VaRConfidence))
	}
	if p.Annualization <= 0 {
		errs = append(errs, fmt.Errorf("annualization must be positive, got %v", p.Annualization))
	}
	return errors.Join(errs...)
}
